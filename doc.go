// Package optgift 是礼品推荐引擎（OptGiftAI）。
//
// 设计要点：
// - Pipeline-first: 融合策略通过 Node 串联（Recall → Filter → Rank → ReRank → PostProcess），可用 YAML 描述
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 三种策略并发：内容相似度、协同（热门计数 / 矩阵分解）、混合融合
// - 状态外置：交互日志、用户权重、购物车由 store 持有，引擎只读目录与模型快照
package optgift

import (
	"github.com/Jegankumard/OptGiftAI/engine"
	"github.com/Jegankumard/OptGiftAI/pipeline"
)

// 轻量 facade：便于直接 import 根包使用核心抽象。
type (
	Pipeline        = pipeline.Pipeline
	Node            = pipeline.Node
	Kind            = pipeline.Kind
	Recommender     = engine.Recommender
	Recommendations = engine.Recommendations
	Option          = engine.Option
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 构建推荐引擎，等同 engine.New。
var New = engine.New
