package pipeline

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
)

// Kind 标记 Node 所处阶段，用于日志打点与编排校验。
type Kind string

const (
	KindRecall      Kind = "recall"      // 生成候选
	KindFilter      Kind = "filter"      // 剔除候选
	KindRank        Kind = "rank"        // 写特征、打分
	KindReRank      Kind = "rerank"      // 场景加权、多样性、截断
	KindPostProcess Kind = "postprocess" // 置信度与模型标签
)

// Node 是 Pipeline 的最小单元：输入候选，输出候选。
// recall 节点忽略输入、生成新的候选；其余节点在输入上过滤、打分或重排。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeBuilder 根据配置构建 Node。
type NodeBuilder func(map[string]any) (Node, error)
