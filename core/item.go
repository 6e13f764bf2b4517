package core

import (
	"math"
	"sort"

	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

// 模型归属标签（model_used），标识结果由哪个策略产生。
const (
	ModelContentTFIDF        = "Content-Based (TF-IDF)"
	ModelContentSemantic     = "Content-Based (Semantic)"
	ModelCollabPopularity    = "Collaborative (Popularity)"
	ModelCollabFactorization = "Collaborative (Matrix Factorization)"
	ModelCollabColdStart     = "Collaborative (Cold Start)"
	ModelCollabFiller        = "Collaborative (Filler)"
	ModelCollabFallback      = "Collaborative (Fallback Popularity)"
	ModelHybridLinear        = "Hybrid (Content + LR)"
	ModelHybridSemantic      = "Hybrid (Semantic + Context)"
)

// 常用特征名，在 Pipeline 各 Node 之间透传。
const (
	FeatureSimilarity        = "similarity"
	FeatureQuality           = "quality"
	FeatureOccasionMatch     = "occasion_match"
	FeatureRelationshipMatch = "relationship_match"
	FeatureTrend             = "trend"
	FeaturePopularity        = "popularity"
)

// Item 是推荐链路中的统一承载结构：商品副本、分数、置信度、特征与标签。
// Labels 用于解释与策略驱动；Score 用于排序决策；Confidence 面向展示，范围 [0,100]。
type Item struct {
	Product

	Score      float64                `json:"score"`
	Confidence float64                `json:"confidence"`
	ModelUsed  string                 `json:"model_used"`
	Features   map[string]float64     `json:"-"`
	Labels     map[string]utils.Label `json:"labels,omitempty"`

	// Position 是商品在目录中的下标，用于回查向量与质量分。
	Position int `json:"-"`
}

// NewItem 基于目录商品创建打分副本。
func NewItem(p Product, position int) *Item {
	return &Item{
		Product:  p.Clone(),
		Features: make(map[string]float64),
		Labels:   make(map[string]utils.Label),
		Position: position,
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Feature 读取特征，不存在时返回 0。
func (it *Item) Feature(name string) float64 {
	if it.Features == nil {
		return 0
	}
	return it.Features[name]
}

// SetFeature 写入特征。
func (it *Item) SetFeature(name string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[name] = v
}

// Attribute 设置置信度与模型标签，置信度被钳制到 [0,100]。
func (it *Item) Attribute(confidence float64, model string) {
	it.Confidence = ClampConfidence(confidence)
	it.ModelUsed = model
	it.PutLabel("model_used", utils.Label{Value: model, Source: "engine"})
}

// ClampConfidence 把任意数值钳制到 [0,100]，NaN 视为 0。
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ScoreToConfidence 把 [0,1] 分数换算为保留一位小数的百分制置信度。
func ScoreToConfidence(score float64) float64 {
	return ClampConfidence(math.Round(score*1000) / 10)
}

// SortByScore 按 Score 降序稳定排序；分数相同时按商品 ID 升序，再按目录下标升序。
func SortByScore(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Position < b.Position
	})
}
