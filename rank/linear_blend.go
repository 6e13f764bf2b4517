package rank

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

const (
	DefaultSimilarityWeight = 0.7
	DefaultQualityWeight    = 0.3
)

// LinearBlendNode 线性融合相关性与质量：
//
//	score = SimilarityWeight × similarity + QualityWeight × quality
//
// 结果按分数降序排列，不做钳制（由 IntentBoostNode 在加权后统一钳制）。
type LinearBlendNode struct {
	SimilarityWeight float64
	QualityWeight    float64
}

// NewLinearBlendNode 使用默认权重 0.7 / 0.3。
func NewLinearBlendNode() *LinearBlendNode {
	return &LinearBlendNode{SimilarityWeight: DefaultSimilarityWeight, QualityWeight: DefaultQualityWeight}
}

func (n *LinearBlendNode) Name() string        { return "rank.linear_blend" }
func (n *LinearBlendNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *LinearBlendNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	for _, it := range items {
		if it == nil {
			continue
		}
		it.Score = n.SimilarityWeight*it.Feature(core.FeatureSimilarity) + n.QualityWeight*it.Feature(core.FeatureQuality)
		it.PutLabel("rank_blend", utils.Label{Value: "linear", Source: "rank"})
	}
	core.SortByScore(items)
	return items, nil
}
