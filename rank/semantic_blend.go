package rank

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

// SemanticBlendNode 融合语义相似度与场景匹配：
//
//	score = 0.75 × similarity + 0.15 × occasion_match + 0.10 × relationship_match
//
// 匹配项为 0/1 指示，在 title + tags 中做忽略大小写的子串匹配。
type SemanticBlendNode struct {
	SimilarityWeight   float64
	OccasionWeight     float64
	RelationshipWeight float64
}

// NewSemanticBlendNode 使用默认权重 0.75 / 0.15 / 0.10。
func NewSemanticBlendNode() *SemanticBlendNode {
	return &SemanticBlendNode{SimilarityWeight: 0.75, OccasionWeight: 0.15, RelationshipWeight: 0.10}
}

func (n *SemanticBlendNode) Name() string        { return "rank.semantic_blend" }
func (n *SemanticBlendNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SemanticBlendNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	var occasion, relationship string
	if rctx != nil {
		occasion, relationship = rctx.Occasion, rctx.Relationship
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		occ := indicator(it.TitleOrTagsMention(occasion))
		rel := indicator(it.TitleOrTagsMention(relationship))
		it.SetFeature(core.FeatureOccasionMatch, occ)
		it.SetFeature(core.FeatureRelationshipMatch, rel)
		it.Score = n.SimilarityWeight*it.Feature(core.FeatureSimilarity) + n.OccasionWeight*occ + n.RelationshipWeight*rel
		it.PutLabel("rank_blend", utils.Label{Value: "semantic", Source: "rank"})
	}
	core.SortByScore(items)
	return items, nil
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
