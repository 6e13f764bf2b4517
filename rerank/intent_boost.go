package rerank

import (
	"context"
	"math"
	"strings"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

// IntentBoostNode 在融合分上叠加场景加权，然后钳制到 [0,1] 并重新排序。
//   - 商品文本包含 relationship：+RelationshipBoost
//   - 商品文本包含 occasion：+OccasionBoost
//   - occasion 与商品文本中的冲突场景同时出现（例如 wedding vs birthday）：−ConflictPenalty
//
// 匹配均为 CombinedText 上忽略大小写的子串匹配。
type IntentBoostNode struct {
	RelationshipBoost float64
	OccasionBoost     float64
	ConflictPenalty   float64

	// Conflicts 是 occasion → 冲突词列表，key 为小写
	Conflicts map[string][]string
}

// NewIntentBoostNode 使用默认加权：+0.25 / +0.40 / −0.30，wedding 与 birthday 冲突。
func NewIntentBoostNode() *IntentBoostNode {
	return &IntentBoostNode{
		RelationshipBoost: 0.25,
		OccasionBoost:     0.40,
		ConflictPenalty:   0.30,
		Conflicts:         map[string][]string{"wedding": {"birthday"}},
	}
}

func (n *IntentBoostNode) Name() string        { return "rerank.intent_boost" }
func (n *IntentBoostNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *IntentBoostNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	var occasion, relationship string
	if rctx != nil {
		occasion, relationship = rctx.Occasion, rctx.Relationship
	}
	conflicts := n.Conflicts[strings.ToLower(strings.TrimSpace(occasion))]

	for _, it := range items {
		if it == nil {
			continue
		}
		score := it.Score
		if it.Mentions(relationship) {
			score += n.RelationshipBoost
			it.SetFeature(core.FeatureRelationshipMatch, 1)
		}
		if it.Mentions(occasion) {
			score += n.OccasionBoost
			it.SetFeature(core.FeatureOccasionMatch, 1)
		}
		for _, c := range conflicts {
			if it.Mentions(c) {
				score -= n.ConflictPenalty
				it.PutLabel("intent_conflict", utils.Label{Value: c, Source: "rerank"})
				break
			}
		}
		it.Score = clamp01(score)
	}
	core.SortByScore(items)
	return items, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
