package rerank

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
)

// ConfidenceNode 把最终分数换算为置信度 round(score × 100, 1)，并写入模型标签。
type ConfidenceNode struct {
	Model string
}

func (n *ConfidenceNode) Name() string        { return "rerank.confidence" }
func (n *ConfidenceNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *ConfidenceNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	for _, it := range items {
		if it == nil {
			continue
		}
		it.Attribute(core.ScoreToConfidence(it.Score), n.Model)
	}
	return items, nil
}
