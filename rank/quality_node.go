package rank

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

// QualityScorer 按目录下标返回商品的质量概率。model.QualityClassifier 实现了该接口。
type QualityScorer interface {
	Probability(position int) float64
}

// QualityNode 为每个候选写入 quality 特征，不改变顺序与分数。
//   - 写入 labels：rank_model
type QualityNode struct {
	Scorer    QualityScorer
	ModelName string
}

func (n *QualityNode) Name() string        { return "rank.quality" }
func (n *QualityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *QualityNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Scorer == nil || len(items) == 0 {
		return items, nil
	}
	name := n.ModelName
	if name == "" {
		name = "lr"
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		it.SetFeature(core.FeatureQuality, n.Scorer.Probability(it.Position))
		it.PutLabel("rank_model", utils.Label{Value: name, Source: "rank"})
	}
	return items, nil
}
