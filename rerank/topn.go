package rerank

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
)

// TopNNode 截取已排好序的前 N 个候选，一般是 Pipeline 的最后一个节点。
type TopNNode struct {
	// N <= 0 时使用 rctx.TopK；两者都 <= 0 时不截断
	N int
	// MinScore > 0 时先丢弃分数低于它的候选
	MinScore float64
}

func (n *TopNNode) Name() string        { return "rerank.topn" }
func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) limit(rctx *core.RecommendContext) int {
	if n.N > 0 {
		return n.N
	}
	if rctx != nil {
		return rctx.TopK
	}
	return 0
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.MinScore > 0 {
		kept := make([]*core.Item, 0, len(items))
		for _, it := range items {
			if it != nil && it.Score >= n.MinScore {
				kept = append(kept, it)
			}
		}
		items = kept
	}
	if k := n.limit(rctx); k > 0 && len(items) > k {
		return items[:k], nil
	}
	return items, nil
}
