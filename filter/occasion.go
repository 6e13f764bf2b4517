package filter

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

// OccasionFilter 只保留商品文本中包含 occasion 的候选（忽略大小写的子串匹配）。
// occasion 为空，或过滤后为空时，原样返回全部候选。
type OccasionFilter struct{}

func (n *OccasionFilter) Name() string        { return "filter.occasion" }
func (n *OccasionFilter) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *OccasionFilter) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Occasion == "" || len(items) == 0 {
		return items, nil
	}
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil && it.Mentions(rctx.Occasion) {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		rctx.PutLabel("occasion_filter", utils.Label{Value: "fallback", Source: "filter"})
		return items, nil
	}
	return out, nil
}
