package rerank

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
)

// Diversity 限制同一类别的候选数量，按输入顺序保留靠前的。
// 类别取 Labels[LabelKey]（LabelKey 非空且存在时），否则取 Product.Category；无类别的候选不受限制。
// Backfill 为 true 时，超额的候选按原顺序补到末尾，列表长度不变。
type Diversity struct {
	LabelKey       string
	MaxPerCategory int // 默认 1
	Backfill       bool
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) category(it *core.Item) string {
	if n.LabelKey != "" {
		if lbl, ok := it.Labels[n.LabelKey]; ok && lbl.Value != "" {
			return lbl.Value
		}
	}
	return it.Category
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := max(n.MaxPerCategory, 1)

	counts := make(map[string]int)
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item
	for _, it := range items {
		if it == nil {
			continue
		}
		cat := n.category(it)
		if cat != "" && counts[cat] >= limit {
			overflow = append(overflow, it)
			continue
		}
		if cat != "" {
			counts[cat]++
		}
		out = append(out, it)
	}
	if n.Backfill {
		out = append(out, overflow...)
	}
	return out, nil
}
