package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

// FilterNode 组合多个 Filter，任一返回 true 即移除候选。
// Prepare 或 ShouldFilter 出错的过滤器视为不命中，不中断请求。
type FilterNode struct {
	Filters []Filter
	Logger  zerolog.Logger
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	active := n.prepare(ctx, rctx)

	kept := items[:0:0]
	removed := make(map[string]int)
	for _, item := range items {
		if item == nil {
			continue
		}
		if name, hit := n.match(ctx, rctx, active, item); hit {
			item.PutLabel("filtered", utils.Label{Value: "true", Source: name})
			removed[name]++
			continue
		}
		kept = append(kept, item)
	}

	if len(removed) > 0 {
		ev := n.Logger.Debug().Int("in", len(items)).Int("out", len(kept))
		for name, c := range removed {
			ev = ev.Int(name, c)
		}
		ev.Msg("candidates filtered")
	}
	return kept, nil
}

func (n *FilterNode) prepare(ctx context.Context, rctx *core.RecommendContext) []Filter {
	active := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		p, ok := f.(Preparer)
		if !ok {
			active = append(active, f)
			continue
		}
		prepared, err := p.Prepare(ctx, rctx)
		if err != nil {
			n.Logger.Warn().Err(err).Str("filter", f.Name()).Msg("filter prepare failed, skipped")
			continue
		}
		active = append(active, prepared)
	}
	return active
}

func (n *FilterNode) match(ctx context.Context, rctx *core.RecommendContext, filters []Filter, item *core.Item) (string, bool) {
	for _, f := range filters {
		hit, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			n.Logger.Debug().Err(err).Str("filter", f.Name()).Int64("product_id", item.ID).Msg("filter check failed")
			continue
		}
		if hit {
			return f.Name(), true
		}
	}
	return "", false
}
