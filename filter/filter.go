package filter

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
)

// Filter 判断候选是否应被移除：返回 true 表示移除。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Preparer 是可选接口。FilterNode 在逐个判断前对每次请求调用一次 Prepare，
// 用返回的请求级 Filter 代替原 Filter（如从 Store 读取用户的排除列表）。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// Func 把普通函数适配为 Filter。
type Func struct {
	Label string
	Fn    func(rctx *core.RecommendContext, item *core.Item) bool
}

func (f Func) Name() string {
	if f.Label == "" {
		return "filter.func"
	}
	return f.Label
}

func (f Func) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Fn == nil {
		return false, nil
	}
	return f.Fn(rctx, item), nil
}
