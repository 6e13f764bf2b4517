package filter

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/dsl"
)

// DefaultExprParam 是请求参数中 CEL 约束表达式的 key。
const DefaultExprParam = "expr"

// ExprFilter 用 CEL 表达式约束候选：表达式为 false 的商品被过滤。
// 表达式优先取 rctx.Params[ParamKey]，为空时使用 Expr；两者都为空则不过滤。
type ExprFilter struct {
	Expr     string
	ParamKey string
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Prepare 确定本次请求使用的表达式并预编译。
func (f *ExprFilter) Prepare(_ context.Context, rctx *core.RecommendContext) (Filter, error) {
	expr := f.Expr
	key := f.ParamKey
	if key == "" {
		key = DefaultExprParam
	}
	if v, ok := rctx.Param(key); ok {
		if s, ok := v.(string); ok && s != "" {
			expr = s
		}
	}
	if expr != "" {
		if _, err := dsl.Compile(expr); err != nil {
			return nil, err
		}
	}
	return &ExprFilter{Expr: expr, ParamKey: key}, nil
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expr == "" {
		return false, nil
	}
	ok, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		return false, err
	}
	return !ok, nil
}
