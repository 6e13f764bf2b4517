package recall

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
)

// Source 是一路推荐策略，Fanout 并发调用多个 Source 并按名字汇总结果。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// SourceFunc 把函数适配为 Source。
type SourceFunc struct {
	Label string
	Fn    func(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

func (s SourceFunc) Name() string { return s.Label }

func (s SourceFunc) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	return s.Fn(ctx, rctx)
}

// CollaborativePolicy 只依赖交互日志给出全局推荐（热门计数或矩阵分解）。
// 交互不足时自行退化为冷启动随机推荐，从不返回错误。
type CollaborativePolicy interface {
	Name() string
	Recommend(ctx context.Context, interactions []core.Interaction, k int) []*core.Item
}
