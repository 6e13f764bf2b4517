package recall

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
)

// InteractionLoader 读取当前的全量交互日志。
type InteractionLoader func(ctx context.Context) ([]core.Interaction, error)

// CollaborativeRecall 把 CollaborativePolicy 适配为召回源。
// 交互日志读取失败时按空日志处理（冷启动），错误只记录日志。
type CollaborativeRecall struct {
	Policy CollaborativePolicy
	Load   InteractionLoader
	Logger zerolog.Logger

	// TopK 为 0 时使用 rctx.TopK
	TopK int
}

func (r *CollaborativeRecall) Name() string        { return "recall.collaborative" }
func (r *CollaborativeRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CollaborativeRecall) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *CollaborativeRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	k := r.TopK
	if k <= 0 && rctx != nil {
		k = rctx.TopK
	}
	if r.Policy == nil || k <= 0 {
		return nil, nil
	}
	var interactions []core.Interaction
	if r.Load != nil {
		loaded, err := r.Load(ctx)
		if err != nil {
			r.Logger.Warn().Err(err).Str("policy", r.Policy.Name()).Msg("load interactions failed, treating log as empty")
		} else {
			interactions = loaded
		}
	}
	return r.Policy.Recommend(ctx, interactions, k), nil
}
