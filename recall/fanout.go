package recall

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/metrics"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

// 合并策略。Sources 的顺序即优先级，结果总是按 Sources 顺序拼接。
const (
	MergeFirst    = "first"    // Dedup 时同 ID 保留先出现的，后者的 label 并入
	MergePriority = "priority" // 同 first
	MergeUnion    = "union"    // 不去重
)

// Fanout 并发执行多个 Source。
//
// 两种用法：
//   - Collect：各策略结果分开返回，用于并列展示内容/协同/混合三组推荐
//   - Process：作为 recall 节点把结果合并为一个候选列表
//
// 单个 Source 超时或出错只让它自己的结果为空。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 单个 Source 的超时，0 不限
	MaxConcurrent int           // 0 不限
	MergeStrategy string
	Logger        zerolog.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

// Collect 返回 Source 名称到结果的映射；失败的 Source 对应空切片。
func (n *Fanout) Collect(ctx context.Context, rctx *core.RecommendContext) (map[string][]*core.Item, error) {
	results, err := n.gather(ctx, rctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*core.Item, len(n.Sources))
	for i, s := range n.Sources {
		out[s.Name()] = results[i]
	}
	return out, nil
}

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	results, err := n.gather(ctx, rctx)
	if err != nil {
		return nil, err
	}
	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}
	if !n.Dedup || n.MergeStrategy == MergeUnion {
		return all, nil
	}
	return dedupByID(all), nil
}

// gather 按 Sources 下标返回结果，每个元素非 nil。
// 每个 Source 拿到 rctx 的独立副本，节点写 Labels 时互不影响。
func (n *Fanout) gather(ctx context.Context, rctx *core.RecommendContext) ([][]*core.Item, error) {
	results := make([][]*core.Item, len(n.Sources))
	g, gctx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		g.SetLimit(n.MaxConcurrent)
	}
	for i, src := range n.Sources {
		g.Go(func() error {
			results[i] = n.call(gctx, src, rctx.Clone())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

func (n *Fanout) call(ctx context.Context, src Source, rctx *core.RecommendContext) []*core.Item {
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	start := time.Now()
	items, err := src.Recall(ctx, rctx)
	if err != nil {
		n.Logger.Warn().Err(err).Str("source", src.Name()).Dur("elapsed", time.Since(start)).Msg("recall source failed")
		return []*core.Item{}
	}

	models := make([]string, 0, len(items))
	for _, it := range items {
		it.PutLabel("strategy", utils.Label{Value: src.Name(), Source: "recall"})
		models = append(models, it.ModelUsed)
	}
	metrics.RecordStrategy(src.Name(), models, time.Since(start))
	if items == nil {
		items = []*core.Item{}
	}
	return items
}

// dedupByID 保留每个 ID 第一次出现的候选，并把重复候选的 label 并入。
func dedupByID(all []*core.Item) []*core.Item {
	first := make(map[int64]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if kept, ok := first[it.ID]; ok {
			for k, v := range it.Labels {
				kept.PutLabel(k, v)
			}
			continue
		}
		first[it.ID] = it
		out = append(out, it)
	}
	return out
}
