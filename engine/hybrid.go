package engine

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/config"
	_ "github.com/Jegankumard/OptGiftAI/config/builders"
	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/filter"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/conv"
	"github.com/Jegankumard/OptGiftAI/rank"
	"github.com/Jegankumard/OptGiftAI/recall"
	"github.com/Jegankumard/OptGiftAI/rerank"
)

// hybridSource 把融合 Pipeline 包装成召回源，供 Fanout 并发执行。
func hybridSource(p *pipeline.Pipeline) recall.SourceFunc {
	return recall.SourceFunc{
		Label: "recall.hybrid",
		Fn: func(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
			return p.Run(ctx, rctx, nil)
		},
	}
}

// nodeFactory 在注册表之上追加依赖运行时对象的节点。
func (r *Recommender) nodeFactory() *pipeline.NodeFactory {
	f := config.DefaultFactory()
	f.Register("recall.catalog", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.CatalogRecall{
			Index:    r.index,
			Products: r.catalog.Products(),
			Limit:    int(conv.ConfigGetInt64(cfg, "limit", 0)),
		}, nil
	})
	f.Register("rank.quality", func(cfg map[string]any) (pipeline.Node, error) {
		return &rank.QualityNode{Scorer: r.quality, ModelName: conv.ConfigGet(cfg, "model", "lr")}, nil
	})
	f.Register("filter.cart_exclude", func(cfg map[string]any) (pipeline.Node, error) {
		prefix := conv.ConfigGet(cfg, "key_prefix", r.opts.excludePrefix)
		return &filter.FilterNode{
			Filters: []filter.Filter{filter.NewExcludeFilter(nil, r.opts.excludeStore, prefix)},
			Logger:  r.logger,
		}, nil
	})
	return f
}

// buildHybrid 组装融合 Pipeline。
//
// linear：全目录候选 → occasion 预过滤 → 质量分 → 0.7/0.3 线性融合 → 场景加权 → 置信度 → TopK
// semantic：相似度前 N 个候选 → 0.75/0.15/0.10 融合 → 置信度 → TopK
//
// 配置了 Pipeline 时，配置的节点替换候选之后的默认尾部；配置中自带 recall 节点则整体使用配置。
func (r *Recommender) buildHybrid() (*pipeline.Pipeline, error) {
	candidates := &recall.CatalogRecall{Index: r.index, Products: r.catalog.Products()}
	if r.opts.fusion == FusionSemantic {
		candidates.Limit = r.opts.semanticCandidates
	}

	if cfg := r.opts.pipelineConfig; cfg != nil && len(cfg.Pipeline.Nodes) > 0 {
		tail, err := cfg.BuildPipeline(r.nodeFactory())
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "build hybrid pipeline", err)
		}
		if tail.StartsWithRecall() {
			return tail, nil
		}
		return (&pipeline.Pipeline{Nodes: []pipeline.Node{candidates}}).Append(tail.Nodes...), nil
	}

	if r.opts.fusion == FusionSemantic {
		return &pipeline.Pipeline{Nodes: []pipeline.Node{
			candidates,
			rank.NewSemanticBlendNode(),
			&rerank.ConfidenceNode{Model: core.ModelHybridSemantic},
			&rerank.TopNNode{},
		}}, nil
	}
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		candidates,
		&filter.OccasionFilter{},
		&rank.QualityNode{Scorer: r.quality},
		rank.NewLinearBlendNode(),
		rerank.NewIntentBoostNode(),
		&rerank.ConfidenceNode{Model: core.ModelHybridLinear},
		&rerank.TopNNode{},
	}}, nil
}
