package recall

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/relevance"
)

// CatalogRecall 为融合 Pipeline 生成候选集：全部商品，或相似度最高的 Limit 个。
// 每个候选写入 similarity 特征，Score 初始化为相似度，顺序为相似度降序。
type CatalogRecall struct {
	Index    relevance.Index
	Products []core.Product

	// Limit 为 0 表示返回全部商品
	Limit int
}

func (r *CatalogRecall) Name() string        { return "recall.catalog" }
func (r *CatalogRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CatalogRecall) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *CatalogRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Index == nil || r.Index.Len() == 0 {
		return nil, nil
	}
	matches := r.Index.Score(ctx, rctx.BuildQuery())
	if r.Limit > 0 {
		matches = relevance.TopKOf(matches, r.Limit)
	}
	out := make([]*core.Item, 0, len(matches))
	for _, m := range matches {
		it := core.NewItem(r.Products[m.Position], m.Position)
		it.Score = m.Similarity
		it.SetFeature(core.FeatureSimilarity, m.Similarity)
		out = append(out, it)
	}
	return out, nil
}
