package recall

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
	"github.com/Jegankumard/OptGiftAI/relevance"
)

// ContentRecall 是基于内容的召回源（Content-Based Recommendation）。
//
// 核心思想：查询文本与商品文本在同一向量空间中的余弦相似度。
//   - 查询：rctx.BuildQuery()（普通模式或场景拼装）
//   - 置信度：round(similarity × 100, 1)
//   - Label：TF-IDF 或 Semantic，取决于索引模式
type ContentRecall struct {
	Index    relevance.Index
	Products []core.Product

	// TopK 为 0 时使用 rctx.TopK
	TopK int
}

func (r *ContentRecall) Name() string        { return "recall.content" }
func (r *ContentRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *ContentRecall) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *ContentRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	k := r.TopK
	if k <= 0 && rctx != nil {
		k = rctx.TopK
	}
	if r.Index == nil || k <= 0 {
		return nil, nil
	}

	model := core.ModelContentTFIDF
	if r.Index.Mode() == relevance.ModeSemantic {
		model = core.ModelContentSemantic
	}

	matches := r.Index.TopK(ctx, rctx.BuildQuery(), k)
	out := make([]*core.Item, 0, len(matches))
	for _, m := range matches {
		it := core.NewItem(r.Products[m.Position], m.Position)
		it.Score = m.Similarity
		it.SetFeature(core.FeatureSimilarity, m.Similarity)
		it.Attribute(core.ScoreToConfidence(m.Similarity), model)
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
