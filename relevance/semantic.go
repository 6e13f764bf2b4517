package relevance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/vec"
)

// SemanticIndex 是基于句向量的相关性索引。
// 查询直接编码原始文本；编码失败时所有相似度为 0，不向调用方返回错误。
type SemanticIndex struct {
	embedder Embedder
	vectors  []vec.Vector
	ids      []int64
	timeout  time.Duration
	logger   zerolog.Logger
}

// SemanticOption 配置 SemanticIndex。
type SemanticOption func(*SemanticIndex)

// WithEncodeTimeout 为每次编码设置硬性超时。
func WithEncodeTimeout(d time.Duration) SemanticOption {
	return func(x *SemanticIndex) { x.timeout = d }
}

// WithSemanticLogger 设置日志。
func WithSemanticLogger(l zerolog.Logger) SemanticOption {
	return func(x *SemanticIndex) { x.logger = l }
}

const semanticBatchSize = 64

// NewSemanticIndex 对目录中每个商品编码。构建阶段的编码失败会返回错误。
func NewSemanticIndex(ctx context.Context, products []core.Product, embedder Embedder, opts ...SemanticOption) (*SemanticIndex, error) {
	if embedder == nil {
		return nil, core.NewDomainError(core.ModuleRelevance, core.ErrorCodeInvalidInput, "semantic index requires an embedder")
	}
	x := &SemanticIndex{
		embedder: embedder,
		ids:      productIDs(products),
		timeout:  30 * time.Second,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(x)
	}

	texts := make([]string, len(products))
	for i := range products {
		texts[i] = strings.TrimSpace(products[i].CombinedText())
	}

	x.vectors = make([]vec.Vector, 0, len(texts))
	for start := 0; start < len(texts); start += semanticBatchSize {
		end := start + semanticBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		embs, err := x.encode(ctx, texts[start:end])
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleRelevance, core.ErrorCodeUnavailable,
				fmt.Sprintf("encode products %d-%d", start, end), err)
		}
		if len(embs) != end-start {
			return nil, core.NewDomainError(core.ModuleRelevance, core.ErrorCodeInternalError,
				fmt.Sprintf("embedder returned %d vectors for %d texts", len(embs), end-start))
		}
		for _, e := range embs {
			x.vectors = append(x.vectors, vec.Dense(e))
		}
	}

	x.logger.Info().
		Int("products", len(x.vectors)).
		Str("model", embedder.ModelName()).
		Int("dimension", embedder.Dimension()).
		Msg("semantic index built")
	return x, nil
}

func (x *SemanticIndex) encode(ctx context.Context, texts []string) ([][]float64, error) {
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}
	return x.embedder.Embed(ctx, texts)
}

func (x *SemanticIndex) Mode() Mode            { return ModeSemantic }
func (x *SemanticIndex) Len() int              { return len(x.vectors) }
func (x *SemanticIndex) Vectors() []vec.Vector { return x.vectors }

func (x *SemanticIndex) Similarities(ctx context.Context, query string) []float64 {
	sims := make([]float64, len(x.vectors))
	embs, err := x.encode(ctx, []string{query})
	if err != nil || len(embs) != 1 {
		x.logger.Warn().Err(err).Str("query", query).Msg("query encoding failed, similarities set to zero")
		return sims
	}
	q := vec.Dense(embs[0])
	for i, v := range x.vectors {
		sims[i] = vec.Cosine(q, v)
	}
	return sims
}

func (x *SemanticIndex) Score(ctx context.Context, query string) []Match {
	return Rank(x.Similarities(ctx, query), x.ids)
}

func (x *SemanticIndex) TopK(ctx context.Context, query string, k int) []Match {
	return TopKOf(x.Score(ctx, query), k)
}
