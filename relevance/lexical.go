package relevance

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/vec"
	"github.com/Jegankumard/OptGiftAI/textproc"
)

// LexicalIndex 是基于 TF-IDF 的相关性索引。
// 商品文本与查询都经过同一个 Normalizer。
type LexicalIndex struct {
	normalizer *textproc.Normalizer
	vectorizer *TFIDFVectorizer
	vectors    []vec.Vector
	ids        []int64
}

// LexicalOption 配置 LexicalIndex。
type LexicalOption func(*lexicalOptions)

type lexicalOptions struct {
	maxFeatures int
	normalizer  *textproc.Normalizer
	stopwords   map[string]bool
}

// WithMaxFeatures 设置词表上限。
func WithMaxFeatures(n int) LexicalOption {
	return func(o *lexicalOptions) { o.maxFeatures = n }
}

// WithNormalizer 替换文本规范化器。
func WithNormalizer(n *textproc.Normalizer) LexicalOption {
	return func(o *lexicalOptions) { o.normalizer = n }
}

// WithStopwords 替换停用词表。
func WithStopwords(sw map[string]bool) LexicalOption {
	return func(o *lexicalOptions) { o.stopwords = sw }
}

// NewLexicalIndex 基于完整目录拟合 TF-IDF 并为每个商品生成向量。
func NewLexicalIndex(products []core.Product, opts ...LexicalOption) *LexicalIndex {
	o := lexicalOptions{maxFeatures: DefaultMaxFeatures}
	for _, opt := range opts {
		opt(&o)
	}
	if o.normalizer == nil {
		o.normalizer = textproc.New()
	}
	if o.stopwords == nil {
		o.stopwords = textproc.EnglishStopwords()
	}

	docs := make([]string, len(products))
	for i := range products {
		docs[i] = o.normalizer.Normalize(products[i].CombinedText())
	}
	vz := NewTFIDFVectorizer(o.maxFeatures, o.stopwords)
	sparse := vz.FitTransform(docs)

	vectors := make([]vec.Vector, len(sparse))
	for i, s := range sparse {
		vectors[i] = s
	}
	return &LexicalIndex{
		normalizer: o.normalizer,
		vectorizer: vz,
		vectors:    vectors,
		ids:        productIDs(products),
	}
}

func (x *LexicalIndex) Mode() Mode              { return ModeLexical }
func (x *LexicalIndex) Len() int                { return len(x.vectors) }
func (x *LexicalIndex) Vectors() []vec.Vector   { return x.vectors }
func (x *LexicalIndex) Vocabulary() []string    { return x.vectorizer.Vocabulary() }

func (x *LexicalIndex) Similarities(_ context.Context, query string) []float64 {
	q := x.vectorizer.Transform(x.normalizer.Normalize(query))
	sims := make([]float64, len(x.vectors))
	for i, v := range x.vectors {
		sims[i] = vec.Cosine(q, v)
	}
	return sims
}

func (x *LexicalIndex) Score(ctx context.Context, query string) []Match {
	return Rank(x.Similarities(ctx, query), x.ids)
}

func (x *LexicalIndex) TopK(ctx context.Context, query string, k int) []Match {
	return TopKOf(x.Score(ctx, query), k)
}
