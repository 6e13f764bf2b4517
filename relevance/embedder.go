package relevance

import (
	"context"

	"github.com/cespare/xxhash/v2"

	"github.com/Jegankumard/OptGiftAI/pkg/vec"
	"github.com/Jegankumard/OptGiftAI/textproc"
)

// Embedder 是句向量模型的抽象：把文本编码为固定长度的稠密向量。
// 实现必须是确定性的（同一文本总得到同一向量），模型在运行期间冻结。
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
	ModelName() string
}

// DefaultHashingDimension 与常见 MiniLM 句向量维度一致。
const DefaultHashingDimension = 384

// HashingEmbedder 是离线可用的确定性嵌入：词 + 字符三元组做带符号特征哈希，再 L2 归一化。
// 字符三元组让拼写相近的词（gift / gifts / gifting）在空间中相互靠近。
type HashingEmbedder struct {
	dim        int
	normalizer *textproc.Normalizer
}

// NewHashingEmbedder 创建哈希嵌入，dim <= 0 时使用 DefaultHashingDimension。
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultHashingDimension
	}
	return &HashingEmbedder{dim: dim, normalizer: textproc.New()}
}

func (e *HashingEmbedder) Dimension() int    { return e.dim }
func (e *HashingEmbedder) ModelName() string { return "hashing-trigram" }

func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashingEmbedder) embedOne(text string) []float64 {
	v := make(vec.Dense, e.dim)
	for _, tok := range e.normalizer.Tokens(text) {
		e.add(v, "w:"+tok, 1.0)
		padded := "^" + tok + "$"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			e.add(v, "c:"+string(runes[i:i+3]), 0.5)
		}
	}
	return vec.Normalize(v)
}

func (e *HashingEmbedder) add(v vec.Dense, feature string, weight float64) {
	h := xxhash.Sum64String(feature)
	idx := int(h % uint64(e.dim))
	if h&(1<<63) != 0 {
		weight = -weight
	}
	v[idx] += weight
}
