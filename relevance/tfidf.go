package relevance

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Jegankumard/OptGiftAI/pkg/vec"
)

// DefaultMaxFeatures 是词表上限。
const DefaultMaxFeatures = 5000

// TFIDFVectorizer 在已规范化的文本上拟合 TF-IDF：
//   - 词元：空白切分，长度 >= MinTokenLen，去停用词
//   - 词表：按语料总词频取前 MaxFeatures 个，词频相同按字典序
//   - idf = ln((1+n)/(1+df)) + 1
//   - 向量：原始词频 × idf，L2 归一化
type TFIDFVectorizer struct {
	MaxFeatures int
	MinTokenLen int
	Stopwords   map[string]bool

	vocab map[string]int
	terms []string
	idf   []float64
}

// NewTFIDFVectorizer 创建向量器，maxFeatures <= 0 时使用 DefaultMaxFeatures。
func NewTFIDFVectorizer(maxFeatures int, stopwords map[string]bool) *TFIDFVectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TFIDFVectorizer{
		MaxFeatures: maxFeatures,
		MinTokenLen: 2,
		Stopwords:   stopwords,
	}
}

func (v *TFIDFVectorizer) analyze(doc string) []string {
	fields := strings.Fields(doc)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < v.MinTokenLen {
			continue
		}
		if v.Stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Fit 基于语料拟合词表与 idf。
func (v *TFIDFVectorizer) Fit(docs []string) {
	total := make(map[string]int)
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range v.analyze(doc) {
			total[tok]++
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.terms = terms
	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, t := range terms {
		v.vocab[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
}

// Transform 把单个文本映射到已拟合的向量空间，词表外的词被忽略。
func (v *TFIDFVectorizer) Transform(doc string) *vec.Sparse {
	counts := make(map[int]float64)
	for _, tok := range v.analyze(doc) {
		if i, ok := v.vocab[tok]; ok {
			counts[i]++
		}
	}
	var norm float64
	for i, c := range counts {
		w := c * v.idf[i]
		counts[i] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range counts {
			counts[i] /= norm
		}
	}
	return vec.NewSparse(len(v.terms), counts)
}

// FitTransform 拟合并返回语料中每个文本的向量。
func (v *TFIDFVectorizer) FitTransform(docs []string) []*vec.Sparse {
	v.Fit(docs)
	out := make([]*vec.Sparse, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

// Vocabulary 返回按下标排列的词表。
func (v *TFIDFVectorizer) Vocabulary() []string {
	return v.terms
}
