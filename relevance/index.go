// Package relevance 为商品目录构建向量表示，并计算查询与商品之间的余弦相似度。
//
// 两种模式共用同一个 Index 接口，在构造时选定：
//   - lexical：TF-IDF 稀疏向量，基于整个目录拟合词表
//   - semantic：冻结的句向量模型（Embedder）生成稠密向量，无需按语料拟合
//
// 每个商品恰好一个向量，下标与目录位置一一对应；构建完成后索引只读，可并发查询。
package relevance

import (
	"context"
	"sort"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/vec"
)

// Mode 是向量空间类型。
type Mode string

const (
	ModeLexical  Mode = "lexical"
	ModeSemantic Mode = "semantic"
)

// Match 是一条查询命中：目录下标与相似度。
type Match struct {
	Position   int
	Similarity float64
}

// Index 是相关性索引的统一契约。
type Index interface {
	// Mode 返回向量空间类型
	Mode() Mode
	// Len 返回商品数量
	Len() int
	// Vectors 返回按目录顺序排列的商品向量（只读）
	Vectors() []vec.Vector
	// Similarities 返回查询与每个商品的相似度，按目录顺序
	Similarities(ctx context.Context, query string) []float64
	// Score 返回全部商品，按相似度降序
	Score(ctx context.Context, query string) []Match
	// TopK 返回前 min(k, Len) 个商品；k <= 0 返回空
	TopK(ctx context.Context, query string, k int) []Match
}

// Rank 把按目录顺序的相似度排成降序列表。
// 相似度相同时按商品 ID 升序，ID 也相同时按目录下标升序。
func Rank(sims []float64, ids []int64) []Match {
	out := make([]Match, len(sims))
	for i, s := range sims {
		out[i] = Match{Position: i, Similarity: s}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Similarity != out[b].Similarity {
			return out[a].Similarity > out[b].Similarity
		}
		ia, ib := idAt(ids, out[a].Position), idAt(ids, out[b].Position)
		if ia != ib {
			return ia < ib
		}
		return out[a].Position < out[b].Position
	})
	return out
}

// TopKOf 截取排序结果的前 k 个。
func TopKOf(ranked []Match, k int) []Match {
	if k <= 0 {
		return []Match{}
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

func idAt(ids []int64, pos int) int64 {
	if pos < len(ids) {
		return ids[pos]
	}
	return int64(pos)
}

func productIDs(products []core.Product) []int64 {
	ids := make([]int64, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	return ids
}
