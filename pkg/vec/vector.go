// Package vec 提供相关性索引与质量模型共用的稀疏/稠密向量。
package vec

import (
	"math"
	"sort"
)

// Vector 是只读向量抽象，稀疏（TF-IDF）与稠密（语义嵌入）共用。
type Vector interface {
	// Dim 返回向量空间维度
	Dim() int
	// Dot 与稠密权重做点积（长度不足的部分视为 0）
	Dot(dense []float64) float64
	// ForEach 遍历非零分量
	ForEach(fn func(i int, v float64))
	// Norm 返回 L2 范数
	Norm() float64
}

// Sparse 是按下标升序存储的稀疏向量。
type Sparse struct {
	Size    int
	Indices []int
	Values  []float64
}

// NewSparse 由 map 构建稀疏向量，下标升序，零值被丢弃。
func NewSparse(size int, m map[int]float64) *Sparse {
	idx := make([]int, 0, len(m))
	for i, v := range m {
		if v != 0 {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = m[i]
	}
	return &Sparse{Size: size, Indices: idx, Values: vals}
}

func (s *Sparse) Dim() int { return s.Size }

func (s *Sparse) Dot(dense []float64) float64 {
	var sum float64
	for k, i := range s.Indices {
		if i < len(dense) {
			sum += s.Values[k] * dense[i]
		}
	}
	return sum
}

func (s *Sparse) ForEach(fn func(i int, v float64)) {
	for k, i := range s.Indices {
		fn(i, s.Values[k])
	}
}

func (s *Sparse) Norm() float64 {
	var sum float64
	for _, v := range s.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Dense 是稠密向量。
type Dense []float64

func (d Dense) Dim() int { return len(d) }

func (d Dense) Dot(dense []float64) float64 {
	n := len(d)
	if len(dense) < n {
		n = len(dense)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += d[i] * dense[i]
	}
	return sum
}

func (d Dense) ForEach(fn func(i int, v float64)) {
	for i, v := range d {
		if v != 0 {
			fn(i, v)
		}
	}
}

func (d Dense) Norm() float64 {
	var sum float64
	for _, v := range d {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Cosine 计算余弦相似度；任一向量为零向量时返回 0。
func Cosine(a, b Vector) float64 {
	if a == nil || b == nil {
		return 0
	}
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}

func dot(a, b Vector) float64 {
	switch x := a.(type) {
	case *Sparse:
		if y, ok := b.(*Sparse); ok {
			return sparseDot(x, y)
		}
		if y, ok := b.(Dense); ok {
			return x.Dot(y)
		}
	case Dense:
		if y, ok := b.(Dense); ok {
			return x.Dot(y)
		}
		if y, ok := b.(*Sparse); ok {
			return y.Dot(x)
		}
	}
	m := make(map[int]float64)
	a.ForEach(func(i int, v float64) { m[i] = v })
	var sum float64
	b.ForEach(func(i int, v float64) { sum += m[i] * v })
	return sum
}

// sparseDot 对两个下标升序的稀疏向量做归并点积
func sparseDot(a, b *Sparse) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Normalize 返回 L2 归一化后的稠密向量副本；零向量原样返回。
func Normalize(d Dense) Dense {
	n := d.Norm()
	out := make(Dense, len(d))
	if n == 0 {
		copy(out, d)
		return out
	}
	for i, v := range d {
		out[i] = v / n
	}
	return out
}
