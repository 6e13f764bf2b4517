package vec

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{
			name: "identical sparse",
			a:    NewSparse(4, map[int]float64{0: 1, 2: 2}),
			b:    NewSparse(4, map[int]float64{0: 1, 2: 2}),
			want: 1,
		},
		{
			name: "orthogonal sparse",
			a:    NewSparse(4, map[int]float64{0: 1}),
			b:    NewSparse(4, map[int]float64{1: 1}),
			want: 0,
		},
		{
			name: "zero vector",
			a:    NewSparse(4, map[int]float64{}),
			b:    NewSparse(4, map[int]float64{1: 1}),
			want: 0,
		},
		{
			name: "dense opposite",
			a:    Dense{1, 0},
			b:    Dense{-1, 0},
			want: -1,
		},
		{
			name: "sparse against dense",
			a:    NewSparse(2, map[int]float64{0: 3, 1: 4}),
			b:    Dense{3, 4},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSparse_DropsZerosAndSorts(t *testing.T) {
	s := NewSparse(10, map[int]float64{7: 1, 2: 0, 3: 5})
	if len(s.Indices) != 2 || s.Indices[0] != 3 || s.Indices[1] != 7 {
		t.Fatalf("Indices = %v, want [3 7]", s.Indices)
	}
	if got := s.Dot([]float64{0, 0, 0, 2, 0, 0, 0, 1}); got != 11 {
		t.Errorf("Dot() = %v, want 11", got)
	}
}
