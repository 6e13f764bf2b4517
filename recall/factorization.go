package recall

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

const (
	DefaultMinInteractions = 5
	DefaultMaxRank         = 10

	// 趋势分线性映射后的置信度区间；所有趋势分相同时取中点。
	factorizationMinConfidence  = 60.0
	factorizationMaxConfidence  = 95.0
	factorizationFlatConfidence = 75.0
)

// ActionWeights 是构建用户 × 商品评分矩阵时每种交互的权重。
type ActionWeights struct {
	Purchase float64 `koanf:"purchase" json:"purchase"`
	Like     float64 `koanf:"like" json:"like"`
	Dislike  float64 `koanf:"dislike" json:"dislike"`
	Other    float64 `koanf:"other" json:"other"`
}

// DefaultActionWeights：purchase=5，like=3，其余（包括 dislike）=1。
func DefaultActionWeights() ActionWeights {
	return ActionWeights{Purchase: 5, Like: 3, Dislike: 1, Other: 1}
}

// Weight 返回某种交互的权重。
func (w ActionWeights) Weight(a core.Action) float64 {
	switch a {
	case core.ActionPurchase:
		return w.Purchase
	case core.ActionLike:
		return w.Like
	case core.ActionDislike:
		return w.Dislike
	default:
		return w.Other
	}
}

// Factorization 是矩阵分解策略。
//
// 流程：
//  1. 交互数 < MinInteractions：随机冷启动
//  2. 构建用户 × 商品矩阵，单元格为该用户对该商品所有交互的权重之和
//  3. 截断 SVD，秩 = min(MaxRank, 商品数 − 1)，重构矩阵
//  4. 按列求均值得到全局趋势分（不针对请求用户个性化）
//  5. 趋势分降序，映射回目录商品，置信度线性缩放到 [60, 95]
//
// 秩小于 1 或分解失败时回退为随机 "Fallback Popularity"。
type Factorization struct {
	Products        []core.Product
	Picker          *Picker
	Weights         ActionWeights
	MinInteractions int
	MaxRank         int
	Logger          zerolog.Logger

	index productIndex
}

// NewFactorization 使用默认权重与阈值创建矩阵分解策略。
func NewFactorization(products []core.Product, picker *Picker, logger zerolog.Logger) *Factorization {
	return &Factorization{
		Products:        products,
		Picker:          picker,
		Weights:         DefaultActionWeights(),
		MinInteractions: DefaultMinInteractions,
		MaxRank:         DefaultMaxRank,
		Logger:          logger,
	}
}

func (r *Factorization) Name() string { return "collaborative.factorization" }

func (r *Factorization) Recommend(_ context.Context, interactions []core.Interaction, k int) []*core.Item {
	if k <= 0 {
		return []*core.Item{}
	}
	minInteractions := r.MinInteractions
	if minInteractions <= 0 {
		minInteractions = DefaultMinInteractions
	}
	if len(interactions) < minInteractions {
		r.Logger.Info().
			Int("interactions", len(interactions)).
			Int("required", minInteractions).
			Msg("not enough interactions for factorization, cold start")
		observeFallback(r.Name(), "cold_start")
		return r.Picker.Pick(r.Products, k, core.ModelCollabColdStart, nil)
	}

	columns, trend, err := r.trendScores(interactions)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("factorization failed, falling back to random picks")
		observeFallback(r.Name(), "numeric")
		return r.Picker.Pick(r.Products, k, core.ModelCollabFallback, nil)
	}

	order := make([]int, len(columns))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return trend[order[a]] > trend[order[b]] })

	lo, hi := minMax(trend)
	out := make([]*core.Item, 0, k)
	for _, j := range order {
		if len(out) == k {
			break
		}
		pos, ok := r.index.lookup(r.Products, columns[j])
		if !ok {
			continue
		}
		it := core.NewItem(r.Products[pos], pos)
		it.Score = trend[j]
		it.SetFeature(core.FeatureTrend, trend[j])
		it.Attribute(rescaleConfidence(trend[j], lo, hi), core.ModelCollabFactorization)
		it.PutLabel("recall_source", utils.Label{Value: "factorization", Source: "recall"})
		out = append(out, it)
	}
	if len(out) < k {
		observeFallback(r.Name(), "filler")
	}
	return r.Picker.pad(r.Products, out, k, core.ModelCollabFiller)
}

// trendScores 返回矩阵列（商品 ID，按首次出现顺序）与每列重构后的均值。
func (r *Factorization) trendScores(interactions []core.Interaction) (columns []string, trend []float64, err error) {
	users := make(map[string]int)
	cols := make(map[string]int)
	for _, in := range interactions {
		if _, ok := users[in.UserID]; !ok {
			users[in.UserID] = len(users)
		}
		if _, ok := cols[in.ProductID]; !ok {
			cols[in.ProductID] = len(columns)
			columns = append(columns, in.ProductID)
		}
	}

	maxRank := r.MaxRank
	if maxRank <= 0 {
		maxRank = DefaultMaxRank
	}
	rank := min(maxRank, len(columns)-1)
	if rank < 1 {
		return nil, nil, fmt.Errorf("factorization rank %d with %d products", rank, len(columns))
	}

	ratings := mat.NewDense(len(users), len(columns), nil)
	for _, in := range interactions {
		i, j := users[in.UserID], cols[in.ProductID]
		ratings.Set(i, j, ratings.At(i, j)+r.Weights.Weight(in.Action))
	}

	trend, err = reconstructColumnMeans(ratings, rank)
	if err != nil {
		return nil, nil, err
	}
	return columns, trend, nil
}

// reconstructColumnMeans 用前 rank 个奇异值重构矩阵并返回每列均值。
func reconstructColumnMeans(a *mat.Dense, rank int) (means []float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("svd panic: %v", p)
		}
	}()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd factorization did not converge")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)
	rank = min(rank, len(values))

	rows, cols := a.Dims()
	means = make([]float64, cols)
	// 列均值 = Σ_k (mean_i U[i,k]) · s_k · V[j,k]
	for k := 0; k < rank; k++ {
		var uMean float64
		for i := 0; i < rows; i++ {
			uMean += u.At(i, k)
		}
		uMean /= float64(rows)
		for j := 0; j < cols; j++ {
			means[j] += uMean * values[k] * v.At(j, k)
		}
	}
	for j, m := range means {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, fmt.Errorf("non-finite trend score at column %d", j)
		}
	}
	return means, nil
}

func minMax(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// rescaleConfidence 把趋势分线性映射到 [60, 95]，保留一位小数。
func rescaleConfidence(x, lo, hi float64) float64 {
	if hi-lo <= 1e-12 {
		return factorizationFlatConfidence
	}
	c := factorizationMinConfidence + (x-lo)/(hi-lo)*(factorizationMaxConfidence-factorizationMinConfidence)
	return math.Round(c*10) / 10
}
