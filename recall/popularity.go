package recall

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

// PopularityConfidence 是热门计数策略命中商品的固定置信度。
const PopularityConfidence = 95.0

// Popularity 是热门计数策略：按商品被交互的次数降序推荐。
//   - 次数相同时按首次出现的先后
//   - 无法对应到目录的商品 ID 被跳过，不足 K 个时用随机 Filler 补齐
//   - 交互日志为空时返回随机冷启动结果
type Popularity struct {
	Products []core.Product
	Picker   *Picker
	Logger   zerolog.Logger

	index productIndex
}

// NewPopularity 创建热门计数策略。
func NewPopularity(products []core.Product, picker *Picker, logger zerolog.Logger) *Popularity {
	return &Popularity{
		Products: products,
		Picker:   picker,
		Logger:   logger,
	}
}

func (r *Popularity) Name() string { return "collaborative.popularity" }

func (r *Popularity) Recommend(_ context.Context, interactions []core.Interaction, k int) []*core.Item {
	if k <= 0 {
		return []*core.Item{}
	}
	if len(interactions) == 0 {
		r.Logger.Info().Str("policy", r.Name()).Msg("no interactions, cold start")
		observeFallback(r.Name(), "cold_start")
		return r.Picker.Pick(r.Products, k, core.ModelCollabColdStart, nil)
	}

	ranked := countByProduct(interactions)
	out := make([]*core.Item, 0, k)
	for _, c := range ranked {
		if len(out) == k {
			break
		}
		pos, ok := r.index.lookup(r.Products, c.productID)
		if !ok {
			continue
		}
		it := core.NewItem(r.Products[pos], pos)
		it.Score = float64(c.count)
		it.SetFeature(core.FeaturePopularity, float64(c.count))
		it.Attribute(PopularityConfidence, core.ModelCollabPopularity)
		it.PutLabel("recall_source", utils.Label{Value: "popularity", Source: "recall"})
		out = append(out, it)
	}
	if len(out) < k {
		observeFallback(r.Name(), "filler")
	}
	return r.Picker.pad(r.Products, out, k, core.ModelCollabFiller)
}

type productCount struct {
	productID string
	count     int
	first     int
}

// countByProduct 统计每个商品的交互次数，次数降序，相同按首次出现顺序。
func countByProduct(interactions []core.Interaction) []productCount {
	idx := make(map[string]int)
	var counts []productCount
	for i, in := range interactions {
		if j, ok := idx[in.ProductID]; ok {
			counts[j].count++
			continue
		}
		idx[in.ProductID] = len(counts)
		counts = append(counts, productCount{productID: in.ProductID, count: 1, first: i})
	}
	sort.SliceStable(counts, func(a, b int) bool {
		if counts[a].count != counts[b].count {
			return counts[a].count > counts[b].count
		}
		return counts[a].first < counts[b].first
	})
	return counts
}

// productIndex 在首次查找时建立 product_id → 目录下标映射，并发调用安全。
type productIndex struct {
	once  sync.Once
	byKey map[string]int
}

func (p *productIndex) lookup(products []core.Product, key string) (int, bool) {
	p.once.Do(func() { p.byKey = indexProducts(products) })
	pos, ok := p.byKey[key]
	return pos, ok
}

// indexProducts 建立 product_id 字符串到目录下标的映射；重复 ID 取第一次出现。
func indexProducts(products []core.Product) map[string]int {
	m := make(map[string]int, len(products))
	for i := range products {
		k := strconv.FormatInt(products[i].ID, 10)
		if _, ok := m[k]; !ok {
			m[k] = i
		}
	}
	return m
}
