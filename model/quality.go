package model

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/vec"
)

// NeutralQuality 是尚未训练成功时每个商品的质量概率。
const NeutralQuality = 0.5

// QualityClassifier 是基于商品向量的二分类质量模型。
//
// 并发模型：单写多读。
//   - 读：PredictQuality / Probability 只读取当前快照，不加锁
//   - 写：Train / RetrainFromPurchases 在互斥锁内训练新模型，完成后原子替换快照
//
// 标签只有一个类别时跳过训练，保留原快照。
type QualityClassifier struct {
	vectors []vec.Vector
	keys    []string
	dim     int
	opts    TrainOptions
	logger  zerolog.Logger

	mu      sync.Mutex
	current atomic.Pointer[qualitySnapshot]
}

type qualitySnapshot struct {
	model   *LRModel
	labels  []int
	probs   []float64
	version int
}

// QualityOption 配置 QualityClassifier。
type QualityOption func(*QualityClassifier)

// WithTrainOptions 设置训练超参数。
func WithTrainOptions(o TrainOptions) QualityOption {
	return func(c *QualityClassifier) { c.opts = o }
}

// WithQualityLogger 设置日志。
func WithQualityLogger(l zerolog.Logger) QualityOption {
	return func(c *QualityClassifier) { c.logger = l }
}

// NewQualityClassifier 创建分类器并用价格中位数标签完成首次训练。
// products 与 vectors 按目录顺序一一对应。
func NewQualityClassifier(products []core.Product, vectors []vec.Vector, opts ...QualityOption) *QualityClassifier {
	c := &QualityClassifier{
		vectors: vectors,
		keys:    make([]string, len(products)),
		logger:  zerolog.Nop(),
	}
	for i := range products {
		c.keys[i] = products[i].Key()
	}
	for _, v := range vectors {
		if v != nil && v.Dim() > c.dim {
			c.dim = v.Dim()
		}
	}
	for _, opt := range opts {
		opt(c)
	}

	neutral := make([]float64, len(vectors))
	for i := range neutral {
		neutral[i] = NeutralQuality
	}
	c.current.Store(&qualitySnapshot{probs: neutral})

	c.Train(PriceLabels(products))
	return c
}

// PriceLabels 生成初始标签：价格高于中位数为 1，否则为 0。
// 若全部为同一类别，翻转第 0 个商品的标签以保证可训练。
func PriceLabels(products []core.Product) []int {
	labels := make([]int, len(products))
	if len(products) == 0 {
		return labels
	}
	median := medianPrice(products)
	for i := range products {
		if products[i].Price > median {
			labels[i] = 1
		}
	}
	if distinct(labels) < 2 {
		labels[0] = 1 - labels[0]
	}
	return labels
}

func medianPrice(products []core.Product) float64 {
	prices := make([]float64, len(products))
	for i := range products {
		prices[i] = products[i].Price
	}
	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid]
	}
	return (prices[mid-1] + prices[mid]) / 2
}

func distinct(labels []int) int {
	seen := make(map[int]struct{}, 2)
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}

// Train 用给定标签重新训练。标签数量不匹配或不足两个类别时返回 false，模型保持不变。
func (c *QualityClassifier) Train(labels []int) bool {
	if len(labels) != len(c.vectors) || len(labels) == 0 {
		c.logger.Warn().Int("labels", len(labels)).Int("products", len(c.vectors)).Msg("label count mismatch, training skipped")
		return false
	}
	if distinct(labels) < 2 {
		c.logger.Info().Msg("single-class labels, training skipped")
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := FitLR(c.vectors, labels, c.dim, c.opts)
	if err != nil {
		c.logger.Warn().Err(err).Msg("classifier fit failed, previous model retained")
		return false
	}
	probs := make([]float64, len(c.vectors))
	for i, v := range c.vectors {
		p, err := m.Predict(v)
		if err != nil {
			return false
		}
		probs[i] = p
	}
	prev := c.current.Load()
	owned := make([]int, len(labels))
	copy(owned, labels)
	c.current.Store(&qualitySnapshot{
		model:   m,
		labels:  owned,
		probs:   probs,
		version: prev.version + 1,
	})
	c.logger.Debug().Int("version", prev.version+1).Msg("quality classifier trained")
	return true
}

// Install 用外部加载的模型（如上次重训保存的文件）替换当前快照。
// 权重维度必须与当前目录向量一致，否则返回错误并保留原快照。
func (c *QualityClassifier) Install(m *LRModel) error {
	if m == nil {
		return fmt.Errorf("install quality model: nil model")
	}
	if len(m.Weights) != c.dim {
		return fmt.Errorf("install quality model: %d weights, catalog dimension %d", len(m.Weights), c.dim)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	probs := make([]float64, len(c.vectors))
	for i, v := range c.vectors {
		p, err := m.Predict(v)
		if err != nil {
			return err
		}
		probs[i] = p
	}
	prev := c.current.Load()
	c.current.Store(&qualitySnapshot{
		model:   m,
		probs:   probs,
		version: prev.version + 1,
	})
	c.logger.Debug().Int("version", prev.version+1).Msg("quality model installed")
	return nil
}

// PurchaseLabels 由购买记录生成标签：商品 ID 出现在 purchase 事件中为 1，否则为 0。
func (c *QualityClassifier) PurchaseLabels(interactions []core.Interaction) []int {
	purchased := make(map[string]struct{})
	for _, in := range interactions {
		if in.Action == core.ActionPurchase {
			purchased[in.ProductID] = struct{}{}
		}
	}
	labels := make([]int, len(c.keys))
	for i, k := range c.keys {
		if _, ok := purchased[k]; ok {
			labels[i] = 1
		}
	}
	return labels
}

// RetrainFromPurchases 以"是否被购买"为标签重训；仅当两个类别都存在时替换模型。
func (c *QualityClassifier) RetrainFromPurchases(interactions []core.Interaction) bool {
	return c.Train(c.PurchaseLabels(interactions))
}

// PredictQuality 返回每个商品属于正类的概率（按目录顺序的副本）。
func (c *QualityClassifier) PredictQuality() []float64 {
	snap := c.current.Load()
	out := make([]float64, len(snap.probs))
	copy(out, snap.probs)
	return out
}

// Probability 返回单个商品的正类概率。
func (c *QualityClassifier) Probability(position int) float64 {
	snap := c.current.Load()
	if position < 0 || position >= len(snap.probs) {
		return NeutralQuality
	}
	return snap.probs[position]
}

// Trained 表示是否至少成功训练过一次。
func (c *QualityClassifier) Trained() bool {
	return c.current.Load().model != nil
}

// Version 返回当前快照版本，每次成功训练加一。
func (c *QualityClassifier) Version() int {
	return c.current.Load().version
}

// Model 返回当前模型（只读，可能为 nil）。
func (c *QualityClassifier) Model() *LRModel {
	return c.current.Load().model
}
