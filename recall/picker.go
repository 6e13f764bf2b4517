package recall

import (
	"math/rand/v2"
	"sync"

	"github.com/Jegankumard/OptGiftAI/core"
)

// RandomConfidence 是冷启动 / 填充 / 回退随机结果的固定置信度。
const RandomConfidence = 50.0

// Picker 是可注入种子的随机采样器，并发安全。
// 冷启动、填充、数值失败回退都通过它取随机商品，测试可固定种子复现。
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker 用固定种子创建采样器。
func NewPicker(seed uint64) *Picker {
	return NewPickerFrom(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewPickerFrom 用外部随机源创建采样器。
func NewPickerFrom(src rand.Source) *Picker {
	return &Picker{rng: rand.New(src)}
}

// Sample 从 [0,n) 中无放回地取至多 k 个下标，跳过 skip 返回 true 的下标。
func (p *Picker) Sample(n, k int, skip func(int) bool) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	p.mu.Lock()
	perm := p.rng.Perm(n)
	p.mu.Unlock()

	out := make([]int, 0, min(k, n))
	for _, i := range perm {
		if len(out) == k {
			break
		}
		if skip != nil && skip(i) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Pick 随机选取至多 k 个未被排除的商品，置信度固定为 50，并打上 model 标签。
func (p *Picker) Pick(products []core.Product, k int, model string, exclude map[int64]struct{}) []*core.Item {
	idx := p.Sample(len(products), k, func(i int) bool {
		_, ok := exclude[products[i].ID]
		return ok
	})
	out := make([]*core.Item, 0, len(idx))
	for _, i := range idx {
		it := core.NewItem(products[i], i)
		it.Attribute(RandomConfidence, model)
		out = append(out, it)
	}
	return out
}

// pad 用随机商品把 items 补齐到 k 个，排除已入选的商品。
func (p *Picker) pad(products []core.Product, items []*core.Item, k int, model string) []*core.Item {
	if len(items) >= k {
		return items
	}
	chosen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		chosen[it.ID] = struct{}{}
	}
	return append(items, p.Pick(products, k-len(items), model, chosen)...)
}
