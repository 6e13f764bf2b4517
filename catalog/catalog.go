// Package catalog 加载并索引商品目录。
//
// 目录在进程生命周期内只读：加载时一次性补齐缺失字段，之后所有组件按下标共享同一份切片。
package catalog

import (
	"strconv"
	"strings"

	"github.com/Jegankumard/OptGiftAI/core"
)

// 加载时的字段默认值。
const (
	DefaultTitle    = "Unknown Product"
	DefaultCategory = "General"
	DefaultVendor   = "Meevyy"
)

// DefaultPros 是目录数据缺失 pros 时的展示文案。
func DefaultPros() []string {
	return []string{"Good quality", "Value for money"}
}

// Catalog 是只读的商品目录，保持加载顺序。
type Catalog struct {
	products []core.Product
	byID     map[int64]int
}

// New 以给定顺序建立目录；重复 ID 时 ByID 返回第一次出现的商品。
func New(products []core.Product) *Catalog {
	c := &Catalog{
		products: products,
		byID:     make(map[int64]int, len(products)),
	}
	for i := range products {
		if _, ok := c.byID[products[i].ID]; !ok {
			c.byID[products[i].ID] = i
		}
	}
	return c
}

// Products 返回目录切片，调用方不得修改。
func (c *Catalog) Products() []core.Product { return c.products }

func (c *Catalog) Len() int { return len(c.products) }

// ByID 按商品 ID 查找。
func (c *Catalog) ByID(id int64) (core.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return core.Product{}, false
	}
	return c.products[i], true
}

// Position 返回商品在目录中的下标。
func (c *Catalog) Position(id int64) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// Lookup 按持久化的字符串 ID 查找（交互日志中的 product_id）。
func (c *Catalog) Lookup(id string) (core.Product, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return core.Product{}, false
	}
	return c.ByID(n)
}

// Replacement 返回目录顺序中第一个不在 exclude 里的商品，用于替换被移除的推荐卡片。
func (c *Catalog) Replacement(exclude []int64) (core.Product, bool) {
	skip := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	for _, p := range c.products {
		if _, ok := skip[p.ID]; !ok {
			return p, true
		}
	}
	return core.Product{}, false
}

// Items 按目录顺序返回 ids 中存在的商品；未知 ID 被忽略。
func (c *Catalog) Items(ids []int64) []core.Product {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]core.Product, 0, len(ids))
	for _, p := range c.products {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Total 返回 ids 对应商品的价格合计（购物车总价）。
func (c *Catalog) Total(ids []int64) float64 {
	var total float64
	for _, p := range c.Items(ids) {
		total += p.Price
	}
	return total
}

// applyDefaults 补齐缺失字段。
func applyDefaults(p *core.Product) {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = DefaultTitle
	}
	if strings.TrimSpace(p.Category) == "" {
		p.Category = DefaultCategory
	}
	if p.Vendor == "" {
		p.Vendor = DefaultVendor
	}
	if p.Pros == nil {
		p.Pros = DefaultPros()
	}
	if p.Cons == nil {
		p.Cons = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
