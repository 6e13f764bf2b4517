package core

import (
	"strconv"
	"strings"
)

// Product 是商品目录中的一条不可变记录。
// 目录在启动时一次性加载，引擎只读取 Product，输出时生成打分副本（Item）。
type Product struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Link        string   `json:"link,omitempty"`
	Vendor      string   `json:"vendor,omitempty"`
	Pros        []string `json:"pros,omitempty"`
	Cons        []string `json:"cons,omitempty"`
}

// Key 返回商品 ID 的字符串形式，与交互日志中的 product_id 对齐。
func (p *Product) Key() string {
	return strconv.FormatInt(p.ID, 10)
}

// CombinedText 拼接 title + description + tags，作为向量化的原始文本。
func (p *Product) CombinedText() string {
	var b strings.Builder
	b.WriteString(p.Title)
	b.WriteByte(' ')
	b.WriteString(p.Description)
	b.WriteByte(' ')
	b.WriteString(strings.Join(p.Tags, " "))
	return b.String()
}

// TitleAndTags 用于语义融合中的场景/关系匹配（仅 title + tags）。
func (p *Product) TitleAndTags() string {
	return p.Title + " " + strings.Join(p.Tags, " ")
}

// Clone 深拷贝切片字段，保证打分副本不会与目录共享底层数组。
func (p Product) Clone() Product {
	p.Tags = cloneStrings(p.Tags)
	p.Pros = cloneStrings(p.Pros)
	p.Cons = cloneStrings(p.Cons)
	return p
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Mentions 判断 term 是否（忽略大小写）出现在 CombinedText 中，空 term 返回 false。
func (p *Product) Mentions(term string) bool {
	return containsFold(p.CombinedText(), term)
}

// TitleOrTagsMention 与 Mentions 相同，但只在 title + tags 中查找。
func (p *Product) TitleOrTagsMention(term string) bool {
	return containsFold(p.TitleAndTags(), term)
}

func containsFold(text, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}
