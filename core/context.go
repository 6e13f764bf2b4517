package core

import (
	"strings"

	"github.com/Jegankumard/OptGiftAI/pkg/utils"
)

// DefaultQuery 是所有上下文字段都为空时使用的查询。
const DefaultQuery = "general gifts"

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string

	// Query 是自由文本查询（普通模式）；为空时由场景字段拼装（高级模式）
	Query string

	// 场景字段（高级模式）
	Occasion     string
	Relationship string
	Likes        string
	Comments     string

	// Interests 是个性化兴趣标签，启用个性化时追加到查询
	Interests []string

	// TopK 是本次请求的返回条数（页大小），<= 0 时由引擎使用默认值
	TopK int

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 exclude_ids、expr（CEL 过滤表达式）
	Params map[string]any
}

// BuildQuery 按请求字段拼装检索文本。
//   - 普通模式：Query + 兴趣标签
//   - 高级模式：occasion / "for <relationship>" / "loves <likes>" / comments / "interests: ..."
//
// 全部为空时返回 DefaultQuery。
func (rctx *RecommendContext) BuildQuery() string {
	if rctx == nil {
		return DefaultQuery
	}
	interests := strings.TrimSpace(strings.Join(rctx.Interests, " "))

	if q := strings.TrimSpace(rctx.Query); q != "" {
		return strings.TrimSpace(q + " " + interests)
	}

	parts := make([]string, 0, 5)
	if rctx.Occasion != "" {
		parts = append(parts, rctx.Occasion)
	}
	if rctx.Relationship != "" {
		parts = append(parts, "for "+rctx.Relationship)
	}
	if rctx.Likes != "" {
		parts = append(parts, "loves "+rctx.Likes)
	}
	if rctx.Comments != "" {
		parts = append(parts, rctx.Comments)
	}
	if interests != "" {
		parts = append(parts, "interests: "+interests)
	}
	if len(parts) == 0 {
		return DefaultQuery
	}
	return strings.Join(parts, " ")
}

// Param 读取请求参数。
func (rctx *RecommendContext) Param(key string) (any, bool) {
	if rctx == nil || rctx.Params == nil {
		return nil, false
	}
	v, ok := rctx.Params[key]
	return v, ok
}

// Clone 返回深拷贝：切片与 map 都是新的，对副本的写入不影响原请求。
func (rctx *RecommendContext) Clone() *RecommendContext {
	if rctx == nil {
		return &RecommendContext{}
	}
	out := *rctx
	if rctx.Interests != nil {
		out.Interests = append([]string(nil), rctx.Interests...)
	}
	if rctx.Labels != nil {
		out.Labels = make(map[string]utils.Label, len(rctx.Labels))
		for k, v := range rctx.Labels {
			out.Labels[k] = v
		}
	}
	if rctx.Params != nil {
		out.Params = make(map[string]any, len(rctx.Params))
		for k, v := range rctx.Params {
			out.Params[k] = v
		}
	}
	return &out
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
