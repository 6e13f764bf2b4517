package core

// UserPreferences 是用户在引导页填写的个性化偏好。
// 启用个性化时 Interests 追加到查询文本；Occasion 是默认场景。
type UserPreferences struct {
	Interests []string `json:"interests"`
	// Priority 是价格/品质偏向（例如 "price"、"quality"），仅展示用
	Priority string `json:"priority,omitempty"`
	Occasion string `json:"occasion,omitempty"`
}

// Apply 把偏好合并进请求上下文：兴趣标签总是追加，Occasion 只在请求未指定时填入。
func (p UserPreferences) Apply(rctx *RecommendContext) {
	if rctx == nil {
		return
	}
	rctx.Interests = append(rctx.Interests, p.Interests...)
	if rctx.Occasion == "" && rctx.Query == "" {
		rctx.Occasion = p.Occasion
	}
}
