package core

import (
	"strings"
	"time"
)

// Action 是交互事件类型。未知取值按原样透传，由各消费方自行决定语义。
type Action string

const (
	ActionLike     Action = "like"
	ActionDislike  Action = "dislike"
	ActionPurchase Action = "purchase"
	ActionView     Action = "view"
	ActionCart     Action = "cart"
)

// ParseAction 规范化大小写与首尾空白，不做合法性校验。
func ParseAction(s string) Action {
	return Action(strings.ToLower(strings.TrimSpace(s)))
}

// Interaction 是只追加的交互日志记录。
type Interaction struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Action    Action    `json:"action_type"`
	Rating    *int      `json:"rating,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewInteraction 创建一条带当前时间戳的交互记录。
func NewInteraction(userID, productID string, action Action) Interaction {
	return Interaction{
		UserID:    userID,
		ProductID: productID,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}
