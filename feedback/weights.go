// Package feedback 处理用户对推荐结果的反馈：调整用户权重并写入交互日志。
package feedback

import (
	"math"

	"github.com/Jegankumard/OptGiftAI/core"
)

const (
	// LearningRate 是每次反馈的固定步长 α
	LearningRate = 0.05

	// ExpensiveThreshold 以上价格的正反馈会降低价格权重
	ExpensiveThreshold = 1000.0

	minPriceWeight     = 0.1
	minRelevanceWeight = 0.1
	maxRelevanceWeight = 1.0
	minNoveltyWeight   = 0.0
	maxNoveltyWeight   = 0.5
)

// Update 根据一次反馈返回新的权重，纯函数。
//   - like / purchase：relevance +α（≤1），novelty −α（≥0），价格 > 1000 时 price −α（≥0.1）
//   - dislike：relevance −α（≥0.1），novelty +α（≤0.5）
//   - 其他动作原样返回
func Update(w core.UserWeights, action core.Action, price float64) core.UserWeights {
	switch action {
	case core.ActionLike, core.ActionPurchase:
		w.RelevanceWeight = math.Min(maxRelevanceWeight, w.RelevanceWeight+LearningRate)
		w.NoveltyWeight = math.Max(minNoveltyWeight, w.NoveltyWeight-LearningRate)
		if price > ExpensiveThreshold {
			w.PriceWeight = math.Max(minPriceWeight, w.PriceWeight-LearningRate)
		}
	case core.ActionDislike:
		w.RelevanceWeight = math.Max(minRelevanceWeight, w.RelevanceWeight-LearningRate)
		w.NoveltyWeight = math.Min(maxNoveltyWeight, w.NoveltyWeight+LearningRate)
	}
	return w
}
