package model

import "github.com/Jegankumard/OptGiftAI/pkg/vec"

// RankModel 是打分模型的最小抽象：输入商品向量，输出一个可比较的分数。
// 当前实现为本地 LR；向量既可以是 TF-IDF 稀疏向量，也可以是语义稠密向量。
type RankModel interface {
	Name() string
	Predict(x vec.Vector) (float64, error)
}
