package model

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/Jegankumard/OptGiftAI/pkg/vec"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 二分类模型。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 输出 P 是正类概率，范围在 (0, 1) 之间。
type LRModel struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// TrainOptions 是训练超参数。
type TrainOptions struct {
	// C 是正则化强度的倒数（L2），默认 1.0
	C float64
	// MaxIter 是全量梯度下降的迭代次数，默认 300
	MaxIter int
	// LearningRate 是步长，默认 1.0（输入向量已 L2 归一化）
	LearningRate float64
	// Tol 是梯度范数的收敛阈值，默认 1e-6
	Tol float64
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.C <= 0 {
		o.C = 1.0
	}
	if o.MaxIter <= 0 {
		o.MaxIter = 300
	}
	if o.LearningRate <= 0 {
		o.LearningRate = 1.0
	}
	if o.Tol <= 0 {
		o.Tol = 1e-6
	}
	return o
}

func (m *LRModel) Name() string { return "lr" }

func (m *LRModel) Predict(x vec.Vector) (float64, error) {
	if m == nil {
		return 0, fmt.Errorf("lr model is nil")
	}
	return sigmoid(m.Bias + x.Dot(m.Weights)), nil
}

// FitLR 以全量梯度下降训练 L2 正则的逻辑回归，结果确定。
// 目标：mean(logloss) + ||w||² / (2·C·n)，偏置不参与正则。
func FitLR(X []vec.Vector, y []int, dim int, opts TrainOptions) (*LRModel, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("fit lr: %d samples, %d labels", len(X), len(y))
	}
	opts = opts.withDefaults()
	n := float64(len(X))
	lambda := 1 / (opts.C * n)

	w := make([]float64, dim)
	grad := make([]float64, dim)
	var b float64

	for iter := 0; iter < opts.MaxIter; iter++ {
		for i := range grad {
			grad[i] = lambda * w[i]
		}
		var gb float64
		for i, x := range X {
			residual := (sigmoid(b+x.Dot(w)) - float64(y[i])) / n
			gb += residual
			x.ForEach(func(j int, v float64) {
				if j < dim {
					grad[j] += residual * v
				}
			})
		}

		var norm float64
		for i := range w {
			w[i] -= opts.LearningRate * grad[i]
			norm += grad[i] * grad[i]
		}
		b -= opts.LearningRate * gb
		norm += gb * gb
		if math.Sqrt(norm) < opts.Tol {
			break
		}
	}
	return &LRModel{Bias: b, Weights: w}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// LoadLRModel 从 JSON 文件加载模型。
func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LRModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse lr model: %w", err)
	}
	return &m, nil
}

// SaveLRModel 把模型写入 JSON 文件，父目录不存在时自动创建。
func SaveLRModel(path string, m *LRModel) error {
	if m == nil {
		return fmt.Errorf("save lr model: nil model")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
