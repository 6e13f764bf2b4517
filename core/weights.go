package core

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// UserWeights 是用户级权重向量，由外部持久化，每次反馈时传入并返回。
// 三个权重互相独立，不做归一化。
type UserWeights struct {
	PriceWeight     float64 `json:"price_weight" validate:"gte=0,lte=1"`
	RelevanceWeight float64 `json:"relevance_weight" validate:"gte=0.1,lte=1"`
	NoveltyWeight   float64 `json:"novelty_weight" validate:"gte=0,lte=0.5"`
}

// DefaultUserWeights 返回新用户的初始权重。
func DefaultUserWeights() UserWeights {
	return UserWeights{
		PriceWeight:     0.3,
		RelevanceWeight: 0.7,
		NoveltyWeight:   0.1,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate 校验权重是否落在声明的取值范围内。
func (w UserWeights) Validate() error {
	if err := getValidator().Struct(w); err != nil {
		return NewDomainError(ModuleFeedback, ErrorCodeInvalidInput, fmt.Sprintf("invalid user weights: %v", err))
	}
	return nil
}
