package store

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
)

// DefaultWeightPrefix 是用户权重的 key 前缀，完整 key 为 weights:<user_id>。
const DefaultWeightPrefix = "weights"

// WeightStore 持久化每个用户的 core.UserWeights。
type WeightStore struct {
	store  core.Store
	Prefix string
}

func NewWeightStore(s core.Store) *WeightStore {
	return &WeightStore{store: s, Prefix: DefaultWeightPrefix}
}

// Load 读取用户权重。不存在、无法解码或超出取值范围时返回默认权重；
// 只有后端故障才返回错误。
func (w *WeightStore) Load(ctx context.Context, userID string) (core.UserWeights, error) {
	var weights core.UserWeights
	err := getJSON(ctx, w.store, w.key(userID), &weights)
	switch {
	case err == nil:
		if weights.Validate() != nil {
			return core.DefaultUserWeights(), nil
		}
		return weights, nil
	case core.IsStoreNotFound(err), isDecodeError(err):
		return core.DefaultUserWeights(), nil
	default:
		return core.UserWeights{}, err
	}
}

// Save 校验并写入用户权重。
func (w *WeightStore) Save(ctx context.Context, userID string, weights core.UserWeights) error {
	if err := weights.Validate(); err != nil {
		return err
	}
	return setJSON(ctx, w.store, w.key(userID), weights)
}

func (w *WeightStore) key(userID string) string {
	return w.Prefix + ":" + userID
}
