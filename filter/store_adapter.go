package filter

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/Jegankumard/OptGiftAI/core"
)

// StoreAdapter 让 ExcludeStore 直接读取 core.Store 中的 JSON ID 数组，
// 与 store.CartStore 写入的格式相同，可以按用户排除购物车中的商品。
type StoreAdapter struct {
	kv core.Store
}

func NewStoreAdapter(kv core.Store) *StoreAdapter {
	return &StoreAdapter{kv: kv}
}

// GetExcluded 读取 key 下的 ID 列表。key 不存在时透传 Store 的 NOT_FOUND；值无法解析时返回 INTERNAL_ERROR。
func (a *StoreAdapter) GetExcluded(ctx context.Context, key string) ([]int64, error) {
	raw, err := a.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeInternalError, "decode id list "+key, err)
	}
	return ids, nil
}
