package filter

import (
	"context"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/conv"
)

// DefaultExcludeParam 是请求参数中排除列表的 key。
const DefaultExcludeParam = "exclude_ids"

// ExcludeFilter 过滤掉指定商品：已经展示过的、已经在购物车里的等。
// 排除列表来源（取并集）：
//   - IDs：内存中的固定列表
//   - rctx.Params[ParamKey]：请求级列表（[]int64 / []any / 逗号分隔字符串）
//   - Store：按 {KeyPrefix}:{UserID} 读取的用户级列表
type ExcludeFilter struct {
	IDs       []int64
	ParamKey  string
	Store     ExcludeStore
	KeyPrefix string
}

// ExcludeStore 是排除列表的存储接口。
type ExcludeStore interface {
	// GetExcluded 读取 key 对应的商品 ID 列表
	GetExcluded(ctx context.Context, key string) ([]int64, error)
}

// NewExcludeFilter 创建排除过滤器。store 可为 nil。
func NewExcludeFilter(ids []int64, store ExcludeStore, keyPrefix string) *ExcludeFilter {
	return &ExcludeFilter{
		IDs:       ids,
		ParamKey:  DefaultExcludeParam,
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

// Prepare 合并本次请求的排除列表，返回请求级过滤器。
func (f *ExcludeFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	set := make(excludeSet, len(f.IDs))
	for _, id := range f.IDs {
		set[id] = struct{}{}
	}
	key := f.ParamKey
	if key == "" {
		key = DefaultExcludeParam
	}
	if v, ok := rctx.Param(key); ok {
		for _, id := range conv.ToInt64s(v) {
			set[id] = struct{}{}
		}
	}

	if f.Store != nil && f.KeyPrefix != "" && rctx != nil && rctx.UserID != "" {
		ids, err := f.Store.GetExcluded(ctx, f.KeyPrefix+":"+rctx.UserID)
		if err != nil && !core.IsStoreNotFound(err) {
			return nil, err
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return set, nil
}

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	for _, id := range f.IDs {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// excludeSet 是单次请求内合并后的排除列表。
type excludeSet map[int64]struct{}

func (s excludeSet) Name() string { return "filter.exclude" }

func (s excludeSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := s[item.ID]
	return ok, nil
}
