package store

import (
	"context"
	"slices"
	"sync"

	"github.com/Jegankumard/OptGiftAI/core"
)

// DefaultCartPrefix 是购物车的 key 前缀，完整 key 为 cart:<user_id>，值为 JSON 商品 ID 数组。
// filter.ExcludeFilter 读取同一个 key 排除已加购商品。
const DefaultCartPrefix = "cart"

// CartStore 是按用户保存的购物车，元素不重复，保持加入顺序。
type CartStore struct {
	store  core.Store
	Prefix string

	mu sync.Mutex
}

func NewCartStore(s core.Store) *CartStore {
	return &CartStore{store: s, Prefix: DefaultCartPrefix}
}

// Add 加入商品；已存在时 added 为 false。count 是操作后的件数。
func (c *CartStore) Add(ctx context.Context, userID string, productID int64) (added bool, count int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.list(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	if slices.Contains(ids, productID) {
		return false, len(ids), nil
	}
	ids = append(ids, productID)
	if err := setJSON(ctx, c.store, c.key(userID), ids); err != nil {
		return false, 0, err
	}
	return true, len(ids), nil
}

// Remove 移除商品，不存在时不报错。count 是操作后的件数。
func (c *CartStore) Remove(ctx context.Context, userID string, productID int64) (count int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.list(ctx, userID)
	if err != nil {
		return 0, err
	}
	i := slices.Index(ids, productID)
	if i < 0 {
		return len(ids), nil
	}
	ids = slices.Delete(ids, i, i+1)
	if err := setJSON(ctx, c.store, c.key(userID), ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// List 返回购物车中的商品 ID。不存在或无法解码时为空。
func (c *CartStore) List(ctx context.Context, userID string) ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list(ctx, userID)
}

func (c *CartStore) list(ctx context.Context, userID string) ([]int64, error) {
	var ids []int64
	if err := getJSON(ctx, c.store, c.key(userID), &ids); err != nil {
		if core.IsStoreNotFound(err) || isDecodeError(err) {
			return []int64{}, nil
		}
		return nil, err
	}
	return ids, nil
}

func (c *CartStore) key(userID string) string {
	return c.Prefix + ":" + userID
}

func isDecodeError(err error) bool {
	de := core.GetDomainError(err)
	return de != nil && de.Module == core.ModuleStore && de.Code == core.ErrorCodeInternalError
}
