// Package store 提供 core.Store 的实现与基于它的领域仓储。
//
// 注意：接口定义在 core 包（core.Store / core.ListStore）。
//
// 后端：
//   - MemoryStore：测试/开发
//   - RedisStore：生产，多进程共享
//   - BadgerStore：嵌入式持久化，单进程
//
// 仓储：InteractionLog（交互日志）、WeightStore（用户权重）、CartStore（购物车）、
// PreferenceStore（个性化偏好）。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	log := store.NewInteractionLog(s)
package store

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Jegankumard/OptGiftAI/core"
)

// getJSON 读取 key 并解码到 v；key 不存在时返回 core.ErrStoreNotFound。
func getJSON(ctx context.Context, s core.Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeInternalError, fmt.Sprintf("decode %s", key), err)
	}
	return nil
}

func setJSON(ctx context.Context, s core.Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
