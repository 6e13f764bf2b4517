package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/Jegankumard/OptGiftAI/core"
)

const (
	// DefaultInteractionKey 是交互日志所在的 key
	DefaultInteractionKey = "interactions"
)

// InteractionLog 是只追加的交互日志。
//   - 后端实现 core.ListStore 时，每条记录 RPush 为一个列表元素
//   - 否则整个日志以 JSON 数组存在一个 key 下（进程内串行化读改写）
//
// 热门计数不单独维护，由 recall.Popularity 从完整日志统计，次数相同按首次出现排序。
type InteractionLog struct {
	store core.Store
	Key   string

	mu sync.Mutex
}

func NewInteractionLog(s core.Store) *InteractionLog {
	return &InteractionLog{
		store: s,
		Key:   DefaultInteractionKey,
	}
}

// Append 追加交互记录。返回 nil 即表示记录已写入日志。
func (l *InteractionLog) Append(ctx context.Context, interactions ...core.Interaction) error {
	if len(interactions) == 0 {
		return nil
	}
	ls, ok := l.store.(core.ListStore)
	if !ok {
		return l.appendArray(ctx, interactions)
	}
	values := make([][]byte, len(interactions))
	for i, in := range interactions {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode interaction: %w", err)
		}
		values[i] = data
	}
	if err := ls.RPush(ctx, l.Key, values...); err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "append interactions", err)
	}
	return nil
}

func (l *InteractionLog) appendArray(ctx context.Context, interactions []core.Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.readArray(ctx)
	if err != nil {
		return err
	}
	all = append(all, interactions...)
	return setJSON(ctx, l.store, l.Key, all)
}

// All 按追加顺序返回全部交互记录；日志不存在时返回空切片。
// 无法解码的列表元素被跳过。
func (l *InteractionLog) All(ctx context.Context) ([]core.Interaction, error) {
	ls, ok := l.store.(core.ListStore)
	if !ok {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.readArray(ctx)
	}

	raw, err := ls.LRange(ctx, l.Key, 0, -1)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "read interactions", err)
	}
	out := make([]core.Interaction, 0, len(raw))
	for _, data := range raw {
		var in core.Interaction
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (l *InteractionLog) readArray(ctx context.Context) ([]core.Interaction, error) {
	var all []core.Interaction
	if err := getJSON(ctx, l.store, l.Key, &all); err != nil {
		if core.IsStoreNotFound(err) {
			return []core.Interaction{}, nil
		}
		return nil, err
	}
	return all, nil
}
