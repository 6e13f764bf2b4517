package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Jegankumard/OptGiftAI/core"
)

const (
	badgerValuePrefix = "kv:"
	badgerListPrefix  = "list:"
	badgerLenPrefix   = "listlen:"

	// badgerMaxRetries 是事务冲突时的重试次数
	badgerMaxRetries = 5
)

// BadgerOptions 是 BadgerStore 的打开参数。
type BadgerOptions struct {
	// Path 是数据目录；InMemory 为 true 时忽略
	Path       string
	InMemory   bool
	SyncWrites bool
}

// BadgerStore 是基于 BadgerDB 的嵌入式持久化 Store，同时实现 ListStore。
// 适合单进程部署：交互日志、用户权重、购物车写入本地磁盘，重启后保留。
//
// 键布局：
//
//	kv:<key>              普通值
//	listlen:<key>         列表长度（大端 uint64）
//	list:<key>\x00<seq>   列表元素，seq 为大端 uint64，保证迭代顺序即追加顺序
type BadgerStore struct {
	db *badger.DB
}

var _ core.ListStore = (*BadgerStore)(nil)

// NewBadgerStore 打开（或创建）一个 BadgerDB。
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	bo := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	}
	bo.Logger = nil
	bo.SyncWrites = opts.SyncWrites
	bo.ValueLogFileSize = 16 << 20

	db, err := badger.Open(bo)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, fmt.Sprintf("open badger db %q", opts.Path), err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStoreFromDB 复用已打开的 DB。
func NewBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (b *BadgerStore) Name() string { return "badger" }

func (b *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(valueKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return core.ErrStoreNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return b.update(func(txn *badger.Txn) error {
		return txn.SetEntry(newEntry(valueKey(key), value, ttl...))
	})
}

// Delete 删除普通值以及同名列表。
func (b *BadgerStore) Delete(ctx context.Context, key string) error {
	return b.update(func(txn *badger.Txn) error {
		if err := txn.Delete(valueKey(key)); err != nil {
			return err
		}
		if err := txn.Delete(lenKey(key)); err != nil {
			return err
		}
		prefix := listPrefix(key)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, k := range keys {
			item, err := txn.Get(valueKey(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get %s: %w", k, err)
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *BadgerStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	return b.update(func(txn *badger.Txn) error {
		for k, v := range kvs {
			if err := txn.SetEntry(newEntry(valueKey(k), v, ttl...)); err != nil {
				return err
			}
		}
		return nil
	})
}

// RPush 在一个事务内读取长度、写入元素并更新长度。
func (b *BadgerStore) RPush(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	return b.update(func(txn *badger.Txn) error {
		n, err := listLen(txn, key)
		if err != nil {
			return err
		}
		for _, v := range values {
			if err := txn.Set(listKey(key, n), v); err != nil {
				return err
			}
			n++
		}
		return txn.Set(lenKey(key), encodeUint64(n))
	})
}

func (b *BadgerStore) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	out := [][]byte{}
	err := b.db.View(func(txn *badger.Txn) error {
		n, err := listLen(txn, key)
		if err != nil {
			return err
		}
		lo, hi, ok := normalizeRange(start, stop, int(n))
		if !ok {
			return nil
		}
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := listPrefix(key)
		for it.Seek(listKey(key, uint64(lo))); it.ValidForPrefix(prefix); it.Next() {
			if len(out) > hi-lo {
				break
			}
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// update 执行写事务，遇到 ErrConflict 时重试。
func (b *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < badgerMaxRetries; i++ {
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func newEntry(key, value []byte, ttl ...int) *badger.Entry {
	e := badger.NewEntry(key, value)
	if len(ttl) > 0 && ttl[0] > 0 {
		e = e.WithTTL(time.Duration(ttl[0]) * time.Second)
	}
	return e
}

func listLen(txn *badger.Txn, key string) (uint64, error) {
	item, err := txn.Get(lenKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt list length for %s", key)
		}
		n = binary.BigEndian.Uint64(val)
		return nil
	})
	return n, err
}

func valueKey(key string) []byte { return []byte(badgerValuePrefix + key) }
func lenKey(key string) []byte   { return []byte(badgerLenPrefix + key) }
func listPrefix(key string) []byte {
	return []byte(badgerListPrefix + key + "\x00")
}

func listKey(key string, seq uint64) []byte {
	return append(listPrefix(key), encodeUint64(seq)...)
}

func encodeUint64(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}
