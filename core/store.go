package core

import "context"

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 引擎本身不持有日志与用户状态，交互日志、用户权重、购物车都通过 Store 读写
//
// 实现：
//   - store.MemoryStore（测试/开发）
//   - store.RedisStore（生产）
//   - store.BadgerStore（嵌入式持久化）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 单位为秒
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// BatchSet 批量写入
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	// Close 关闭连接/释放资源
	Close() error
}

// ListStore 是支持追加列表的扩展接口，用于只追加的交互日志。
type ListStore interface {
	Store

	// RPush 追加到列表尾部
	RPush(ctx context.Context, key string, values ...[]byte) error

	// LRange 读取列表区间，stop 为 -1 表示到末尾
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")
)

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
}
