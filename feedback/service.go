package feedback

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/metrics"
)

// Event 是一次用户反馈。
type Event struct {
	UserID    string
	ProductID int64
	Action    core.Action
	// Rating 可选评分，原样写入交互日志
	Rating *int
}

// ProductLookup 按 ID 查找目录商品（catalog.Catalog 实现）。
type ProductLookup interface {
	ByID(id int64) (core.Product, bool)
}

// WeightRepository 读写用户权重（store.WeightStore 实现）。
type WeightRepository interface {
	Load(ctx context.Context, userID string) (core.UserWeights, error)
	Save(ctx context.Context, userID string, w core.UserWeights) error
}

// InteractionAppender 追加交互记录（store.InteractionLog 实现）。
type InteractionAppender interface {
	Append(ctx context.Context, interactions ...core.Interaction) error
}

// Service 串起一次反馈：查商品 → 读权重 → Update → 写权重 → 追加交互日志。
type Service struct {
	products ProductLookup
	weights  WeightRepository
	log      InteractionAppender
	logger   zerolog.Logger
	now      func() time.Time
}

// Option 配置 Service。
type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock 替换时间源（测试用）。
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(products ProductLookup, weights WeightRepository, log InteractionAppender, opts ...Option) *Service {
	s := &Service{
		products: products,
		weights:  weights,
		log:      log,
		logger:   zerolog.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit 处理一次反馈并返回更新后的权重。
// 商品不存在时返回 NOT_FOUND；未知动作不改变权重，但仍记录交互。
func (s *Service) Submit(ctx context.Context, ev Event) (core.UserWeights, error) {
	if ev.UserID == "" {
		return core.UserWeights{}, core.NewDomainError(core.ModuleFeedback, core.ErrorCodeInvalidInput, "feedback: empty user id")
	}
	product, ok := s.products.ByID(ev.ProductID)
	if !ok {
		return core.UserWeights{}, core.NewDomainError(core.ModuleFeedback, core.ErrorCodeNotFound, fmt.Sprintf("product %d not found", ev.ProductID))
	}

	current, err := s.weights.Load(ctx, ev.UserID)
	if err != nil {
		return core.UserWeights{}, fmt.Errorf("load weights: %w", err)
	}
	updated := Update(current, ev.Action, product.Price)
	if err := s.weights.Save(ctx, ev.UserID, updated); err != nil {
		return core.UserWeights{}, fmt.Errorf("save weights: %w", err)
	}

	in := core.Interaction{
		UserID:    ev.UserID,
		ProductID: strconv.FormatInt(ev.ProductID, 10),
		Action:    ev.Action,
		Rating:    ev.Rating,
		Timestamp: s.now(),
	}
	if err := s.log.Append(ctx, in); err != nil {
		return core.UserWeights{}, fmt.Errorf("append interaction: %w", err)
	}

	metrics.RecordFeedback(string(ev.Action))
	s.logger.Debug().
		Str("user_id", ev.UserID).
		Int64("product_id", ev.ProductID).
		Str("action", string(ev.Action)).
		Float64("relevance_weight", updated.RelevanceWeight).
		Msg("feedback applied")
	return updated, nil
}
