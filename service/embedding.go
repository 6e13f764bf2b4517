// Package service 封装对外部模型服务的调用。
//
// 当前只有句向量服务：EmbeddingClient 调用 OpenAI 兼容的 /v1/embeddings 接口
// （sentence-transformers、TEI、infinity 等都提供该路由），实现 relevance.Embedder。
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/metrics"
)

const (
	DefaultEmbeddingTimeout = 10 * time.Second
	DefaultCacheSize        = 4096
	// DefaultBreakerFailures 连续失败多少次后熔断
	DefaultBreakerFailures = 5
)

// EmbeddingClient 是句向量服务的 HTTP 客户端。
//
// 工程特征：
//   - 熔断：连续失败达到阈值后快速失败，避免每个请求都等待超时
//   - 缓存：查询文本 -> 向量，命中时不发请求
//   - 校验：返回条数与维度必须与请求一致
//
// REST API：
//   - POST {Endpoint}/v1/embeddings
//   - 请求体：{"model": "...", "input": ["text", ...]}
//   - 响应：{"data": [{"index": 0, "embedding": [...]}, ...]}
type EmbeddingClient struct {
	Endpoint string
	Model    string

	// Timeout 单次请求超时
	Timeout time.Duration

	Auth *AuthConfig

	dim             int
	cacheSize       int64
	breakerFailures uint32
	httpClient      *http.Client
	logger          zerolog.Logger

	breaker *gobreaker.CircuitBreaker[[][]float64]
	cache   *ristretto.Cache[string, []float64]
}

// AuthConfig 认证配置
type AuthConfig struct {
	Type     string // "basic", "bearer", "api_key"
	Username string
	Password string
	Token    string
	APIKey   string
}

// EmbeddingOption 配置 EmbeddingClient。
type EmbeddingOption func(*EmbeddingClient)

func WithEmbeddingTimeout(timeout time.Duration) EmbeddingOption {
	return func(c *EmbeddingClient) { c.Timeout = timeout }
}

func WithEmbeddingAuth(auth *AuthConfig) EmbeddingOption {
	return func(c *EmbeddingClient) { c.Auth = auth }
}

// WithEmbeddingHTTPClient 设置自定义 HTTP 客户端
func WithEmbeddingHTTPClient(httpClient *http.Client) EmbeddingOption {
	return func(c *EmbeddingClient) { c.httpClient = httpClient }
}

// WithCacheSize 设置缓存条数上限，<= 0 关闭缓存。
func WithCacheSize(n int) EmbeddingOption {
	return func(c *EmbeddingClient) { c.cacheSize = int64(n) }
}

func WithBreakerFailures(n int) EmbeddingOption {
	return func(c *EmbeddingClient) {
		if n > 0 {
			c.breakerFailures = uint32(n)
		}
	}
}

func WithEmbeddingLogger(l zerolog.Logger) EmbeddingOption {
	return func(c *EmbeddingClient) { c.logger = l }
}

// NewEmbeddingClient 创建客户端。dim 是服务端模型的输出维度。
func NewEmbeddingClient(endpoint, model string, dim int, opts ...EmbeddingOption) (*EmbeddingClient, error) {
	if endpoint == "" || dim <= 0 {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "embedding client needs an endpoint and a positive dimension")
	}
	c := &EmbeddingClient{
		Endpoint:        strings.TrimRight(endpoint, "/"),
		Model:           model,
		Timeout:         DefaultEmbeddingTimeout,
		dim:             dim,
		cacheSize:       DefaultCacheSize,
		breakerFailures: DefaultBreakerFailures,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}

	if c.cacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, []float64]{
			NumCounters: c.cacheSize * 10,
			MaxCost:     c.cacheSize,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}
		c.cache = cache
	}

	name := "embedding-" + model
	failures := c.breakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[[][]float64](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("embedding circuit breaker state change")
		},
	})
	return c, nil
}

func (c *EmbeddingClient) Dimension() int    { return c.dim }
func (c *EmbeddingClient) ModelName() string { return c.Model }

// Embed 编码一批文本，返回与输入等长、按输入顺序排列的向量。
// 缓存命中的文本不再请求；服务不可用或熔断时返回 UNAVAILABLE。
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missing []string
	var missingAt []int
	for i, t := range texts {
		if v, ok := c.cached(t); ok {
			out[i] = v
			metrics.RecordEmbedding("cache_hit")
			continue
		}
		missing = append(missing, t)
		missingAt = append(missingAt, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := c.breaker.Execute(func() ([][]float64, error) {
		return c.request(ctx, missing)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.RecordEmbedding(outcome)
		return nil, core.WrapDomainError(core.ModuleService, core.ErrorCodeUnavailable, "embedding service", err)
	}

	for j, v := range vectors {
		out[missingAt[j]] = v
		if c.cache != nil {
			c.cache.Set(missing[j], v, 1)
		}
	}
	if c.cache != nil {
		c.cache.Wait()
	}
	metrics.RecordEmbedding("success")
	return out, nil
}

func (c *EmbeddingClient) cached(text string) ([]float64, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(text)
}

type embeddingRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *EmbeddingClient) request(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.addAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("embedding error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(parsed.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("embedding index %d out of range or duplicated", d.Index)
		}
		if len(d.Embedding) != c.dim {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(d.Embedding), c.dim)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// addAuth 添加认证信息到 HTTP 请求
func (c *EmbeddingClient) addAuth(req *http.Request) {
	if c.Auth == nil {
		return
	}
	switch c.Auth.Type {
	case "basic":
		req.SetBasicAuth(c.Auth.Username, c.Auth.Password)
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.Auth.Token)
	case "api_key":
		req.Header.Set("X-API-Key", c.Auth.APIKey)
	}
}

// Health 检查服务可达性（GET {Endpoint}/health）。
func (c *EmbeddingClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.addAuth(httpReq)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.WrapDomainError(core.ModuleService, core.ErrorCodeUnavailable, "embedding health", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable, fmt.Sprintf("embedding health: status=%d", resp.StatusCode))
	}
	return nil
}

// Close 释放缓存。
func (c *EmbeddingClient) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}
