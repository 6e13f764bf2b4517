// Package config 负责两类配置：
//   - 应用配置（Config）：koanf 分层加载，结构体默认值 → YAML 文件 → OPTGIFT_ 环境变量
//   - Pipeline 节点注册表（Register / DefaultFactory）：把 YAML 中的 node type 映射为 Node
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Jegankumard/OptGiftAI/pkg/logging"
	"github.com/Jegankumard/OptGiftAI/recall"
)

const (
	// EnvPrefix 是环境变量前缀：OPTGIFT_ENGINE__TOP_K -> engine.top_k
	EnvPrefix = "OPTGIFT_"
	// ConfigPathEnvVar 指定配置文件路径
	ConfigPathEnvVar = "OPTGIFT_CONFIG"
)

// DefaultConfigPaths 是未显式指定时依次查找的配置文件。
var DefaultConfigPaths = []string{
	"optgift.yaml",
	"optgift.yml",
	"/etc/optgift/config.yaml",
}

// Config 是应用配置。
type Config struct {
	Catalog   CatalogConfig   `koanf:"catalog"`
	Engine    EngineConfig    `koanf:"engine"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Store     StoreConfig     `koanf:"store"`
	Logging   logging.Config  `koanf:"logging"`
}

type CatalogConfig struct {
	Path   string `koanf:"path" validate:"required"`
	Format string `koanf:"format" validate:"omitempty,oneof=csv json"`
}

// EngineConfig 是推荐引擎的策略与参数。
type EngineConfig struct {
	// RelevanceMode: lexical（TF-IDF）或 semantic（句向量）
	RelevanceMode string `koanf:"relevance_mode" validate:"oneof=lexical semantic"`
	Lemmatizer    string `koanf:"lemmatizer" validate:"oneof=dictionary snowball"`
	MaxFeatures   int    `koanf:"max_features" validate:"gte=1"`

	CollaborativePolicy string `koanf:"collaborative_policy" validate:"oneof=popularity factorization"`
	FusionPolicy        string `koanf:"fusion_policy" validate:"oneof=linear semantic"`

	Seed            uint64               `koanf:"seed"`
	MinInteractions int                  `koanf:"min_interactions" validate:"gte=1"`
	MaxRank         int                  `koanf:"max_rank" validate:"gte=1"`
	ActionWeights   recall.ActionWeights `koanf:"action_weights"`

	TopK               int           `koanf:"top_k" validate:"gte=1"`
	SemanticCandidates int           `koanf:"semantic_candidates" validate:"gte=1"`
	StrategyTimeout    time.Duration `koanf:"strategy_timeout" validate:"gte=0"`

	// PipelineFile 是可选的融合尾部 Pipeline YAML
	PipelineFile string `koanf:"pipeline_file"`
	// ModelPath 是质量模型文件：retrain 成功后写入，之后的命令启动时加载；为空则不持久化
	ModelPath string `koanf:"model_path"`
}

// EmbeddingConfig 是语义模式使用的句向量来源。
type EmbeddingConfig struct {
	// Provider: hashing（离线确定性嵌入）或 http（外部嵌入服务）
	Provider        string        `koanf:"provider" validate:"oneof=hashing http"`
	Endpoint        string        `koanf:"endpoint" validate:"required_if=Provider http"`
	Model           string        `koanf:"model"`
	Dimension       int           `koanf:"dimension" validate:"gte=1"`
	Timeout         time.Duration `koanf:"timeout" validate:"gte=0"`
	CacheSize       int           `koanf:"cache_size" validate:"gte=0"`
	BreakerFailures int           `koanf:"breaker_failures" validate:"gte=1"`
	APIKey          string        `koanf:"api_key"`
}

// StoreConfig 是交互日志、用户权重、购物车的存储后端。
type StoreConfig struct {
	Backend       string `koanf:"backend" validate:"oneof=memory redis badger"`
	RedisAddr     string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	BadgerPath    string `koanf:"badger_path" validate:"required_if=Backend badger"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path: "optgiftai_database.csv",
		},
		Engine: EngineConfig{
			RelevanceMode:       "lexical",
			Lemmatizer:          "dictionary",
			MaxFeatures:         5000,
			CollaborativePolicy: "popularity",
			FusionPolicy:        "linear",
			Seed:                42,
			MinInteractions:     recall.DefaultMinInteractions,
			MaxRank:             recall.DefaultMaxRank,
			ActionWeights:       recall.DefaultActionWeights(),
			TopK:                4,
			SemanticCandidates:  50,
			StrategyTimeout:     5 * time.Second,
			ModelPath:           "data/quality_lr.json",
		},
		Embedding: EmbeddingConfig{
			Provider:        "hashing",
			Model:           "all-MiniLM-L6-v2",
			Dimension:       384,
			Timeout:         10 * time.Second,
			CacheSize:       4096,
			BreakerFailures: 5,
		},
		Store: StoreConfig{
			Backend:    "badger",
			RedisAddr:  "localhost:6379",
			BadgerPath: "data/optgift",
		},
		Logging: logging.Config{
			Level:     "info",
			Format:    "json",
			Timestamp: true,
		},
	}
}

// Load 加载配置。path 为空时按 OPTGIFT_CONFIG 与 DefaultConfigPaths 查找，找不到文件则只用默认值与环境变量。
// 当前目录的 .env 会被预先加载（不覆盖已有环境变量）。
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验取值范围与条件必填项。
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc 把环境变量名映射为配置路径，双下划线分隔层级：
//
//	OPTGIFT_ENGINE__TOP_K                   -> engine.top_k
//	OPTGIFT_ENGINE__ACTION_WEIGHTS__DISLIKE -> engine.action_weights.dislike
//	OPTGIFT_CONFIG                          -> 忽略
func envTransformFunc(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}
