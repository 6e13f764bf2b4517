package engine

import (
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/filter"
	"github.com/Jegankumard/OptGiftAI/model"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/recall"
	"github.com/Jegankumard/OptGiftAI/relevance"
)

// 协同策略与融合策略的名称，与配置文件取值一致。
const (
	PolicyPopularity    = "popularity"
	PolicyFactorization = "factorization"

	FusionLinear   = "linear"
	FusionSemantic = "semantic"
)

const (
	DefaultTopK               = 4
	DefaultSemanticCandidates = 50
	DefaultSeed               = 42
)

type options struct {
	logger zerolog.Logger
	source rand.Source
	seed   uint64

	mode        relevance.Mode
	embedder    relevance.Embedder
	lemmatizer  string
	maxFeatures int
	encodeLimit time.Duration

	collaborative   string
	actionWeights   *recall.ActionWeights
	minInteractions int
	maxRank         int
	loader          recall.InteractionLoader

	fusion             string
	semanticCandidates int
	pipelineConfig     *pipeline.Config
	excludeStore       filter.ExcludeStore
	excludePrefix      string

	topK            int
	strategyTimeout time.Duration
	train           model.TrainOptions
	modelPath       string
}

func defaultOptions() options {
	return options{
		logger:             zerolog.Nop(),
		seed:               DefaultSeed,
		mode:               relevance.ModeLexical,
		lemmatizer:         "dictionary",
		maxFeatures:        relevance.DefaultMaxFeatures,
		collaborative:      PolicyPopularity,
		fusion:             FusionLinear,
		semanticCandidates: DefaultSemanticCandidates,
		topK:               DefaultTopK,
	}
}

// Option 配置 Recommender。
type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSeed 固定冷启动 / 填充 / 回退随机采样的种子。
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithRandSource 注入随机源，优先于 WithSeed。
func WithRandSource(src rand.Source) Option {
	return func(o *options) { o.source = src }
}

// WithLexicalRelevance 使用 TF-IDF 相关性索引（默认）。
func WithLexicalRelevance(lemmatizer string, maxFeatures int) Option {
	return func(o *options) {
		o.mode = relevance.ModeLexical
		if lemmatizer != "" {
			o.lemmatizer = lemmatizer
		}
		if maxFeatures > 0 {
			o.maxFeatures = maxFeatures
		}
	}
}

// WithSemanticRelevance 使用句向量相关性索引；encodeTimeout 为单次编码的时间上限，0 表示不限。
func WithSemanticRelevance(e relevance.Embedder, encodeTimeout time.Duration) Option {
	return func(o *options) {
		o.mode = relevance.ModeSemantic
		o.embedder = e
		o.encodeLimit = encodeTimeout
	}
}

// WithCollaborativePolicy 选择 popularity 或 factorization。
func WithCollaborativePolicy(name string) Option {
	return func(o *options) { o.collaborative = name }
}

// WithFactorization 调整矩阵分解参数，零值项保持默认。
func WithFactorization(weights recall.ActionWeights, minInteractions, maxRank int) Option {
	return func(o *options) {
		o.actionWeights = &weights
		o.minInteractions = minInteractions
		o.maxRank = maxRank
	}
}

// WithInteractionLoader 设置交互日志来源，供 Collaborative / Recommend / Retrain 读取。
func WithInteractionLoader(l recall.InteractionLoader) Option {
	return func(o *options) { o.loader = l }
}

// WithFusionPolicy 选择 linear 或 semantic 融合。
func WithFusionPolicy(name string) Option {
	return func(o *options) { o.fusion = name }
}

// WithSemanticCandidates 设置语义融合的候选数。
func WithSemanticCandidates(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.semanticCandidates = n
		}
	}
}

// WithPipelineConfig 用配置描述的节点替换融合 Pipeline 的默认尾部。
func WithPipelineConfig(cfg *pipeline.Config) Option {
	return func(o *options) { o.pipelineConfig = cfg }
}

// WithExcludeStore 设置 filter.cart_exclude 节点读取的排除列表（按 {prefix}:{user}）。
func WithExcludeStore(s filter.ExcludeStore, prefix string) Option {
	return func(o *options) {
		o.excludeStore = s
		o.excludePrefix = prefix
	}
}

// WithTopK 设置请求未指定 TopK 时的默认条数。
func WithTopK(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithStrategyTimeout 限制每个策略的执行时间，0 表示不限。
func WithStrategyTimeout(d time.Duration) Option {
	return func(o *options) { o.strategyTimeout = d }
}

func WithTrainOptions(t model.TrainOptions) Option {
	return func(o *options) { o.train = t }
}

// WithQualityModelPath 设置质量模型文件：构建时存在则加载，重训成功后写回。
func WithQualityModelPath(path string) Option {
	return func(o *options) { o.modelPath = path }
}
