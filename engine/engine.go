// Package engine 装配 OptGiftAI 推荐引擎：相关性索引、质量分类器、协同策略与融合 Pipeline。
//
// 三种策略互相独立：
//   - ContentBased：查询与商品文本的相似度
//   - Collaborative：基于交互日志的全局热门 / 矩阵分解
//   - Hybrid：相似度与质量、场景信号的融合
//
// Recommend 通过 recall.Fanout 并发执行三者。退化输入（空查询、空日志、单类标签）
// 均按约定回退，不返回错误；错误只出现在构建阶段（嵌入服务不可用、Pipeline 配置非法）。
package engine

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/catalog"
	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/model"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/metrics"
	"github.com/Jegankumard/OptGiftAI/recall"
	"github.com/Jegankumard/OptGiftAI/relevance"
	"github.com/Jegankumard/OptGiftAI/textproc"
)

// Recommendations 是一次请求的三组结果。
type Recommendations struct {
	Content       []*core.Item `json:"content"`
	Collaborative []*core.Item `json:"collaborative"`
	Hybrid        []*core.Item `json:"hybrid"`
}

// Recommender 是推荐引擎。构建后索引只读，分类器按快照替换，可并发调用。
type Recommender struct {
	catalog *catalog.Catalog
	index   relevance.Index
	quality *model.QualityClassifier
	picker  *recall.Picker
	policy  recall.CollaborativePolicy
	hybrid  *pipeline.Pipeline

	content       *recall.ContentRecall
	collaborative *recall.CollaborativeRecall
	fused         recall.Source
	fanout        *recall.Fanout

	opts   options
	logger zerolog.Logger
}

// New 构建引擎。语义模式下目录编码失败、或融合 Pipeline 配置非法时返回错误。
func New(ctx context.Context, cat *catalog.Catalog, opts ...Option) (*Recommender, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if cat == nil {
		cat = catalog.New(nil)
	}
	r := &Recommender{
		catalog: cat,
		opts:    o,
		logger:  o.logger.With().Str("component", "engine").Logger(),
	}
	products := cat.Products()

	index, err := r.buildIndex(ctx, products)
	if err != nil {
		return nil, err
	}
	r.index = index

	r.quality = model.NewQualityClassifier(products, index.Vectors(),
		model.WithTrainOptions(o.train),
		model.WithQualityLogger(r.logger),
	)
	r.loadQuality()

	if o.source != nil {
		r.picker = recall.NewPickerFrom(o.source)
	} else {
		r.picker = recall.NewPicker(o.seed)
	}
	r.policy = r.buildPolicy(products)

	hybrid, err := r.buildHybrid()
	if err != nil {
		return nil, err
	}
	r.hybrid = hybrid

	r.content = &recall.ContentRecall{Index: index, Products: products}
	r.collaborative = &recall.CollaborativeRecall{Policy: r.policy, Load: o.loader, Logger: r.logger}
	r.fused = hybridSource(hybrid)
	r.fanout = &recall.Fanout{
		Sources: []recall.Source{r.content, r.collaborative, r.fused},
		Timeout: o.strategyTimeout,
		Logger:  r.logger,
	}

	r.logger.Info().
		Int("products", len(products)).
		Str("relevance", string(index.Mode())).
		Str("collaborative", r.policy.Name()).
		Str("fusion", o.fusion).
		Msg("recommender ready")
	return r, nil
}

func (r *Recommender) buildIndex(ctx context.Context, products []core.Product) (relevance.Index, error) {
	if r.opts.mode == relevance.ModeSemantic {
		embedder := r.opts.embedder
		if embedder == nil {
			embedder = relevance.NewHashingEmbedder(relevance.DefaultHashingDimension)
		}
		return relevance.NewSemanticIndex(ctx, products, embedder,
			relevance.WithEncodeTimeout(r.opts.encodeLimit),
			relevance.WithSemanticLogger(r.logger),
		)
	}
	normalizer := textproc.New(textproc.WithLemmatizer(textproc.NewLemmatizer(r.opts.lemmatizer)))
	return relevance.NewLexicalIndex(products,
		relevance.WithMaxFeatures(r.opts.maxFeatures),
		relevance.WithNormalizer(normalizer),
		relevance.WithStopwords(textproc.EnglishStopwords()),
	), nil
}

func (r *Recommender) buildPolicy(products []core.Product) recall.CollaborativePolicy {
	if r.opts.collaborative != PolicyFactorization {
		return recall.NewPopularity(products, r.picker, r.logger)
	}
	f := recall.NewFactorization(products, r.picker, r.logger)
	if w := r.opts.actionWeights; w != nil {
		f.Weights = *w
	}
	if r.opts.minInteractions > 0 {
		f.MinInteractions = r.opts.minInteractions
	}
	if r.opts.maxRank > 0 {
		f.MaxRank = r.opts.maxRank
	}
	return f
}

// request 返回带默认 TopK 的深拷贝，节点对 Labels/Params 的写入不会回到调用方的 rctx。
func (r *Recommender) request(rctx *core.RecommendContext, k int) *core.RecommendContext {
	req := rctx.Clone()
	if k > 0 {
		req.TopK = k
	}
	if req.TopK <= 0 {
		req.TopK = r.opts.topK
	}
	return req
}

func (r *Recommender) run(ctx context.Context, src recall.Source, rctx *core.RecommendContext) []*core.Item {
	if r.opts.strategyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.strategyTimeout)
		defer cancel()
	}
	start := time.Now()
	items, err := src.Recall(ctx, rctx)
	if err != nil {
		r.logger.Warn().Err(err).Str("source", src.Name()).Msg("strategy failed, returning empty list")
		return []*core.Item{}
	}
	models := make([]string, 0, len(items))
	for _, it := range items {
		models = append(models, it.ModelUsed)
	}
	metrics.RecordStrategy(src.Name(), models, time.Since(start))
	if items == nil {
		items = []*core.Item{}
	}
	return items
}

// ContentBased 返回与查询最相似的 k 个商品。
// k <= 0 表示未指定，使用 WithTopK 配置的默认条数，而不是返回空列表；
// 需要"0 条"语义时直接调用 relevance.Index.TopK。
func (r *Recommender) ContentBased(ctx context.Context, query string, k int) []*core.Item {
	return r.run(ctx, r.content, r.request(&core.RecommendContext{Query: query}, k))
}

// ContentFor 按完整请求上下文（场景字段、兴趣）做内容推荐。
func (r *Recommender) ContentFor(ctx context.Context, rctx *core.RecommendContext) []*core.Item {
	return r.run(ctx, r.content, r.request(rctx, 0))
}

// Collaborative 读取交互日志并按协同策略推荐 k 个商品（k <= 0 使用默认条数）。未配置日志来源时按冷启动处理。
func (r *Recommender) Collaborative(ctx context.Context, k int) []*core.Item {
	return r.run(ctx, r.collaborative, r.request(nil, k))
}

// CollaborativeFrom 对调用方提供的交互日志做协同推荐。k <= 0 时同 ContentBased，使用默认条数。
func (r *Recommender) CollaborativeFrom(ctx context.Context, interactions []core.Interaction, k int) []*core.Item {
	if k <= 0 {
		k = r.opts.topK
	}
	start := time.Now()
	items := r.policy.Recommend(ctx, interactions, k)
	models := make([]string, 0, len(items))
	for _, it := range items {
		models = append(models, it.ModelUsed)
	}
	metrics.RecordStrategy(r.collaborative.Name(), models, time.Since(start))
	return items
}

// Hybrid 按请求上下文执行融合 Pipeline。
func (r *Recommender) Hybrid(ctx context.Context, rctx *core.RecommendContext) []*core.Item {
	return r.run(ctx, r.fused, r.request(rctx, 0))
}

// Recommend 并发执行三种策略。单个策略失败或超时时其结果为空列表。
func (r *Recommender) Recommend(ctx context.Context, rctx *core.RecommendContext) (*Recommendations, error) {
	req := r.request(rctx, 0)
	byName, err := r.fanout.Collect(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Recommendations{
		Content:       byName[r.content.Name()],
		Collaborative: byName[r.collaborative.Name()],
		Hybrid:        byName[r.fused.Name()],
	}, nil
}

// RetrainFromPurchases 以购买记录重训质量分类器；标签只有一个类别时跳过并返回 false。
// 配置了模型文件时，重训成功后写回；写入失败只记日志。
func (r *Recommender) RetrainFromPurchases(interactions []core.Interaction) bool {
	trained := r.retrain(interactions)
	if trained {
		if err := r.SaveQuality(); err != nil {
			r.logger.Warn().Err(err).Str("path", r.opts.modelPath).Msg("save quality model")
		}
	}
	return trained
}

func (r *Recommender) retrain(interactions []core.Interaction) bool {
	trained := r.quality.RetrainFromPurchases(interactions)
	metrics.RecordRetrain(trained)
	r.logger.Info().
		Bool("trained", trained).
		Int("interactions", len(interactions)).
		Int("version", r.quality.Version()).
		Msg("quality retrain")
	return trained
}

// SaveQuality 把当前质量模型写入 WithQualityModelPath 指定的文件；未配置路径或尚未训练时不做任何事。
func (r *Recommender) SaveQuality() error {
	m := r.quality.Model()
	if r.opts.modelPath == "" || m == nil {
		return nil
	}
	if err := model.SaveLRModel(r.opts.modelPath, m); err != nil {
		return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInternalError, "save quality model", err)
	}
	return nil
}

// loadQuality 用上次保存的模型替换价格标签训练出的初始模型。
// 文件不存在时静默跳过；文件损坏或维度与目录不符时记录告警并保留初始模型。
func (r *Recommender) loadQuality() {
	path := r.opts.modelPath
	if path == "" {
		return
	}
	m, err := model.LoadLRModel(path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug().Str("path", path).Msg("no saved quality model")
		return
	}
	if err == nil {
		err = r.quality.Install(m)
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("path", path).Msg("saved quality model ignored")
		return
	}
	r.logger.Info().Str("path", path).Int("version", r.quality.Version()).Msg("quality model loaded")
}

// Retrain 从交互日志来源读取全量记录后重训。
func (r *Recommender) Retrain(ctx context.Context) (bool, error) {
	if r.opts.loader == nil {
		return false, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported, "no interaction source configured")
	}
	interactions, err := r.opts.loader(ctx)
	if err != nil {
		return false, err
	}
	if !r.retrain(interactions) {
		return false, nil
	}
	return true, r.SaveQuality()
}

// Product 按 ID 查找目录商品。
func (r *Recommender) Product(id int64) (core.Product, bool) {
	return r.catalog.ByID(id)
}

func (r *Recommender) Catalog() *catalog.Catalog { return r.catalog }

// Quality 返回质量分类器（只读使用）。
func (r *Recommender) Quality() *model.QualityClassifier { return r.quality }

// Pipeline 返回当前融合 Pipeline。
func (r *Recommender) Pipeline() *pipeline.Pipeline { return r.hybrid }
