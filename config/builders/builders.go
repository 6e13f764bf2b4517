// Package builders 注册内置 Node 的配置构建器。
//
// 使用配置驱动的 Pipeline 时，在入口处：
//
//	import _ "github.com/Jegankumard/OptGiftAI/config/builders"
//
// 依赖运行时对象（相关性索引、质量模型、存储）的 Node 不在此注册，
// 由 engine 在自己的 NodeFactory 上以闭包注册（recall.catalog、rank.quality、filter.cart_exclude）。
package builders

import (
	"fmt"

	"github.com/Jegankumard/OptGiftAI/config"
	"github.com/Jegankumard/OptGiftAI/filter"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/conv"
	"github.com/Jegankumard/OptGiftAI/rank"
	"github.com/Jegankumard/OptGiftAI/rerank"
)

func init() {
	config.Register("filter.occasion", BuildOccasionFilterNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rank.linear_blend", BuildLinearBlendNode)
	config.Register("rank.semantic_blend", BuildSemanticBlendNode)
	config.Register("rerank.intent_boost", BuildIntentBoostNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.confidence", BuildConfidenceNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func BuildOccasionFilterNode(map[string]any) (pipeline.Node, error) {
	return &filter.OccasionFilter{}, nil
}

// BuildFilterNode 构建组合过滤节点：
//
//	type: filter
//	config:
//	  filters:
//	    - type: expr
//	      expr: "item.price <= 100.0"
//	    - type: exclude
//	      ids: [3, 7]
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	raw, _ := cfg["filters"].([]any)
	filters := make([]filter.Filter, 0, len(raw))
	for _, fc := range raw {
		m, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch t := conv.ConfigGet(m, "type", ""); t {
		case "expr":
			filters = append(filters, &filter.ExprFilter{
				Expr:     conv.ConfigGet(m, "expr", ""),
				ParamKey: conv.ConfigGet(m, "param", filter.DefaultExprParam),
			})
		case "exclude":
			f := filter.NewExcludeFilter(conv.ToInt64s(m["ids"]), nil, "")
			f.ParamKey = conv.ConfigGet(m, "param", filter.DefaultExcludeParam)
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %q", t)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildLinearBlendNode(cfg map[string]any) (pipeline.Node, error) {
	n := rank.NewLinearBlendNode()
	n.SimilarityWeight = conv.ConfigGetFloat(cfg, "similarity_weight", n.SimilarityWeight)
	n.QualityWeight = conv.ConfigGetFloat(cfg, "quality_weight", n.QualityWeight)
	return n, nil
}

func BuildSemanticBlendNode(cfg map[string]any) (pipeline.Node, error) {
	n := rank.NewSemanticBlendNode()
	n.SimilarityWeight = conv.ConfigGetFloat(cfg, "similarity_weight", n.SimilarityWeight)
	n.OccasionWeight = conv.ConfigGetFloat(cfg, "occasion_weight", n.OccasionWeight)
	n.RelationshipWeight = conv.ConfigGetFloat(cfg, "relationship_weight", n.RelationshipWeight)
	return n, nil
}

func BuildIntentBoostNode(cfg map[string]any) (pipeline.Node, error) {
	n := rerank.NewIntentBoostNode()
	n.RelationshipBoost = conv.ConfigGetFloat(cfg, "relationship_boost", n.RelationshipBoost)
	n.OccasionBoost = conv.ConfigGetFloat(cfg, "occasion_boost", n.OccasionBoost)
	n.ConflictPenalty = conv.ConfigGetFloat(cfg, "conflict_penalty", n.ConflictPenalty)
	if raw, ok := cfg["conflicts"].(map[string]any); ok {
		conflicts := make(map[string][]string, len(raw))
		for occasion, words := range raw {
			conflicts[occasion] = conv.SliceAnyToString(words)
		}
		n.Conflicts = conflicts
	}
	return n, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:       conv.ConfigGet(cfg, "label_key", ""),
		MaxPerCategory: int(conv.ConfigGetInt64(cfg, "max_per_category", 1)),
		Backfill:       conv.ConfigGet(cfg, "backfill", false),
	}, nil
}

func BuildConfidenceNode(cfg map[string]any) (pipeline.Node, error) {
	model := conv.ConfigGet(cfg, "model", "")
	if model == "" {
		return nil, fmt.Errorf("rerank.confidence: model is required")
	}
	return &rerank.ConfidenceNode{Model: model}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{
		N:        int(conv.ConfigGetInt64(cfg, "n", 0)),
		MinScore: conv.ConfigGetFloat(cfg, "min_score", 0),
	}, nil
}
