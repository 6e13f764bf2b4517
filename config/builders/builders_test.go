package builders

import (
	"context"
	"testing"

	"github.com/Jegankumard/OptGiftAI/config"
	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/filter"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/rank"
	"github.com/Jegankumard/OptGiftAI/rerank"
)

const tailYAML = `
pipeline:
  name: hybrid_tail
  nodes:
    - type: filter
      config:
        filters:
          - type: expr
            expr: "item.price <= 100.0"
          - type: exclude
            ids: [2]
    - type: rank.linear_blend
      config:
        similarity_weight: 1.0
        quality_weight: 0
    - type: rerank.intent_boost
      config:
        occasion_boost: 0.5
        conflicts:
          wedding: [birthday, graduation]
    - type: rerank.confidence
      config:
        model: "Hybrid (Content + LR)"
    - type: rerank.topn
      config:
        n: 2
`

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(tailYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig() error = %v", err)
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if len(p.Nodes) != 5 {
		t.Fatalf("len(Nodes) = %d, want 5", len(p.Nodes))
	}
	blend, ok := p.Nodes[1].(*rank.LinearBlendNode)
	if !ok || blend.SimilarityWeight != 1.0 || blend.QualityWeight != 0 {
		t.Errorf("linear blend = %+v", p.Nodes[1])
	}
	boost, ok := p.Nodes[2].(*rerank.IntentBoostNode)
	if !ok || boost.OccasionBoost != 0.5 || boost.RelationshipBoost != 0.25 || len(boost.Conflicts["wedding"]) != 2 {
		t.Errorf("intent boost = %+v", p.Nodes[2])
	}

	items := []*core.Item{
		item(1, "Silver Watch", 500, 0.9),
		item(2, "Wooden Frame", 50, 0.8),
		item(3, "Wedding Album", 45, 0.2),
		item(4, "Birthday Candles", 10, 0.7),
	}
	rctx := &core.RecommendContext{Occasion: "wedding", TopK: 4}
	got, err := p.Run(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 4 {
		t.Fatalf("Run() ids = %v, want [3 4]", idsOf(got))
	}
	if got[0].ModelUsed != core.ModelHybridLinear || got[0].Confidence != 70 {
		t.Errorf("top item = (%q, %v), want (%q, 70)", got[0].ModelUsed, got[0].Confidence, core.ModelHybridLinear)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unregistered type", yaml: "pipeline:\n  nodes:\n    - type: rank.dnn\n"},
		{name: "confidence without model", yaml: "pipeline:\n  nodes:\n    - type: rerank.confidence\n"},
		{name: "unknown sub filter", yaml: "pipeline:\n  nodes:\n    - type: filter\n      config:\n        filters:\n          - type: bloom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := pipeline.ParseYAML([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("ParseYAML() error = %v", err)
			}
			if _, err := cfg.BuildPipeline(config.DefaultFactory()); err == nil {
				t.Error("BuildPipeline() error = nil")
			}
		})
	}
}

func TestRegisteredTypes(t *testing.T) {
	types := map[string]bool{}
	for _, typ := range config.SupportedTypes() {
		types[typ] = true
	}
	for _, want := range []string{"filter", "filter.occasion", "rank.linear_blend", "rank.semantic_blend",
		"rerank.intent_boost", "rerank.diversity", "rerank.confidence", "rerank.topn"} {
		if !types[want] {
			t.Errorf("node type %q not registered", want)
		}
	}
	n, err := BuildOccasionFilterNode(nil)
	if err != nil {
		t.Fatalf("BuildOccasionFilterNode() error = %v", err)
	}
	if _, ok := n.(*filter.OccasionFilter); !ok {
		t.Errorf("BuildOccasionFilterNode() = %T", n)
	}
}

func item(id int64, title string, price, similarity float64) *core.Item {
	it := core.NewItem(core.Product{ID: id, Title: title, Price: price}, int(id-1))
	it.SetFeature(core.FeatureSimilarity, similarity)
	return it
}

func idsOf(items []*core.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
