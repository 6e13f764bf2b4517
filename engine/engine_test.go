package engine

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/Jegankumard/OptGiftAI/catalog"
	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/filter"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/utils"
	"github.com/Jegankumard/OptGiftAI/relevance"
	"github.com/Jegankumard/OptGiftAI/store"
)

func giftCatalog() *catalog.Catalog {
	return catalog.New([]core.Product{
		{ID: 1, Title: "Silver Watch", Description: "classic silver watch for dad", Tags: []string{"father", "luxury"}, Price: 1500},
		{ID: 2, Title: "Wooden Frame", Description: "photo frame", Tags: []string{"home"}, Price: 50},
		{ID: 3, Title: "Birthday Cake Candles", Description: "colourful candles for a birthday party", Tags: []string{"birthday", "party"}, Price: 10},
		{ID: 4, Title: "Leather Wallet", Description: "handmade leather wallet", Tags: []string{"father", "leather"}, Price: 80},
		{ID: 5, Title: "Scented Candle Set", Description: "relaxing scented candles", Tags: []string{"mother", "home"}, Price: 35},
		{ID: 6, Title: "Chocolate Box", Description: "assorted chocolates", Tags: []string{"sweet"}, Price: 25},
	})
}

func newRecommender(t *testing.T, opts ...Option) *Recommender {
	t.Helper()
	r, err := New(context.Background(), giftCatalog(), append([]Option{WithSeed(7)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func itemByID(items []*core.Item, id int64) *core.Item {
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func TestContentBased_WatchScenario(t *testing.T) {
	r, err := New(context.Background(), catalog.New([]core.Product{
		{ID: 1, Title: "silver watch", Price: 500},
		{ID: 2, Title: "wooden frame", Price: 50},
	}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got := r.ContentBased(context.Background(), "watch", 2)
	if len(got) != 2 || got[0].ID != 1 {
		t.Fatalf("ContentBased() = %v, want product 1 first", got)
	}
	if got[0].Feature(core.FeatureSimilarity) <= got[1].Feature(core.FeatureSimilarity) {
		t.Errorf("similarity(1)=%v must exceed similarity(2)=%v",
			got[0].Feature(core.FeatureSimilarity), got[1].Feature(core.FeatureSimilarity))
	}
	if got[0].ModelUsed != core.ModelContentTFIDF {
		t.Errorf("ModelUsed = %q, want %q", got[0].ModelUsed, core.ModelContentTFIDF)
	}
}

func TestCollaborative_ColdStart(t *testing.T) {
	r := newRecommender(t)
	got := r.Collaborative(context.Background(), 3)
	if len(got) != 3 {
		t.Fatalf("len(Collaborative()) = %d, want 3", len(got))
	}
	for _, it := range got {
		if it.ModelUsed != core.ModelCollabColdStart || it.Confidence != 50 {
			t.Errorf("item %d = (%q, %v), want cold start with confidence 50", it.ID, it.ModelUsed, it.Confidence)
		}
	}
}

func TestCollaborativeFrom_PopularityScenario(t *testing.T) {
	r := newRecommender(t)
	var interactions []core.Interaction
	for i := 0; i < 5; i++ {
		interactions = append(interactions, core.NewInteraction("1", "2", core.ActionPurchase))
	}
	got := r.CollaborativeFrom(context.Background(), interactions, 1)
	if len(got) != 1 || got[0].ID != 2 || got[0].Confidence != 95.0 {
		t.Fatalf("CollaborativeFrom() = %+v, want product 2 at 95.0", got)
	}
}

func TestCollaborative_LoadsInteractionLog(t *testing.T) {
	ctx := context.Background()
	log := store.NewInteractionLog(store.NewMemoryStore())
	for _, pid := range []string{"4", "4", "6"} {
		if err := log.Append(ctx, core.NewInteraction("u1", pid, core.ActionLike)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	r := newRecommender(t, WithInteractionLoader(log.All))
	got := r.Collaborative(ctx, 2)
	if len(got) != 2 || got[0].ID != 4 || got[1].ID != 6 {
		t.Fatalf("Collaborative() ids = %v, want [4 6]", ids(got))
	}
}

func TestHybrid_WeddingPenalizesBirthdayProduct(t *testing.T) {
	r := newRecommender(t)
	ctx := context.Background()

	plain := r.Hybrid(ctx, &core.RecommendContext{Query: "birthday candles", TopK: 6})
	wedding := r.Hybrid(ctx, &core.RecommendContext{Query: "birthday candles", Occasion: "wedding", TopK: 6})

	before, after := itemByID(plain, 3), itemByID(wedding, 3)
	if before == nil || after == nil {
		t.Fatalf("product 3 missing: plain=%v wedding=%v", ids(plain), ids(wedding))
	}
	if !(after.Score < before.Score) {
		t.Errorf("score with occasion=wedding %v must be < score without occasion %v", after.Score, before.Score)
	}
	if after.ModelUsed != core.ModelHybridLinear {
		t.Errorf("ModelUsed = %q, want %q", after.ModelUsed, core.ModelHybridLinear)
	}
}

func TestHybrid_OccasionAndRelationshipBoost(t *testing.T) {
	r := newRecommender(t)
	got := r.Hybrid(context.Background(), &core.RecommendContext{Occasion: "birthday", Relationship: "friend", TopK: 2})
	if len(got) == 0 || got[0].ID != 3 {
		t.Fatalf("Hybrid() ids = %v, want product 3 first", ids(got))
	}
	for _, it := range got {
		if it.Score < 0 || it.Score > 1 {
			t.Errorf("score %v out of [0,1]", it.Score)
		}
	}
}

func TestHybrid_SemanticFusion(t *testing.T) {
	r := newRecommender(t,
		WithSemanticRelevance(relevance.NewHashingEmbedder(128), 0),
		WithFusionPolicy(FusionSemantic),
		WithSemanticCandidates(3),
	)
	got := r.Hybrid(context.Background(), &core.RecommendContext{Query: "birthday party", Occasion: "birthday", TopK: 5})
	if len(got) != 3 {
		t.Fatalf("len(Hybrid()) = %d, want 3 (candidate limit)", len(got))
	}
	for _, it := range got {
		if it.ModelUsed != core.ModelHybridSemantic {
			t.Errorf("ModelUsed = %q, want %q", it.ModelUsed, core.ModelHybridSemantic)
		}
	}
	content := r.ContentBased(context.Background(), "birthday party", 1)
	if len(content) != 1 || content[0].ModelUsed != core.ModelContentSemantic {
		t.Errorf("ContentBased() = %v, want semantic attribution", content)
	}
}

func TestHybrid_PipelineConfigWithCartExclude(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	carts := store.NewCartStore(kv)
	if _, _, err := carts.Add(ctx, "u1", 3); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	cfg, err := pipeline.ParseYAML([]byte(`
pipeline:
  name: hybrid
  nodes:
    - type: filter.cart_exclude
    - type: rank.quality
    - type: rank.linear_blend
    - type: rerank.intent_boost
    - type: rerank.confidence
      config:
        model: "Hybrid (Content + LR)"
    - type: rerank.topn
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	r := newRecommender(t,
		WithPipelineConfig(cfg),
		WithExcludeStore(filter.NewStoreAdapter(kv), store.DefaultCartPrefix),
	)
	if got := len(r.Pipeline().Nodes); got != 7 {
		t.Fatalf("pipeline nodes = %d, want 7 (candidates + tail)", got)
	}

	got := r.Hybrid(ctx, &core.RecommendContext{UserID: "u1", Occasion: "birthday", TopK: 6})
	if itemByID(got, 3) != nil {
		t.Errorf("product in cart must be excluded, got %v", ids(got))
	}
	if len(got) != 5 {
		t.Errorf("len(Hybrid()) = %d, want 5", len(got))
	}
}

func TestNew_InvalidPipelineConfig(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte("pipeline:\n  nodes:\n    - type: rank.unknown\n"))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if _, err := New(context.Background(), giftCatalog(), WithPipelineConfig(cfg)); !core.IsInvalidInput(err) {
		t.Errorf("New() error = %v, want INVALID_INPUT", err)
	}
}

func TestRecommend_ConfidenceRange(t *testing.T) {
	ctx := context.Background()
	words := []string{"watch", "birthday", "candle", "father", "leather", "", "gift", "home", "sweet", "wedding"}
	occasions := []string{"", "birthday", "wedding", "party"}
	rng := rand.New(rand.NewPCG(3, 3))

	for _, policy := range []string{PolicyPopularity, PolicyFactorization} {
		var interactions []core.Interaction
		r := newRecommender(t,
			WithCollaborativePolicy(policy),
			WithInteractionLoader(func(context.Context) ([]core.Interaction, error) { return interactions, nil }),
		)
		for i := 0; i < 100; i++ {
			interactions = randomInteractions(rng, rng.IntN(12))
			rctx := &core.RecommendContext{
				Query:    words[rng.IntN(len(words))] + " " + words[rng.IntN(len(words))],
				Occasion: occasions[rng.IntN(len(occasions))],
				TopK:     1 + rng.IntN(6),
			}
			recs, err := r.Recommend(ctx, rctx)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			for name, items := range map[string][]*core.Item{
				"content": recs.Content, "collaborative": recs.Collaborative, "hybrid": recs.Hybrid,
			} {
				if len(items) == 0 || len(items) > rctx.TopK {
					t.Fatalf("%s/%s: len = %d, want 1..%d", policy, name, len(items), rctx.TopK)
				}
				for _, it := range items {
					if it.Confidence < 0 || it.Confidence > 100 {
						t.Fatalf("%s/%s: confidence %v out of [0,100]", policy, name, it.Confidence)
					}
					if it.ModelUsed == "" {
						t.Fatalf("%s/%s: empty model label", policy, name)
					}
				}
			}
		}
	}
}

func TestRecommend_DoesNotMutateRequest(t *testing.T) {
	r := newRecommender(t, WithTopK(2))
	rctx := &core.RecommendContext{Query: "watch"}
	recs, err := r.Recommend(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rctx.TopK != 0 {
		t.Errorf("request TopK mutated to %d", rctx.TopK)
	}
	if len(recs.Content) != 2 || len(recs.Hybrid) != 2 || len(recs.Collaborative) != 2 {
		t.Errorf("lens = %d/%d/%d, want 2 each", len(recs.Content), len(recs.Collaborative), len(recs.Hybrid))
	}
}

func TestHybrid_OccasionFallbackKeepsRequestLabels(t *testing.T) {
	r := newRecommender(t, WithTopK(2))
	rctx := &core.RecommendContext{
		Query:    "gift",
		Occasion: "zzznomatch",
		Labels:   map[string]utils.Label{"segment": {Value: "a", Source: "user"}},
		Params:   map[string]any{"note": "x"},
	}
	if got := r.Hybrid(context.Background(), rctx); len(got) != 2 {
		t.Fatalf("len(Hybrid()) = %d, want 2", len(got))
	}
	if _, err := r.Recommend(context.Background(), rctx); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(rctx.Labels) != 1 || rctx.Labels["segment"].Value != "a" {
		t.Errorf("request labels mutated: %v", rctx.Labels)
	}
	if len(rctx.Params) != 1 {
		t.Errorf("request params mutated: %v", rctx.Params)
	}
}

func TestHybrid_ConcurrentSharedRequest(t *testing.T) {
	r := newRecommender(t)
	rctx := &core.RecommendContext{
		Query:    "gift",
		Occasion: "zzznomatch",
		Labels:   map[string]utils.Label{"segment": {Value: "a", Source: "user"}},
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Hybrid(context.Background(), rctx)
			if _, err := r.Recommend(context.Background(), rctx); err != nil {
				t.Errorf("Recommend() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if len(rctx.Labels) != 1 {
		t.Errorf("request labels mutated: %v", rctx.Labels)
	}
}

func TestRetrain(t *testing.T) {
	ctx := context.Background()
	r := newRecommender(t)
	if _, err := r.Retrain(ctx); !core.IsNotSupported(err) {
		t.Fatalf("Retrain() without loader error = %v, want NOT_SUPPORTED", err)
	}
	version := r.Quality().Version()
	if r.RetrainFromPurchases(nil) {
		t.Error("RetrainFromPurchases(nil) = true, want skipped")
	}
	if r.Quality().Version() != version {
		t.Error("skipped retrain changed the classifier version")
	}

	purchases := []core.Interaction{core.NewInteraction("u1", "2", core.ActionPurchase)}
	r = newRecommender(t, WithInteractionLoader(func(context.Context) ([]core.Interaction, error) { return purchases, nil }))
	trained, err := r.Retrain(ctx)
	if err != nil || !trained {
		t.Fatalf("Retrain() = (%v, %v), want (true, nil)", trained, err)
	}
}

func TestRetrain_PersistsQualityModel(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models", "quality_lr.json")
	purchases := []core.Interaction{core.NewInteraction("u1", "3", core.ActionPurchase)}
	loader := WithInteractionLoader(func(context.Context) ([]core.Interaction, error) { return purchases, nil })

	r := newRecommender(t, loader, WithQualityModelPath(path))
	initial := r.Quality().PredictQuality()
	if trained, err := r.Retrain(ctx); err != nil || !trained {
		t.Fatalf("Retrain() = (%v, %v), want (true, nil)", trained, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("quality model not written: %v", err)
	}

	reloaded := newRecommender(t, WithQualityModelPath(path))
	got := reloaded.Quality().PredictQuality()
	if !reflect.DeepEqual(got, r.Quality().PredictQuality()) {
		t.Errorf("reloaded probabilities = %v, want the retrained %v", got, r.Quality().PredictQuality())
	}
	if reflect.DeepEqual(got, initial) {
		t.Error("reloaded recommender still uses the price-labelled model")
	}

	fresh := newRecommender(t, WithQualityModelPath(filepath.Join(t.TempDir(), "missing.json")))
	if !reflect.DeepEqual(fresh.Quality().PredictQuality(), initial) {
		t.Error("missing model file changed the initial classifier")
	}
}

func TestContentBased_ZeroKUsesDefault(t *testing.T) {
	r := newRecommender(t, WithTopK(3))
	if got := r.ContentBased(context.Background(), "candles", 0); len(got) != 3 {
		t.Errorf("len(ContentBased(k=0)) = %d, want default 3", len(got))
	}
	if got := r.Collaborative(context.Background(), 0); len(got) != 3 {
		t.Errorf("len(Collaborative(k=0)) = %d, want default 3", len(got))
	}
}

func TestProductLookup(t *testing.T) {
	r := newRecommender(t)
	if p, ok := r.Product(4); !ok || p.Title != "Leather Wallet" {
		t.Errorf("Product(4) = (%+v, %v)", p, ok)
	}
	if _, ok := r.Product(99); ok {
		t.Error("Product(99) found, want missing")
	}
}

func randomInteractions(rng *rand.Rand, n int) []core.Interaction {
	actions := []core.Action{core.ActionPurchase, core.ActionLike, core.ActionDislike, core.ActionView}
	out := make([]core.Interaction, n)
	for i := range out {
		out[i] = core.NewInteraction(
			"u"+strconv.Itoa(rng.IntN(4)),
			strconv.Itoa(1+rng.IntN(7)),
			actions[rng.IntN(len(actions))],
		)
	}
	return out
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
