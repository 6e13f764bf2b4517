package recall

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/relevance"
)

func testCatalog(n int) []core.Product {
	out := make([]core.Product, n)
	for i := range out {
		out[i] = core.Product{ID: int64(i + 1), Title: fmt.Sprintf("gift %d", i+1), Price: float64(10 * (i + 1))}
	}
	return out
}

func repeat(userID, productID string, action core.Action, n int) []core.Interaction {
	out := make([]core.Interaction, n)
	for i := range out {
		out[i] = core.NewInteraction(userID, productID, action)
	}
	return out
}

func assertConfidenceRange(t *testing.T, items []*core.Item) {
	t.Helper()
	for _, it := range items {
		if it.Confidence < 0 || it.Confidence > 100 {
			t.Errorf("product %d confidence %v out of [0,100]", it.ID, it.Confidence)
		}
		if it.ModelUsed == "" {
			t.Errorf("product %d has empty model label", it.ID)
		}
	}
}

func assertUnique(t *testing.T, items []*core.Item) {
	t.Helper()
	seen := map[int64]bool{}
	for _, it := range items {
		if seen[it.ID] {
			t.Errorf("duplicate product %d", it.ID)
		}
		seen[it.ID] = true
	}
}

func TestPicker_SampleDeterministic(t *testing.T) {
	a := NewPicker(42).Sample(20, 5, nil)
	b := NewPicker(42).Sample(20, 5, nil)
	if fmt.Sprint(a) != fmt.Sprint(b) {
		t.Fatalf("same seed produced %v and %v", a, b)
	}
	if got := NewPicker(1).Sample(3, 10, nil); len(got) != 3 {
		t.Errorf("Sample(3, 10) len = %d, want 3", len(got))
	}
	skipped := NewPicker(1).Sample(5, 5, func(i int) bool { return i%2 == 0 })
	for _, i := range skipped {
		if i%2 == 0 {
			t.Errorf("Sample returned skipped index %d", i)
		}
	}
}

func TestPopularity_PurchaseScenario(t *testing.T) {
	p := NewPopularity(testCatalog(4), NewPicker(1), zerolog.Nop())
	got := p.Recommend(context.Background(), repeat("1", "2", core.ActionPurchase, 5), 1)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].ID != 2 || got[0].Confidence != 95.0 || got[0].ModelUsed != core.ModelCollabPopularity {
		t.Errorf("top-1 = {id:%d conf:%v model:%q}, want {2 95 %q}", got[0].ID, got[0].Confidence, got[0].ModelUsed, core.ModelCollabPopularity)
	}
}

func TestPopularity_RankingAndFiller(t *testing.T) {
	interactions := []core.Interaction{
		core.NewInteraction("u1", "3", core.ActionView),
		core.NewInteraction("u1", "1", core.ActionLike),
		core.NewInteraction("u2", "1", core.ActionLike),
		core.NewInteraction("u2", "999", core.ActionLike),
		core.NewInteraction("u2", "999", core.ActionLike),
		core.NewInteraction("u3", "2", core.ActionView),
	}
	p := NewPopularity(testCatalog(6), NewPicker(7), zerolog.Nop())
	got := p.Recommend(context.Background(), interactions, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	// 1 次数最多；3 与 2 各一次，3 先出现；999 不在目录中
	wantHead := []int64{1, 3, 2}
	for i, id := range wantHead {
		if got[i].ID != id || got[i].Confidence != PopularityConfidence {
			t.Errorf("item[%d] = {%d %v}, want {%d 95}", i, got[i].ID, got[i].Confidence, id)
		}
	}
	for _, it := range got[3:] {
		if it.ModelUsed != core.ModelCollabFiller || it.Confidence != RandomConfidence {
			t.Errorf("filler item = {%q %v}", it.ModelUsed, it.Confidence)
		}
	}
	assertUnique(t, got)
}

func TestColdStart(t *testing.T) {
	products := testCatalog(10)
	policies := []CollaborativePolicy{
		NewPopularity(products, NewPicker(3), zerolog.Nop()),
		NewFactorization(products, NewPicker(3), zerolog.Nop()),
	}
	for _, policy := range policies {
		t.Run(policy.Name(), func(t *testing.T) {
			got := policy.Recommend(context.Background(), nil, 4)
			if len(got) != 4 {
				t.Fatalf("len = %d, want 4", len(got))
			}
			for _, it := range got {
				if it.ModelUsed != core.ModelCollabColdStart || it.Confidence != 50 {
					t.Errorf("cold start item = {%q %v}", it.ModelUsed, it.Confidence)
				}
			}
			assertUnique(t, got)
		})
	}
}

func TestFactorization_BelowThreshold(t *testing.T) {
	f := NewFactorization(testCatalog(5), NewPicker(3), zerolog.Nop())
	got := f.Recommend(context.Background(), repeat("u1", "1", core.ActionLike, 4), 3)
	for _, it := range got {
		if it.ModelUsed != core.ModelCollabColdStart {
			t.Errorf("model = %q, want cold start", it.ModelUsed)
		}
	}
}

func TestFactorization_SingleProductFallsBack(t *testing.T) {
	f := NewFactorization(testCatalog(5), NewPicker(3), zerolog.Nop())
	got := f.Recommend(context.Background(), repeat("u1", "2", core.ActionPurchase, 6), 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for _, it := range got {
		if it.ModelUsed != core.ModelCollabFallback || it.Confidence != 50 {
			t.Errorf("item = {%q %v}, want fallback at 50", it.ModelUsed, it.Confidence)
		}
	}
}

func TestFactorization_TrendRanking(t *testing.T) {
	var interactions []core.Interaction
	interactions = append(interactions, repeat("u1", "3", core.ActionPurchase, 2)...)
	interactions = append(interactions, repeat("u2", "3", core.ActionPurchase, 1)...)
	interactions = append(interactions, repeat("u1", "1", core.ActionLike, 1)...)
	interactions = append(interactions, repeat("u3", "2", core.ActionView, 1)...)
	interactions = append(interactions, repeat("u3", "3", core.ActionLike, 1)...)

	f := NewFactorization(testCatalog(8), NewPicker(5), zerolog.Nop())
	got := f.Recommend(context.Background(), interactions, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if got[0].ID != 3 {
		t.Errorf("top product = %d, want 3", got[0].ID)
	}
	if got[0].Confidence != factorizationMaxConfidence {
		t.Errorf("top confidence = %v, want %v", got[0].Confidence, factorizationMaxConfidence)
	}
	for i := 0; i < 3; i++ {
		if got[i].ModelUsed != core.ModelCollabFactorization {
			t.Errorf("item[%d] model = %q", i, got[i].ModelUsed)
		}
		if got[i].Confidence < factorizationMinConfidence || got[i].Confidence > factorizationMaxConfidence {
			t.Errorf("item[%d] confidence = %v out of [60,95]", i, got[i].Confidence)
		}
	}
	for _, it := range got[3:] {
		if it.ModelUsed != core.ModelCollabFiller {
			t.Errorf("padding model = %q, want filler", it.ModelUsed)
		}
	}
	assertUnique(t, got)
	assertConfidenceRange(t, got)
}

func TestPolicies_StructLiteralConcurrent(t *testing.T) {
	var interactions []core.Interaction
	interactions = append(interactions, repeat("u1", "3", core.ActionPurchase, 2)...)
	interactions = append(interactions, repeat("u2", "1", core.ActionLike, 1)...)
	interactions = append(interactions, repeat("u3", "2", core.ActionView, 1)...)
	interactions = append(interactions, repeat("u3", "3", core.ActionLike, 1)...)

	products := testCatalog(6)
	policies := []interface {
		Name() string
		Recommend(context.Context, []core.Interaction, int) []*core.Item
	}{
		&Popularity{Products: products, Picker: NewPicker(3), Logger: zerolog.Nop()},
		&Factorization{Products: products, Picker: NewPicker(3), Weights: DefaultActionWeights(), Logger: zerolog.Nop()},
	}
	for _, p := range policies {
		t.Run(p.Name(), func(t *testing.T) {
			want := p.Recommend(context.Background(), interactions, 3)[0].ID
			var wg sync.WaitGroup
			tops := make([]int64, 32)
			for i := range tops {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					got := p.Recommend(context.Background(), interactions, 3)
					if len(got) != 3 {
						t.Errorf("len = %d, want 3", len(got))
						return
					}
					tops[i] = got[0].ID
				}(i)
			}
			wg.Wait()
			for i, id := range tops {
				if id != want {
					t.Errorf("call %d top product = %d, want %d", i, id, want)
				}
			}
		})
	}
}

func TestActionWeights(t *testing.T) {
	w := DefaultActionWeights()
	tests := []struct {
		action core.Action
		want   float64
	}{
		{core.ActionPurchase, 5},
		{core.ActionLike, 3},
		{core.ActionDislike, 1},
		{core.ActionView, 1},
		{core.Action("share"), 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := w.Weight(tt.action); got != tt.want {
				t.Errorf("Weight(%q) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestRescaleConfidence(t *testing.T) {
	if got := rescaleConfidence(3, 3, 3); got != factorizationFlatConfidence {
		t.Errorf("flat = %v, want %v", got, factorizationFlatConfidence)
	}
	if got := rescaleConfidence(0, 0, 10); got != 60 {
		t.Errorf("min = %v, want 60", got)
	}
	if got := rescaleConfidence(5, 0, 10); got != 77.5 {
		t.Errorf("mid = %v, want 77.5", got)
	}
}

func TestContentRecall(t *testing.T) {
	products := []core.Product{
		{ID: 1, Title: "silver watch", Price: 500},
		{ID: 2, Title: "wooden frame", Price: 50},
	}
	r := &ContentRecall{Index: relevance.NewLexicalIndex(products), Products: products}
	got, err := r.Recall(context.Background(), &core.RecommendContext{Query: "watch", TopK: 1})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("Recall() = %v, want product 1", got)
	}
	if got[0].ModelUsed != core.ModelContentTFIDF {
		t.Errorf("model = %q", got[0].ModelUsed)
	}
	if want := core.ScoreToConfidence(got[0].Feature(core.FeatureSimilarity)); got[0].Confidence != want {
		t.Errorf("confidence = %v, want %v", got[0].Confidence, want)
	}
}

func TestCatalogRecall_Limit(t *testing.T) {
	products := testCatalog(6)
	idx := relevance.NewLexicalIndex(products)
	all, _ := (&CatalogRecall{Index: idx, Products: products}).Recall(context.Background(), &core.RecommendContext{})
	if len(all) != 6 {
		t.Errorf("len(all) = %d, want 6", len(all))
	}
	top, _ := (&CatalogRecall{Index: idx, Products: products, Limit: 2}).Recall(context.Background(), &core.RecommendContext{})
	if len(top) != 2 {
		t.Errorf("len(top) = %d, want 2", len(top))
	}
}

type stubSource struct {
	name  string
	items []*core.Item
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.items, s.err
}

func TestFanout_Collect(t *testing.T) {
	products := testCatalog(3)
	f := &Fanout{
		Sources: []Source{
			&stubSource{name: "a", items: []*core.Item{core.NewItem(products[0], 0)}},
			&stubSource{name: "b", err: errors.New("boom")},
			&stubSource{name: "c", items: []*core.Item{core.NewItem(products[1], 1)}, delay: time.Second},
		},
		Timeout: 20 * time.Millisecond,
	}
	got, err := f.Collect(context.Background(), &core.RecommendContext{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(got["a"]) != 1 || got["a"][0].ID != 1 {
		t.Errorf("source a = %v", got["a"])
	}
	if len(got["b"]) != 0 || len(got["c"]) != 0 {
		t.Errorf("failed sources should be empty, got b=%d c=%d", len(got["b"]), len(got["c"]))
	}
}

func TestFanout_ProcessDedup(t *testing.T) {
	products := testCatalog(3)
	f := &Fanout{
		Sources: []Source{
			&stubSource{name: "a", items: []*core.Item{core.NewItem(products[0], 0), core.NewItem(products[1], 1)}},
			&stubSource{name: "b", items: []*core.Item{core.NewItem(products[1], 1), core.NewItem(products[2], 2)}},
		},
		Dedup:         true,
		MergeStrategy: "priority",
	}
	got, err := f.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, id := range []int64{1, 2, 3} {
		if got[i].ID != id {
			t.Errorf("item[%d] = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestCollaborativeRecall_LoadFailure(t *testing.T) {
	r := &CollaborativeRecall{
		Policy: NewPopularity(testCatalog(4), NewPicker(1), zerolog.Nop()),
		Load: func(context.Context) ([]core.Interaction, error) {
			return nil, errors.New("redis down")
		},
	}
	got, err := r.Recall(context.Background(), &core.RecommendContext{TopK: 2})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(got) != 2 || got[0].ModelUsed != core.ModelCollabColdStart {
		t.Errorf("Recall() = %d items, first model %q; want cold start", len(got), got[0].ModelUsed)
	}
}
