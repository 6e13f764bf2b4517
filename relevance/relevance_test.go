package relevance

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/Jegankumard/OptGiftAI/core"
)

func giftCatalog() []core.Product {
	return []core.Product{
		{ID: 1, Title: "silver watch", Price: 500},
		{ID: 2, Title: "wooden frame", Price: 50},
		{ID: 3, Title: "Leather Wallet", Description: "handmade leather wallet for men", Tags: []string{"fathers day", "leather"}, Price: 80},
		{ID: 4, Title: "Birthday Cake Candles", Description: "colourful candles", Tags: []string{"birthday", "party"}, Price: 10},
		{ID: 5, Title: "Wedding Photo Album", Description: "linen album for wedding photos", Tags: []string{"wedding", "anniversary"}, Price: 45},
	}
}

func TestLexicalIndex_WatchScenario(t *testing.T) {
	products := []core.Product{
		{ID: 1, Title: "silver watch", Price: 500},
		{ID: 2, Title: "wooden frame", Price: 50},
	}
	idx := NewLexicalIndex(products)

	top := idx.TopK(context.Background(), "watch", 1)
	if len(top) != 1 {
		t.Fatalf("TopK() len = %d, want 1", len(top))
	}
	if got := products[top[0].Position].ID; got != 1 {
		t.Fatalf("top-1 id = %d, want 1", got)
	}
	sims := idx.Similarities(context.Background(), "watch")
	if !(sims[0] > sims[1]) {
		t.Errorf("similarity(id=1)=%v must be > similarity(id=2)=%v", sims[0], sims[1])
	}
}

func TestLexicalIndex_TopKBound(t *testing.T) {
	idx := NewLexicalIndex(giftCatalog())
	ctx := context.Background()
	for _, k := range []int{0, 1, 3, 5, 6, 100} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			want := k
			if want > idx.Len() {
				want = idx.Len()
			}
			if got := len(idx.TopK(ctx, "gift", k)); got != want {
				t.Errorf("len(TopK(%d)) = %d, want %d", k, got, want)
			}
		})
	}
}

func TestLexicalIndex_Deterministic(t *testing.T) {
	idx := NewLexicalIndex(giftCatalog())
	ctx := context.Background()
	first := idx.Score(ctx, "leather wallet for dad")
	for i := 0; i < 5; i++ {
		if got := idx.Score(ctx, "leather wallet for dad"); !reflect.DeepEqual(got, first) {
			t.Fatalf("Score() not deterministic")
		}
	}
}

func TestLexicalIndex_EmptyQuery(t *testing.T) {
	idx := NewLexicalIndex(giftCatalog())
	for _, m := range idx.Score(context.Background(), "  ?! ") {
		if m.Similarity != 0 {
			t.Fatalf("empty query similarity = %v, want 0", m.Similarity)
		}
	}
}

func TestRank_TieBreakByProductID(t *testing.T) {
	ids := []int64{30, 10, 20}
	got := Rank([]float64{0.5, 0.5, 0.9}, ids)
	wantOrder := []int{2, 1, 0}
	for i, m := range got {
		if m.Position != wantOrder[i] {
			t.Fatalf("position[%d] = %d, want %d (got %v)", i, m.Position, wantOrder[i], got)
		}
	}
}

func TestTFIDFVectorizer_MaxFeatures(t *testing.T) {
	vz := NewTFIDFVectorizer(2, map[string]bool{"the": true})
	vz.Fit([]string{"the watch watch frame", "watch candle a", "frame"})
	vocab := vz.Vocabulary()
	if !reflect.DeepEqual(vocab, []string{"frame", "watch"}) {
		t.Fatalf("Vocabulary() = %v, want [frame watch]", vocab)
	}
	v := vz.Transform("candle the")
	if len(v.Indices) != 0 {
		t.Errorf("out-of-vocabulary transform should be empty, got %v", v.Indices)
	}
	if n := vz.Transform("watch frame").Norm(); n < 0.999999 || n > 1.000001 {
		t.Errorf("transformed vector norm = %v, want 1", n)
	}
}

func TestSemanticIndex_HashingEmbedder(t *testing.T) {
	ctx := context.Background()
	idx, err := NewSemanticIndex(ctx, giftCatalog(), NewHashingEmbedder(128))
	if err != nil {
		t.Fatalf("NewSemanticIndex() error = %v", err)
	}
	if idx.Mode() != ModeSemantic || idx.Len() != 5 {
		t.Fatalf("unexpected index: mode=%s len=%d", idx.Mode(), idx.Len())
	}
	top := idx.TopK(ctx, "wedding album", 1)
	if len(top) != 1 || giftCatalog()[top[0].Position].ID != 5 {
		t.Errorf("TopK(wedding album) = %v, want product 5", top)
	}
}

type failingEmbedder struct {
	*HashingEmbedder
	fail bool
}

func (f *failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if f.fail {
		return nil, errors.New("model offline")
	}
	return f.HashingEmbedder.Embed(ctx, texts)
}

func TestSemanticIndex_QueryFailureYieldsZero(t *testing.T) {
	emb := &failingEmbedder{HashingEmbedder: NewHashingEmbedder(64)}
	idx, err := NewSemanticIndex(context.Background(), giftCatalog(), emb)
	if err != nil {
		t.Fatalf("NewSemanticIndex() error = %v", err)
	}
	emb.fail = true
	for _, s := range idx.Similarities(context.Background(), "anything") {
		if s != 0 {
			t.Fatalf("similarity = %v, want 0 after encoder failure", s)
		}
	}
	if got := len(idx.TopK(context.Background(), "anything", 3)); got != 3 {
		t.Errorf("TopK len = %d, want 3", got)
	}
}

func TestSemanticIndex_BuildFailure(t *testing.T) {
	emb := &failingEmbedder{HashingEmbedder: NewHashingEmbedder(64), fail: true}
	if _, err := NewSemanticIndex(context.Background(), giftCatalog(), emb); !core.IsUnavailable(err) {
		t.Errorf("NewSemanticIndex() error = %v, want UNAVAILABLE", err)
	}
}

func TestSimilarityRange_RandomQueries(t *testing.T) {
	idx := NewLexicalIndex(giftCatalog())
	words := []string{"watch", "silver", "gift", "birthday", "wedding", "leather", "frame", "", "the", "candles"}
	r := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 100; i++ {
		q := words[r.IntN(len(words))] + " " + words[r.IntN(len(words))]
		for _, m := range idx.Score(context.Background(), q) {
			if m.Similarity < 0 || m.Similarity > 1.0000001 {
				t.Fatalf("similarity %v out of [0,1] for %q", m.Similarity, q)
			}
		}
	}
}
