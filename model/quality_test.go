package model

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/pkg/vec"
)

// oneHot 为每个商品生成互不重叠的单位向量。
func oneHot(n int) []vec.Vector {
	out := make([]vec.Vector, n)
	for i := 0; i < n; i++ {
		out[i] = vec.NewSparse(n, map[int]float64{i: 1})
	}
	return out
}

func products(prices ...float64) []core.Product {
	out := make([]core.Product, len(prices))
	for i, p := range prices {
		out[i] = core.Product{ID: int64(i + 1), Title: "p", Price: p}
	}
	return out
}

func TestPriceLabels(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   []int
	}{
		{name: "even count", prices: []float64{10, 20, 30, 40}, want: []int{0, 0, 1, 1}},
		{name: "odd count", prices: []float64{5, 500, 50}, want: []int{0, 1, 0}},
		{name: "all equal flips first", prices: []float64{5, 5, 5}, want: []int{1, 0, 0}},
		{name: "single product", prices: []float64{9}, want: []int{1}},
		{name: "empty", prices: nil, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriceLabels(products(tt.prices...)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PriceLabels() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQualityClassifier_InitialTraining(t *testing.T) {
	ps := products(10, 20, 30, 40)
	c := NewQualityClassifier(ps, oneHot(len(ps)))
	if !c.Trained() || c.Version() != 1 {
		t.Fatalf("Trained() = %v, Version() = %d, want trained once", c.Trained(), c.Version())
	}
	probs := c.PredictQuality()
	if len(probs) != len(ps) {
		t.Fatalf("len(PredictQuality()) = %d, want %d", len(probs), len(ps))
	}
	for i, p := range probs {
		if p <= 0 || p >= 1 {
			t.Errorf("probability[%d] = %v, want in (0,1)", i, p)
		}
	}
	if !(probs[3] > probs[0] && probs[2] > probs[1]) {
		t.Errorf("expensive products should score higher, got %v", probs)
	}
}

func TestQualityClassifier_SingleProductStaysNeutral(t *testing.T) {
	c := NewQualityClassifier(products(42), oneHot(1))
	if c.Trained() {
		t.Fatal("single-product catalog must not train")
	}
	if got := c.Probability(0); got != NeutralQuality {
		t.Errorf("Probability(0) = %v, want %v", got, NeutralQuality)
	}
	if got := c.Probability(7); got != NeutralQuality {
		t.Errorf("out-of-range Probability = %v, want %v", got, NeutralQuality)
	}
}

func TestQualityClassifier_RetrainSkipsSingleClass(t *testing.T) {
	ps := products(10, 20, 30, 40)
	c := NewQualityClassifier(ps, oneHot(len(ps)))
	before := c.PredictQuality()
	version := c.Version()

	cases := map[string][]core.Interaction{
		"no interactions":   nil,
		"only likes":        {core.NewInteraction("u1", "2", core.ActionLike)},
		"unknown purchases": {core.NewInteraction("u1", "999", core.ActionPurchase)},
		"everything bought": {
			core.NewInteraction("u1", "1", core.ActionPurchase),
			core.NewInteraction("u1", "2", core.ActionPurchase),
			core.NewInteraction("u2", "3", core.ActionPurchase),
			core.NewInteraction("u2", "4", core.ActionPurchase),
		},
	}
	for name, interactions := range cases {
		t.Run(name, func(t *testing.T) {
			if c.RetrainFromPurchases(interactions) {
				t.Fatal("RetrainFromPurchases() = true, want skipped")
			}
			if !reflect.DeepEqual(c.PredictQuality(), before) {
				t.Error("predictions changed after a skipped retrain")
			}
			if c.Version() != version {
				t.Errorf("Version() = %d, want %d", c.Version(), version)
			}
		})
	}
}

func TestQualityClassifier_RetrainFromPurchases(t *testing.T) {
	ps := products(10, 20, 30, 40)
	c := NewQualityClassifier(ps, oneHot(len(ps)))

	interactions := []core.Interaction{
		core.NewInteraction("u1", "1", core.ActionPurchase),
		core.NewInteraction("u1", "1", core.ActionPurchase),
		core.NewInteraction("u2", "4", core.ActionLike),
	}
	if got := c.PurchaseLabels(interactions); !reflect.DeepEqual(got, []int{1, 0, 0, 0}) {
		t.Fatalf("PurchaseLabels() = %v, want [1 0 0 0]", got)
	}
	if !c.RetrainFromPurchases(interactions) {
		t.Fatal("RetrainFromPurchases() = false, want true")
	}
	if c.Version() != 2 {
		t.Errorf("Version() = %d, want 2", c.Version())
	}
	probs := c.PredictQuality()
	for i := 1; i < len(probs); i++ {
		if probs[0] <= probs[i] {
			t.Errorf("purchased product probability %v should exceed product %d (%v)", probs[0], i+1, probs[i])
		}
	}
}

func TestQualityClassifier_LabelMismatch(t *testing.T) {
	ps := products(10, 20, 30)
	c := NewQualityClassifier(ps, oneHot(len(ps)))
	if c.Train([]int{0, 1}) {
		t.Error("Train() with mismatched labels = true, want false")
	}
}

func TestFitLR_Errors(t *testing.T) {
	if _, err := FitLR(nil, nil, 3, TrainOptions{}); err == nil {
		t.Error("FitLR(empty) error = nil")
	}
	if _, err := FitLR(oneHot(2), []int{1}, 2, TrainOptions{}); err == nil {
		t.Error("FitLR(mismatch) error = nil")
	}
	var m *LRModel
	if _, err := m.Predict(vec.Dense{1}); err == nil {
		t.Error("nil model Predict() error = nil")
	}
}

func TestLRModel_SaveLoad(t *testing.T) {
	m, err := FitLR(oneHot(2), []int{0, 1}, 2, TrainOptions{MaxIter: 10})
	if err != nil {
		t.Fatalf("FitLR() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "lr.json")
	if err := SaveLRModel(path, m); err != nil {
		t.Fatalf("SaveLRModel() error = %v", err)
	}
	loaded, err := LoadLRModel(path)
	if err != nil {
		t.Fatalf("LoadLRModel() error = %v", err)
	}
	x := vec.NewSparse(2, map[int]float64{1: 1})
	want, _ := m.Predict(x)
	got, _ := loaded.Predict(x)
	if got != want {
		t.Errorf("loaded Predict() = %v, want %v", got, want)
	}
}

func TestQualityClassifier_InstallSavedModel(t *testing.T) {
	ps := products(10, 20, 30, 40)
	trained := NewQualityClassifier(ps, oneHot(len(ps)))
	if !trained.RetrainFromPurchases([]core.Interaction{core.NewInteraction("u1", "1", core.ActionPurchase)}) {
		t.Fatal("RetrainFromPurchases() = false, want true")
	}
	path := filepath.Join(t.TempDir(), "models", "quality_lr.json")
	if err := SaveLRModel(path, trained.Model()); err != nil {
		t.Fatalf("SaveLRModel() error = %v", err)
	}

	fresh := NewQualityClassifier(ps, oneHot(len(ps)))
	if reflect.DeepEqual(fresh.PredictQuality(), trained.PredictQuality()) {
		t.Fatal("price-trained and purchase-trained probabilities are identical")
	}
	loaded, err := LoadLRModel(path)
	if err != nil {
		t.Fatalf("LoadLRModel() error = %v", err)
	}
	if err := fresh.Install(loaded); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if got, want := fresh.PredictQuality(), trained.PredictQuality(); !reflect.DeepEqual(got, want) {
		t.Errorf("installed probabilities = %v, want %v", got, want)
	}
	if fresh.Version() != 2 {
		t.Errorf("Version() = %d, want 2", fresh.Version())
	}

	if err := fresh.Install(&LRModel{Weights: []float64{1}}); err == nil {
		t.Error("Install() with wrong dimension error = nil")
	}
	if err := fresh.Install(nil); err == nil {
		t.Error("Install(nil) error = nil")
	}
	if fresh.Version() != 2 {
		t.Errorf("Version() after rejected installs = %d, want 2", fresh.Version())
	}
}
