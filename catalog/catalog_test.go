package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Jegankumard/OptGiftAI/core"
)

const sampleCSV = `id,title,category,description,price,image_url,tags
101,Silver Watch,Accessories,elegant silver watch,499.5,http://img/1.png,"anniversary, luxury"
102,,,,,,
103.0,Wooden Frame,Home,hand carved frame,50,,birthday
`

func TestLoadCSV_Defaults(t *testing.T) {
	products, err := LoadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("len = %d, want 3", len(products))
	}

	watch := products[0]
	if watch.ID != 101 || watch.Price != 499.5 || watch.Vendor != DefaultVendor {
		t.Errorf("watch = %+v", watch)
	}
	if !reflect.DeepEqual(watch.Tags, []string{"anniversary", "luxury"}) {
		t.Errorf("watch.Tags = %q", watch.Tags)
	}

	blank := products[1]
	want := core.Product{
		ID:       102,
		Title:    DefaultTitle,
		Category: DefaultCategory,
		Vendor:   DefaultVendor,
		Tags:     []string{},
		Pros:     DefaultPros(),
		Cons:     []string{},
	}
	if !reflect.DeepEqual(blank, want) {
		t.Errorf("blank row = %+v, want %+v", blank, want)
	}

	if products[2].ID != 103 {
		t.Errorf("float id parsed as %d, want 103", products[2].ID)
	}
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"no id column": "title,price\nfoo,1\n",
		"bad price":    "id,price\n1,cheap\n",
		"bad id":       "id\nabc\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadCSV(strings.NewReader(data)); !core.IsInvalidInput(err) {
				t.Errorf("LoadCSV() error = %v, want INVALID_INPUT", err)
			}
		})
	}

	products, err := LoadCSV(strings.NewReader(""))
	if err != nil || len(products) != 0 {
		t.Errorf("LoadCSV(empty) = %v, %v", products, err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "products.json")
	if err := os.WriteFile(jsonPath, []byte(`[{"id":7,"title":"Mug","price":12,"tags":["coffee"]},{"id":8}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(jsonPath, FormatAuto)
	if err != nil {
		t.Fatalf("LoadFile(json) error = %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if p, _ := c.ByID(8); p.Title != DefaultTitle || p.Category != DefaultCategory {
		t.Errorf("defaults not applied: %+v", p)
	}

	csvPath := filepath.Join(dir, "products.csv")
	if err := os.WriteFile(csvPath, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	if c, err := LoadFile(csvPath, FormatAuto); err != nil || c.Len() != 3 {
		t.Errorf("LoadFile(csv) = %v, %v", c, err)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.csv"), FormatAuto); !core.IsNotFound(err) {
		t.Errorf("LoadFile(missing) error = %v, want NOT_FOUND", err)
	}
	if _, err := LoadFile(csvPath, Format("xml")); !core.IsNotSupported(err) {
		t.Errorf("LoadFile(xml) error = %v, want NOT_SUPPORTED", err)
	}
}

func TestCatalog_Lookups(t *testing.T) {
	c := New([]core.Product{
		{ID: 1, Title: "a", Price: 10},
		{ID: 2, Title: "b", Price: 20.5},
		{ID: 3, Title: "c", Price: 5},
	})

	if p, ok := c.Lookup(" 2 "); !ok || p.Title != "b" {
		t.Errorf("Lookup(2) = %+v, %v", p, ok)
	}
	if _, ok := c.Lookup("x"); ok {
		t.Error("Lookup(x) ok = true")
	}
	if pos, ok := c.Position(3); !ok || pos != 2 {
		t.Errorf("Position(3) = %d, %v", pos, ok)
	}

	t.Run("replacement", func(t *testing.T) {
		if p, ok := c.Replacement([]int64{1, 2}); !ok || p.ID != 3 {
			t.Errorf("Replacement() = %+v, %v, want id 3", p, ok)
		}
		if _, ok := c.Replacement([]int64{1, 2, 3}); ok {
			t.Error("Replacement(all excluded) ok = true")
		}
	})

	t.Run("cart total", func(t *testing.T) {
		if got := c.Total([]int64{3, 2, 99}); got != 25.5 {
			t.Errorf("Total() = %v, want 25.5", got)
		}
		items := c.Items([]int64{3, 1})
		if len(items) != 2 || items[0].ID != 1 {
			t.Errorf("Items() = %+v, want catalog order", items)
		}
	})
}
