package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Jegankumard/OptGiftAI/core"
)

// Format 是目录文件格式。
type Format string

const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// LoadFile 读取目录文件。format 为空时按扩展名判断，未知扩展名按 CSV 处理。
func LoadFile(path string, format Format) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, fmt.Sprintf("open catalog %s", path), err)
	}
	defer f.Close()

	if format == FormatAuto {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = FormatJSON
		} else {
			format = FormatCSV
		}
	}

	var products []core.Product
	switch format {
	case FormatJSON:
		products, err = LoadJSON(f)
	case FormatCSV:
		products, err = LoadCSV(f)
	default:
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported, fmt.Sprintf("unsupported catalog format %q", format))
	}
	if err != nil {
		return nil, err
	}
	return New(products), nil
}

// LoadJSON 读取商品数组并补齐缺失字段。
func LoadJSON(r io.Reader) ([]core.Product, error) {
	var products []core.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "decode catalog json", err)
	}
	for i := range products {
		applyDefaults(&products[i])
	}
	return products, nil
}

// LoadCSV 读取带表头的 CSV 目录。
//
// 识别的列：id, title, category, description, price, image_url, tags, rating, link, vendor。
// 空值按默认值处理：id 0、price 0.0、title "Unknown Product"、category "General"、vendor "Meevyy"。
// tags 以 ", " 分隔。
func LoadCSV(r io.Reader) ([]core.Product, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []core.Product{}, nil
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "read catalog header", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "catalog csv has no id column")
	}

	var products []core.Product
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, fmt.Sprintf("read catalog line %d", line), err)
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		p := core.Product{
			Title:       field("title"),
			Category:    field("category"),
			Description: field("description"),
			ImageURL:    field("image_url"),
			Link:        field("link"),
			Vendor:      field("vendor"),
		}
		if p.ID, err = parseInt(field("id")); err != nil {
			return nil, lineError(line, "id", err)
		}
		if p.Price, err = parseFloat(field("price")); err != nil {
			return nil, lineError(line, "price", err)
		}
		if p.Rating, err = parseFloat(field("rating")); err != nil {
			return nil, lineError(line, "rating", err)
		}
		if tags := field("tags"); tags != "" {
			p.Tags = strings.Split(tags, ", ")
		}
		applyDefaults(&p)
		products = append(products, p)
	}
	if products == nil {
		products = []core.Product{}
	}
	return products, nil
}

// parseInt 接受 "12" 与 "12.0"（表格软件导出的整数列常带小数点）。
func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func lineError(line int, column string, err error) error {
	return core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, fmt.Sprintf("catalog line %d: bad %s", line, column), err)
}
