// Package conv 把 YAML / JSON / 请求参数解析出的 any 值转换为节点需要的具体类型。
//
// YAML 解析出的数字可能是 int 或 float64，JSON 一律是 float64，CLI 与环境变量给的是字符串，
// 这里统一兼容，调用方只关心目标类型。
package conv

import (
	"math"
	"strconv"
	"strings"
)

// ToFloat64 支持各种整数 / 浮点类型以及数字字符串。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ToInt64 只接受整数值：3、3.0、"3" 可以，3.5、"abc" 不行。
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return n, true
		}
	}
	f, ok := ToFloat64(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// ToInt 同 ToInt64。
func ToInt(v any) (int, bool) {
	n, ok := ToInt64(v)
	return int(n), ok
}

func ToString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// ConvertSlice 将 []T 按 convert 转为 []U，convert 返回 false 的元素被跳过。
func ConvertSlice[T, U any](s []T, convert func(T) (U, bool)) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		if u, ok := convert(v); ok {
			out = append(out, u)
		}
	}
	return out
}

// ToInt64s 解析商品 ID 列表：[]int64、[]int、[]string、[]any 或逗号分隔字符串。
// 无法解析的元素被跳过。
func ToInt64s(v any) []int64 {
	switch val := v.(type) {
	case []int64:
		return val
	case []int:
		return ConvertSlice(val, func(i int) (int64, bool) { return int64(i), true })
	case []string:
		return ConvertSlice(val, func(s string) (int64, bool) { return ToInt64(s) })
	case []any:
		return ConvertSlice(val, ToInt64)
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return ConvertSlice(strings.Split(val, ","), func(s string) (int64, bool) { return ToInt64(s) })
	default:
		return nil
	}
}

// SliceAnyToString 将 []any 转为 []string；整数值格式化为十进制。
func SliceAnyToString(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	return ConvertSlice(raw, func(e any) (string, bool) {
		if s, ok := e.(string); ok {
			return s, true
		}
		if n, ok := ToInt64(e); ok {
			return strconv.FormatInt(n, 10), true
		}
		return "", false
	})
}

// ConfigGet 按 key 取 T，缺失或类型不符时返回 def。
func ConfigGet[T any](m map[string]any, key string, def T) T {
	if t, ok := m[key].(T); ok {
		return t
	}
	return def
}

// ConfigGetInt64 按 key 取整数，兼容 YAML 的 int 与 JSON 的 float64。
func ConfigGetInt64(m map[string]any, key string, def int64) int64 {
	if n, ok := ToInt64(m[key]); ok {
		return n
	}
	return def
}

// ConfigGetFloat 按 key 取浮点数。
func ConfigGetFloat(m map[string]any, key string, def float64) float64 {
	if f, ok := ToFloat64(m[key]); ok {
		return f
	}
	return def
}
