package utils

import "strings"

// Label 记录候选的来历：哪个策略产出、哪个节点改写了分数。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / rerank / engine
}

// MergeLabel 合并同名 Label。Value 以 "|" 累积，Source 以 "," 累积；
// 已出现过的 Value 或 Source 不重复追加。
func MergeLabel(existing, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  appendUnique(existing.Value, incoming.Value, "|"),
		Source: appendUnique(existing.Source, incoming.Source, ","),
	}
}

func appendUnique(acc, v, sep string) string {
	switch {
	case v == "":
		return acc
	case acc == "":
		return v
	}
	for _, part := range strings.Split(acc, sep) {
		if part == v {
			return acc
		}
	}
	return acc + sep + v
}
