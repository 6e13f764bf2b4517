// Package textproc 把自由文本规范化为检索形式：小写、分词、只保留字母数字词元、词形还原。
// 商品文本与查询文本必须经过同一个 Normalizer，向量空间才可比较。
package textproc

import (
	"strings"
	"unicode"

	unitok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// Normalizer 是纯函数式的文本规范化器，可并发使用。
type Normalizer struct {
	tokenizer  *unitok.UnicodeTokenizer
	lemmatizer Lemmatizer
}

// Option 配置 Normalizer。
type Option func(*Normalizer)

// WithLemmatizer 替换默认的词典词形还原器。
func WithLemmatizer(l Lemmatizer) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.lemmatizer = l
		}
	}
}

// New 创建 Normalizer，默认使用 DictionaryLemmatizer。
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		tokenizer:  unitok.NewUnicodeTokenizer(),
		lemmatizer: NewDictionaryLemmatizer(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Tokens 返回规范化后的词元序列。
func (n *Normalizer) Tokens(text string) []string {
	if text == "" {
		return nil
	}
	stream := n.tokenizer.Tokenize([]byte(strings.ToLower(text)))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		term := string(tok.Term)
		if !isAlnum(term) {
			continue
		}
		out = append(out, n.lemmatizer.Lemmatize(term))
	}
	return out
}

// Normalize 返回以单个空格连接的规范化文本。
func (n *Normalizer) Normalize(text string) string {
	return strings.Join(n.Tokens(text), " ")
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
