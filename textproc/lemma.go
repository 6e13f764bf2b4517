package textproc

import (
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
)

// Lemmatizer 把单个小写词元还原为基本形式。
type Lemmatizer interface {
	Name() string
	Lemmatize(token string) string
}

// NewLemmatizer 按名称创建词形还原器：dictionary（默认）或 snowball。
func NewLemmatizer(name string) Lemmatizer {
	switch strings.ToLower(name) {
	case "snowball", "stem":
		return SnowballLemmatizer{}
	default:
		return NewDictionaryLemmatizer()
	}
}

// DictionaryLemmatizer 是名词词形还原：先查不规则词典，再按复数后缀规则剥离。
// 规则与 WordNet morphy 的名词部分一致，只是不校验结果是否在词库中。
type DictionaryLemmatizer struct {
	irregular map[string]string
}

// NewDictionaryLemmatizer 使用内置不规则词典。
func NewDictionaryLemmatizer() *DictionaryLemmatizer {
	return &DictionaryLemmatizer{irregular: irregularNouns}
}

func (l *DictionaryLemmatizer) Name() string { return "dictionary" }

func (l *DictionaryLemmatizer) Lemmatize(token string) string {
	if lemma, ok := l.irregular[token]; ok {
		return lemma
	}
	if len(token) < 4 {
		return token
	}
	for _, rule := range nounSuffixRules {
		if strings.HasSuffix(token, rule.suffix) {
			return token[:len(token)-len(rule.suffix)] + rule.replace
		}
	}
	for _, keep := range keepSuffixes {
		if strings.HasSuffix(token, keep) {
			return token
		}
	}
	if strings.HasSuffix(token, "s") {
		return token[:len(token)-1]
	}
	return token
}

type suffixRule struct {
	suffix  string
	replace string
}

// 按顺序匹配，先长后短
var nounSuffixRules = []suffixRule{
	{"sses", "ss"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"xes", "x"},
	{"zzes", "zz"},
	{"ies", "y"},
}

var keepSuffixes = []string{"ss", "us", "is", "ics"}

var irregularNouns = map[string]string{
	"children": "child",
	"women":    "woman",
	"men":      "man",
	"feet":     "foot",
	"teeth":    "tooth",
	"geese":    "goose",
	"mice":     "mouse",
	"people":   "person",
	"knives":   "knife",
	"wives":    "wife",
	"lives":    "life",
	"leaves":   "leaf",
	"shelves":  "shelf",
	"wolves":   "wolf",
	"halves":   "half",
	"scarves":  "scarf",
	"loaves":   "loaf",
	"gloves":   "glove",
	"movies":   "movie",
	"cookies":  "cookie",
	"pies":     "pie",
	"ties":     "tie",
	"shoes":    "shoe",
	"toes":     "toe",
	"dice":     "die",
	"series":   "series",
	"species":  "species",
	"news":     "news",
	"jeans":    "jeans",
	"glasses":  "glass",
	"clothes":  "clothes",
	"lens":     "lens",
}

// SnowballLemmatizer 使用 Snowball English 词干算法，召回更宽但结果不一定是合法词。
type SnowballLemmatizer struct{}

func (SnowballLemmatizer) Name() string { return "snowball" }

func (SnowballLemmatizer) Lemmatize(token string) string {
	env := snowballstem.NewEnv(token)
	english.Stem(env)
	return env.Current()
}
