package textproc

import (
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

var (
	englishStopwords     analysis.TokenMap
	englishStopwordsOnce sync.Once
)

// EnglishStopwords 返回英文停用词表（只读，进程内共享）。
func EnglishStopwords() map[string]bool {
	englishStopwordsOnce.Do(func() {
		tm := analysis.NewTokenMap()
		if err := tm.LoadBytes(en.EnglishStopWords); err != nil {
			tm = analysis.NewTokenMap()
		}
		englishStopwords = tm
	})
	return englishStopwords
}
