package batch

import (
	"context"
	"sync"

	"github.com/haimeda/statement-scorer/internal/core/analysis"
)

// analysisMemo analyzes each (text, language) once per batch. The keyword
// extractor and the domain signal both read the same analysis.
type analysisMemo struct {
	inner   analysis.Analyzer
	entries sync.Map
}

type analysisKey struct {
	text string
	lang string
}

type analysisEntry struct {
	once sync.Once
	res  analysis.Analysis
	err  error
}

func newAnalysisMemo(inner analysis.Analyzer) *analysisMemo {
	if inner == nil {
		inner = analysis.Unavailable{}
	}

	return &analysisMemo{inner: inner}
}

func (m *analysisMemo) Analyze(ctx context.Context, text, lang string) (analysis.Analysis, error) {
	v, _ := m.entries.LoadOrStore(analysisKey{text: text, lang: lang}, &analysisEntry{})
	e := v.(*analysisEntry) //nolint:forcetypeassert // only *analysisEntry is stored

	e.once.Do(func() {
		e.res, e.err = m.inner.Analyze(ctx, text, lang)
	})

	return e.res, e.err
}

// Clear drops every memoized analysis.
func (m *analysisMemo) Clear() {
	m.entries.Clear()
}
