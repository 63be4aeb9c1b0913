package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
	"github.com/haimeda/statement-scorer/internal/platform/circuit"
)

const testClaim = "Der Schaden wurde gemeldet."

func TestNew_UnconfiguredIsUnavailable(t *testing.T) {
	logger := zerolog.Nop()
	a := New(HTTPConfig{}, &logger)

	_, err := a.Analyze(context.Background(), testClaim, "de")
	assert.ErrorIs(t, err, scorerrors.ErrAnalyzerUnavailable)
}

func TestHTTPAnalyzer_Analyze(t *testing.T) {
	gotLang := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, analyzePath, r.URL.Path)

		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotLang <- req.Lang

		_, _ = w.Write([]byte(`{
			"tokens": [
				{"text": "Der", "lemma": "der", "pos": "DET", "is_stop": true},
				{"text": "Schaden", "lemma": "Schaden", "pos": "NOUN"},
				{"text": ".", "lemma": ".", "pos": "PUNCT", "is_punct": true}
			],
			"ents": [],
			"noun_chunks": ["Der Schaden"]
		}`))
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	a := NewHTTPAnalyzer(HTTPConfig{BaseURL: srv.URL}, &logger)

	res, err := a.Analyze(context.Background(), testClaim, "de")
	require.NoError(t, err)

	assert.Equal(t, "de", <-gotLang)
	require.Len(t, res.Tokens, 3)
	assert.Equal(t, POSNoun, res.Tokens[1].POS)
	assert.True(t, res.Tokens[2].IsPunct)
	assert.Equal(t, []string{"Der Schaden"}, res.NounChunks)
}

func TestHTTPAnalyzer_FailureOpensCircuit(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	a := NewHTTPAnalyzer(HTTPConfig{
		BaseURL: srv.URL,
		Circuit: circuit.Config{Threshold: 1, ResetAfter: time.Hour},
	}, &logger)

	_, err := a.Analyze(context.Background(), testClaim, "de")
	require.ErrorIs(t, err, ErrAnalyzerAPIFailure)
	assert.ErrorIs(t, err, scorerrors.ErrAnalyzerUnavailable)

	_, err = a.Analyze(context.Background(), testClaim, "de")
	require.ErrorIs(t, err, scorerrors.ErrCircuitBreakerOpen)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("ä", MaxAnalyzeRunes+10)

	assert.Equal(t, MaxAnalyzeRunes, RuneLen(Truncate(long)))
	assert.Equal(t, testClaim, Truncate(testClaim))
}

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "german umlauts", text: "Schäden für Gebäude!", want: []string{"schäden", "für", "gebäude"}},
		{name: "punctuation and digits", text: "Input-Modul 2, Output_3.", want: []string{"input", "modul", "2", "output_3"}},
		{name: "empty", text: "  ...  ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Words(tt.text))
		})
	}
}
