package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haimeda/statement-scorer/internal/core/domain"
)

func sampleResults() []domain.ComparisonResult {
	ok := domain.ComparisonResult{
		Statement1:     "Der Schaden wurde gemeldet.",
		Statement2:     "Der Schaden wurde gemeldet.",
		BasicScore:     100,
		CombinedScore:  100,
		Confidence:     100,
		Interpretation: "nearly identical",
		MetricBundle:   domain.MetricBundle{Transformer: 100, Lexical: 100, Euclidean: 100, Manhattan: 100, Domain: 100, Overlap: 100},
		Keywords1:      []string{"schaden", "gemeldet"},
		Keywords2:      []string{"schaden", "gemeldet"},
		CommonKeywords: []string{"schaden", "gemeldet"},
	}

	failed := domain.Placeholder(domain.NewPair("a", "b"), "encoder", assert.AnError)

	return []domain.ComparisonResult{ok, failed}
}

func TestWriteResultsJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteResults(&buf, FormatJSON, sampleResults()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	assert.InDelta(t, 100, decoded[0]["combined_score"], 0)
	assert.InDelta(t, 100, decoded[0]["overlap_percent"], 0)
	assert.NotContains(t, decoded[0], "error")
	assert.Equal(t, "encoder", decoded[1]["error_kind"])
	assert.Equal(t, "error", decoded[1]["interpretation"])
	assert.Equal(t, []any{}, decoded[1]["keywords1"])
}

func TestWriteResultsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.parquet")

	f, err := os.Create(path)
	require.NoError(t, err)

	require.NoError(t, WriteResults(f, FormatParquet, sampleResults()))
	require.NoError(t, f.Close())

	rows, err := parquet.ReadFile[ResultRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(100), rows[0].CombinedScore)
	assert.Equal(t, []string{"schaden", "gemeldet"}, rows[0].CommonKeywords)
	assert.Equal(t, "encoder", rows[1].ErrorKind)
}

func TestWriteResultsUnsupported(t *testing.T) {
	err := WriteResults(&bytes.Buffer{}, "xml", nil)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadPairs(t *testing.T) {
	dir := t.TempDir()
	records := []PairRecord{
		{Statement1: "Es regnet heute.", Statement2: "Der Computer berechnet Zahlen."},
		{Statement1: "Wasser im Keller.", Statement2: "Der Schaden wurde gemeldet."},
	}

	jsonPath := filepath.Join(dir, "pairs.json")
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jsonPath, data, 0o600))

	parquetPath := filepath.Join(dir, "pairs.parquet")
	require.NoError(t, parquet.WriteFile(parquetPath, records))

	for _, path := range []string{jsonPath, parquetPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			pairs, err := LoadPairs(path)
			require.NoError(t, err)
			require.Len(t, pairs, 2)

			assert.Equal(t, "Es regnet heute.", pairs[0].First.Text)
			assert.Equal(t, "Der Schaden wurde gemeldet.", pairs[1].Second.Text)
		})
	}
}

func TestLoadPairsErrors(t *testing.T) {
	_, err := LoadPairs(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))

	_, err = LoadPairs(bad)
	require.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatParquet, FormatFromPath("out/RESULTS.PARQUET"))
	assert.Equal(t, FormatJSON, FormatFromPath("out/results.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("results"))
}
