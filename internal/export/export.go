// Package export reads batch comparison inputs and writes batch results as JSON or Parquet.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/haimeda/statement-scorer/internal/core/domain"
)

// Formats.
const (
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

const readBatchRows = 128

// ErrUnsupportedFormat is returned for formats other than json and parquet.
var ErrUnsupportedFormat = errors.New("unsupported format")

// PairRecord is one input pair.
type PairRecord struct {
	Statement1 string `json:"statement1" parquet:"statement1"`
	Statement2 string `json:"statement2" parquet:"statement2"`
}

// ResultRow is the flat Parquet layout of a ComparisonResult.
type ResultRow struct {
	Statement1     string   `parquet:"statement1"`
	Statement2     string   `parquet:"statement2"`
	BasicScore     int64    `parquet:"basic_score"`
	CombinedScore  int64    `parquet:"combined_score"`
	Confidence     int64    `parquet:"confidence"`
	Interpretation string   `parquet:"interpretation"`
	Transformer    int64    `parquet:"transformer_similarity"`
	Lexical        int64    `parquet:"tfidf_similarity"`
	Euclidean      int64    `parquet:"euclidean_similarity"`
	Manhattan      int64    `parquet:"manhattan_similarity"`
	Domain         int64    `parquet:"domain_similarity"`
	Overlap        int64    `parquet:"overlap_percent"`
	Keywords1      []string `parquet:"keywords1,list"`
	Keywords2      []string `parquet:"keywords2,list"`
	CommonKeywords []string `parquet:"common_keywords,list"`
	Error          string   `parquet:"error,optional"`
	ErrorKind      string   `parquet:"error_kind,optional"`
}

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}

	return FormatJSON
}

// LoadPairs reads input pairs from a JSON array file or a Parquet file.
func LoadPairs(path string) ([]domain.Pair, error) {
	var (
		records []PairRecord
		err     error
	)

	switch FormatFromPath(path) {
	case FormatParquet:
		records, err = loadParquetPairs(path)
	default:
		records, err = loadJSONPairs(path)
	}

	if err != nil {
		return nil, err
	}

	pairs := make([]domain.Pair, len(records))
	for i, r := range records {
		pairs[i] = domain.NewPair(r.Statement1, r.Statement2)
	}

	return pairs, nil
}

func loadJSONPairs(path string) ([]PairRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pairs %s: %w", path, err)
	}

	var records []PairRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding pairs %s: %w", path, err)
	}

	return records, nil
}

func loadParquetPairs(path string) ([]PairRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pairs %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("opening parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[PairRecord](pf)
	defer reader.Close()

	var records []PairRecord

	rows := make([]PairRecord, readBatchRows)

	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading parquet %s: %w", path, err)
		}
	}

	return records, nil
}

// WriteResults writes results to w in the given format.
func WriteResults(w io.Writer, format string, results []domain.ComparisonResult) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)

		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}

		return nil
	case FormatParquet:
		return writeParquet(w, results)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func writeParquet(w io.Writer, results []domain.ComparisonResult) error {
	rows := make([]ResultRow, len(results))
	for i, r := range results {
		rows[i] = toRow(r)
	}

	writer := parquet.NewGenericWriter[ResultRow](w)

	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("writing parquet rows: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}

	return nil
}

func toRow(r domain.ComparisonResult) ResultRow {
	return ResultRow{
		Statement1:     r.Statement1,
		Statement2:     r.Statement2,
		BasicScore:     int64(r.BasicScore),
		CombinedScore:  int64(r.CombinedScore),
		Confidence:     int64(r.Confidence),
		Interpretation: r.Interpretation,
		Transformer:    int64(r.Transformer),
		Lexical:        int64(r.Lexical),
		Euclidean:      int64(r.Euclidean),
		Manhattan:      int64(r.Manhattan),
		Domain:         int64(r.Domain),
		Overlap:        int64(r.Overlap),
		Keywords1:      r.Keywords1,
		Keywords2:      r.Keywords2,
		CommonKeywords: r.CommonKeywords,
		Error:          r.Error,
		ErrorKind:      r.ErrorKind,
	}
}
