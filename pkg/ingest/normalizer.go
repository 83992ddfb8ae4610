package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// MaxSnippetRows caps how many data rows of a source are retained in the
// stored snippet. The true row count is tracked separately.
const MaxSnippetRows = 500

// File is one raw uploaded file, as received from the transport layer.
type File struct {
	Name    string
	Content []byte
}

// Snippet is one normalized table extracted from an upload: a unique name,
// a size-capped CSV payload, and the full row count of the original source.
type Snippet struct {
	Name         string
	Content      string
	TrueRowCount int
}

// Normalizer converts heterogeneous uploads into uniform snippets. Sheets
// or files that yield no usable rows are discarded silently; a parse failure
// on one file never aborts its siblings.
type Normalizer struct {
	logf func(format string, args ...interface{})
}

func NewNormalizer(logf func(format string, args ...interface{})) *Normalizer {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Normalizer{logf: logf}
}

// NormalizeBatch processes all files of one upload batch concurrently and
// joins before returning. The result preserves the input file order (and
// sheet order within a workbook); an empty result is valid and means the
// batch contained no usable data.
func (n *Normalizer) NormalizeBatch(ctx context.Context, files []File) []Snippet {
	results := make([][]Snippet, len(files))

	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i, f := range files {
		g.Go(func() error {
			snippets := n.normalizeFile(ctx, f)
			mu.Lock()
			results[i] = snippets
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; discards are per-file.
	_ = g.Wait()

	var out []Snippet
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func (n *Normalizer) normalizeFile(ctx context.Context, f File) []Snippet {
	if ctx.Err() != nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	switch ext {
	case ".xlsx", ".xls":
		return n.normalizeWorkbook(f)
	default:
		s, ok := n.normalizeDelimited(f)
		if !ok {
			return nil
		}
		return []Snippet{s}
	}
}

// normalizeWorkbook expands a spreadsheet into one candidate snippet per
// sheet. A single-sheet workbook is named after the workbook file; otherwise
// each snippet is named after its sheet.
func (n *Normalizer) normalizeWorkbook(f File) []Snippet {
	wb, err := excelize.OpenReader(bytes.NewReader(f.Content))
	if err != nil {
		n.logf("ingest: discarding workbook %s: %v", f.Name, err)
		return nil
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	var out []Snippet
	for _, sheet := range sheets {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			n.logf("ingest: discarding sheet %s of %s: %v", sheet, f.Name, err)
			continue
		}

		name := sheet + ".csv"
		if len(sheets) == 1 {
			base := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
			name = base + ".csv"
		}

		snippet, ok := n.snippetFromRows(name, rows, len(rows))
		if !ok {
			n.logf("ingest: sheet %s of %s has no usable rows", sheet, f.Name)
			continue
		}
		out = append(out, snippet)
	}
	return out
}

// normalizeDelimited handles flat CSV-like text. The true row count is the
// number of non-blank lines minus the header; the retained content is the
// re-serialized first MaxSnippetRows parsed rows.
func (n *Normalizer) normalizeDelimited(f File) (Snippet, bool) {
	content := string(f.Content)

	trueRows := 0
	for _, line := range strings.FieldsFunc(content, func(r rune) bool {
		return r == '\n' || r == '\r'
	}) {
		if strings.TrimSpace(line) != "" {
			trueRows++
		}
	}
	trueRows-- // header
	if trueRows < 0 {
		trueRows = 0
	}

	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	var records [][]string
	for len(records) < MaxSnippetRows+1 { // header + data rows
		record, err := r.Read()
		if err != nil {
			break
		}
		if allEmpty(record) {
			continue
		}
		records = append(records, record)
	}

	snippet, ok := n.snippetFromRows(f.Name, records, 1+trueRows)
	if !ok {
		n.logf("ingest: file %s has no usable rows", f.Name)
		return Snippet{}, false
	}
	return snippet, true
}

// snippetFromRows validates a candidate table and serializes it back to CSV.
// totalRows is the raw source row count including the header. Zero data
// rows, or a single row of entirely empty values, disqualifies the
// candidate.
func (n *Normalizer) snippetFromRows(name string, rows [][]string, totalRows int) (Snippet, bool) {
	if len(rows) < 2 {
		return Snippet{}, false
	}
	if len(rows) == 2 && allEmpty(rows[1]) {
		return Snippet{}, false
	}

	if len(rows) > MaxSnippetRows+1 {
		rows = rows[:MaxSnippetRows+1]
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	width := len(rows[0])
	for _, row := range rows {
		// Pad ragged rows so the snippet always parses as a rectangle.
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		if err := w.Write(row[:width]); err != nil {
			return Snippet{}, false
		}
	}
	w.Flush()
	if w.Error() != nil {
		return Snippet{}, false
	}

	trueCount := totalRows - 1
	if trueCount < 0 {
		trueCount = 0
	}
	return Snippet{
		Name:         name,
		Content:      strings.TrimRight(buf.String(), "\n"),
		TrueRowCount: trueCount,
	}, true
}

func allEmpty(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// DisplayName strips the extension a snippet carries for listing purposes.
func DisplayName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
