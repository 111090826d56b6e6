package indexer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Export formats accepted by ExportFile.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// ErrUnknownExportFormat is returned for export formats other than csv and
// jsonl.
var ErrUnknownExportFormat = errors.New("unknown export format")

// csvHeader is the column order for CSV exports.
var csvHeader = []string{"id", "vector_id", "title", "text", "title_vector", "content_vector", "category"}

// WriteCSV writes rows as CSV with the vector columns JSON-encoded, the
// shape columnar bulk loaders ingest.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, row := range rows {
		titleVector, err := json.Marshal(row.TitleVector)
		if err != nil {
			return fmt.Errorf("failed to encode title vector for row %d: %w", i, err)
		}
		contentVector, err := json.Marshal(row.ContentVector)
		if err != nil {
			return fmt.Errorf("failed to encode content vector for row %d: %w", i, err)
		}

		record := []string{
			row.ID,
			row.VectorID,
			row.Title,
			row.Text,
			string(titleVector),
			string(contentVector),
			row.Category,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSONL writes rows as newline-delimited JSON, one row object per line.
func WriteJSONL(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
	}
	return nil
}

// ExportFile writes rows to path in the given format ("csv" or "jsonl").
func ExportFile(path, format string, rows []Row) error {
	format = strings.ToLower(format)
	if format != FormatCSV && format != FormatJSONL {
		return fmt.Errorf("%w: %q", ErrUnknownExportFormat, format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	var writeErr error
	switch format {
	case FormatCSV:
		writeErr = WriteCSV(f, rows)
	case FormatJSONL:
		writeErr = WriteJSONL(f, rows)
	}

	if closeErr := f.Close(); writeErr == nil && closeErr != nil {
		writeErr = fmt.Errorf("failed to close export file: %w", closeErr)
	}
	return writeErr
}
