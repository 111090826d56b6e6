package indexer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleRows() []Row {
	return []Row{
		{
			ID:            "row-1",
			VectorID:      "vec-1",
			Title:         "First Doc",
			Text:          "plain chunk text",
			TitleVector:   []float32{0.5, 1},
			ContentVector: []float32{1.5, 2},
			Category:      "finance",
		},
		{
			ID:            "row-2",
			VectorID:      "vec-2",
			Title:         "Second Doc",
			Text:          "text with, comma and \"quotes\"\nand a newline",
			TitleVector:   []float32{0.25},
			ContentVector: []float32{0.75},
			Category:      "science",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("CSV records = %d, want header plus 2 rows", len(records))
	}

	wantHeader := []string{"id", "vector_id", "title", "text", "title_vector", "content_vector", "category"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}

	if records[1][0] != "row-1" || records[1][2] != "First Doc" || records[1][6] != "finance" {
		t.Errorf("row 1 = %v, want row-1 / First Doc / finance", records[1])
	}

	var contentVector []float32
	if err := json.Unmarshal([]byte(records[1][5]), &contentVector); err != nil {
		t.Fatalf("content vector cell is not JSON: %v", err)
	}
	if len(contentVector) != 2 || contentVector[0] != 1.5 || contentVector[1] != 2 {
		t.Errorf("content vector = %v, want [1.5 2]", contentVector)
	}

	// CSV quoting keeps commas, quotes, and newlines inside one cell.
	if records[2][3] != sampleRows()[1].Text {
		t.Errorf("row 2 text = %q, want %q", records[2][3], sampleRows()[1].Text)
	}
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteJSONL() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("JSONL lines = %d, want 2", len(lines))
	}

	var row Row
	if err := json.Unmarshal([]byte(lines[0]), &row); err != nil {
		t.Fatalf("line 0 is not JSON: %v", err)
	}
	want := sampleRows()[0]
	if row.ID != want.ID || row.VectorID != want.VectorID || row.Title != want.Title || row.Category != want.Category {
		t.Errorf("line 0 = %+v, want %+v", row, want)
	}
	if len(row.ContentVector) != 2 || row.ContentVector[1] != 2 {
		t.Errorf("line 0 content vector = %v, want [1.5 2]", row.ContentVector)
	}
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out", "rows.csv")
	if err := ExportFile(csvPath, "csv", sampleRows()); err != nil {
		t.Fatalf("ExportFile(csv) error = %v", err)
	}
	content, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.HasPrefix(string(content), "id,vector_id,title") {
		t.Errorf("CSV export should start with the header, got %q", string(content[:40]))
	}

	jsonlPath := filepath.Join(dir, "rows.jsonl")
	if err := ExportFile(jsonlPath, "JSONL", sampleRows()); err != nil {
		t.Fatalf("ExportFile(JSONL) error = %v", err)
	}
	if _, err := os.Stat(jsonlPath); err != nil {
		t.Errorf("JSONL export missing: %v", err)
	}

	err = ExportFile(filepath.Join(dir, "rows.xml"), "xml", sampleRows())
	if !errors.Is(err, ErrUnknownExportFormat) {
		t.Errorf("ExportFile(xml) error = %v, want ErrUnknownExportFormat", err)
	}
}
