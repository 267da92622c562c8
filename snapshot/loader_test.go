package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dasinsights/models"
)

func writeSnapshot(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write snapshot file: %v", err)
	}
}

const minimalDoc = `{"defaultConfig": {"US": {"example.com": {"mobile": {"bidders": ["appnexus"]}}}}}`

func TestScanDirOrdersByDate(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "05-mar-2024-das-2-0-bidder-selection-optimised.json", minimalDoc)
	writeSnapshot(t, dir, "28-feb-2024-das-2-0-bidder-selection-optimized.json", minimalDoc)
	writeSnapshot(t, dir, "01-mar-2024-das-2-0-bidder-selection-optimised.json", minimalDoc)
	writeSnapshot(t, dir, "README.md", "not a snapshot")

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	want := []string{"2024-02-28", "2024-03-01", "2024-03-05"}
	for i, w := range want {
		if files[i].Date != w {
			t.Errorf("files[%d].Date = %s, want %s", i, files[i].Date, w)
		}
	}
}

func TestScanDirSkipsDuplicateDates(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "01-mar-2024-das-2-0-bidder-selection-optimised.json", minimalDoc)
	writeSnapshot(t, dir, "01-mar-2024-das-2-0-bidder-selection-optimized.json", minimalDoc)

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected duplicate date to be skipped, got %d files", len(files))
	}
}

func TestLoadAllPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "01-mar-2024-das-2-0-bidder-selection-optimised.json", minimalDoc)
	writeSnapshot(t, dir, "02-mar-2024-das-2-0-bidder-selection-optimised.json", minimalDoc)
	writeSnapshot(t, dir, "03-mar-2024-das-2-0-bidder-selection-optimised.json", minimalDoc)

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	docs, err := LoadAll(context.Background(), files, 4)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i, f := range files {
		if docs[i].Date != f.Date {
			t.Errorf("docs[%d].Date = %s, want %s", i, docs[i].Date, f.Date)
		}
		if docs[i].Root == nil {
			t.Errorf("docs[%d] has nil root", i)
		}
	}
}

func TestLoadAllAbortsOnSchemaError(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "01-mar-2024-das-2-0-bidder-selection-optimised.json", minimalDoc)
	writeSnapshot(t, dir, "02-mar-2024-das-2-0-bidder-selection-optimised.json", `{"noDefaultConfig": {}}`)

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	_, err = LoadAll(context.Background(), files, 2)
	var schemaErr *models.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}
