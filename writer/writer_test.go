package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	appconfig "dasinsights/config"
	"dasinsights/internal/metadata"
	"dasinsights/metrics"
	"dasinsights/models"
)

func testWriterConfig(dir string) *appconfig.Config {
	return &appconfig.Config{
		Insights: appconfig.InsightsConfig{Name: "das-insights", Version: "test"},
		Output: appconfig.OutputConfig{
			Dir:      dir,
			Manifest: true,
			Parquet:  appconfig.ParquetConfig{Enabled: true, Compression: "snappy"},
		},
	}
}

func testRunResult() *metrics.RunResult {
	event := models.ChangeEvent{
		Cohort:   "US|example.com|mobile",
		PrevDate: "2024-03-01",
		CurrDate: "2024-03-02",
		Kinds:    []models.ChangeKind{models.ChangeListChanged},
		Added:    []string{"c"},
		Removed:  []string{"b"},
	}
	report := models.PairChangeReport{PrevDate: "2024-03-01", CurrDate: "2024-03-02"}
	report.Counts.ListChanged = 1
	report.ListChangedExamples = append(report.ListChangedExamples, event)

	return &metrics.RunResult{
		Dates: []string{"2024-03-01", "2024-03-02"},
		Summaries: []models.DaySummary{
			{Date: "2024-03-01", Cohorts: 1, UniqueIDSets: 1, UniqueConfigs: 1},
			{Date: "2024-03-02", Cohorts: 1, UniqueIDSets: 1, UniqueConfigs: 1},
		},
		Fingerprints: []models.FingerprintReport{
			{Date: "2024-03-01", Entries: []models.FingerprintEntry{{Cohort: "US|example.com|mobile", IDs: []string{"a", "b"}}}},
			{Date: "2024-03-02", Entries: []models.FingerprintEntry{{Cohort: "US|example.com|mobile", IDs: []string{"a", "c"}}}},
		},
		PairReports: []models.PairChangeReport{report},
		Pairs: []*metrics.DayPairChanges{{
			PrevDate: "2024-03-01",
			CurrDate: "2024-03-02",
			Events:   []models.ChangeEvent{event},
			Present:  []models.CohortKey{"US|example.com|mobile"},
		}},
		Aggregate: &models.AggregateReport{
			RunID:       "run-test",
			WindowStart: "2024-03-01",
			WindowEnd:   "2024-03-02",
			WindowDays:  2,
			DayPairs:    1,
			TopByListChanges: []models.VelocityEntry{{
				Cohort:          "US|example.com|mobile",
				TotalChanges:    1,
				ListChanges:     1,
				PairsObserved:   1,
				ChangeFrequency: 100,
			}},
			GeneratedAt: time.Now().UTC(),
		},
	}
}

func TestWriteAllEmitsEveryArtifact(t *testing.T) {
	dir := t.TempDir()
	w, err := NewReportWriter(testWriterConfig(dir))
	if err != nil {
		t.Fatalf("NewReportWriter: %v", err)
	}
	if err := w.WriteAll(context.Background(), testRunResult()); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	for _, name := range []string{
		"summary-2024-03-01.json",
		"summary-2024-03-02.json",
		"fingerprints-2024-03-01.json",
		"fingerprints-2024-03-02.json",
		"changes-2024-03-01_2024-03-02.json",
		"aggregate.json",
		"changes.parquet",
		"manifest.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest metadata.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if manifest.RunID != "run-test" {
		t.Errorf("manifest run id mismatch: %q", manifest.RunID)
	}
	// Manifest indexes every artifact except itself.
	if len(manifest.Artifacts) != 7 {
		t.Errorf("expected 7 manifest entries, got %d: %+v", len(manifest.Artifacts), manifest.Artifacts)
	}
	for _, artifact := range manifest.Artifacts {
		if artifact.FileSize <= 0 {
			t.Errorf("artifact %s has no recorded size", artifact.Path)
		}
	}

	var changes models.PairChangeReport
	raw, err = os.ReadFile(filepath.Join(dir, "changes-2024-03-01_2024-03-02.json"))
	if err != nil {
		t.Fatalf("read change report: %v", err)
	}
	if err := json.Unmarshal(raw, &changes); err != nil {
		t.Fatalf("parse change report: %v", err)
	}
	if changes.Counts.ListChanged != 1 || len(changes.ListChangedExamples) != 1 {
		t.Errorf("change report round trip mismatch: %+v", changes)
	}
}

func TestCreateParquetFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewReportWriter(testWriterConfig(dir))
	if err != nil {
		t.Fatalf("NewReportWriter: %v", err)
	}

	data, rows, err := w.createParquetFile(testRunResult())
	if err != nil {
		t.Fatalf("createParquetFile: %v", err)
	}
	if rows != 1 {
		t.Errorf("expected 1 row, got %d", rows)
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) {
		t.Errorf("parquet output missing magic header")
	}
}

func TestWriteParquetSkippedWhenNoEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := NewReportWriter(testWriterConfig(dir))
	if err != nil {
		t.Fatalf("NewReportWriter: %v", err)
	}

	result := testRunResult()
	result.Pairs = []*metrics.DayPairChanges{{
		PrevDate:  "2024-03-01",
		CurrDate:  "2024-03-02",
		Present:   []models.CohortKey{"US|example.com|mobile"},
		Unchanged: 1,
	}}
	result.PairReports[0] = models.PairChangeReport{PrevDate: "2024-03-01", CurrDate: "2024-03-02"}

	if err := w.WriteAll(context.Background(), result); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "changes.parquet")); !os.IsNotExist(err) {
		t.Errorf("parquet export must be skipped when there are no change events")
	}
}
