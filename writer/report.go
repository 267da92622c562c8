package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	appconfig "dasinsights/config"
	"dasinsights/internal/metadata"
	"dasinsights/logger"
	"dasinsights/metrics"
)

// ReportWriter flushes one run's artifacts to the output directory: per-day
// summaries and fingerprint maps, per-day-pair change reports, the aggregate
// report, an optional parquet export of change events, and a closing run
// manifest. Artifacts are plain files; nothing else is persisted.
type ReportWriter struct {
	config   *appconfig.Config
	log      *logger.Log
	uploader *s3Uploader
}

func NewReportWriter(cfg *appconfig.Config) (*ReportWriter, error) {
	log := logger.GetLogger()

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	w := &ReportWriter{config: cfg, log: log}

	if cfg.Storage.S3.Enabled {
		uploader, err := newS3Uploader(cfg)
		if err != nil {
			return nil, err
		}
		w.uploader = uploader
	} else {
		log.WithComponent("report_writer").Info("S3 storage disabled; artifacts stay local")
	}

	log.WithComponent("report_writer").WithFields(logger.Fields{
		"dir":     cfg.Output.Dir,
		"parquet": cfg.Output.Parquet.Enabled,
		"s3":      cfg.Storage.S3.Enabled,
	}).Info("report writer initialized")
	return w, nil
}

// WriteAll emits every artifact for the run. The manifest is written last so
// its presence marks a complete run.
func (w *ReportWriter) WriteAll(ctx context.Context, result *metrics.RunResult) error {
	manifest := metadata.NewGenerator(w.config.Output.Dir, result.Aggregate.RunID)

	for _, summary := range result.Summaries {
		name := fmt.Sprintf("summary-%s.json", summary.Date)
		if err := w.writeArtifact(ctx, manifest, name, "day_summary", summary.Date, 1, summary); err != nil {
			return err
		}
	}

	for _, report := range result.Fingerprints {
		name := fmt.Sprintf("fingerprints-%s.json", report.Date)
		if err := w.writeArtifact(ctx, manifest, name, "fingerprint_map", report.Date, int64(len(report.Entries)), report); err != nil {
			return err
		}
	}

	for _, report := range result.PairReports {
		name := fmt.Sprintf("changes-%s_%s.json", report.PrevDate, report.CurrDate)
		date := report.PrevDate + ".." + report.CurrDate
		records := int64(report.Counts.Appeared + report.Counts.Disappeared + report.Counts.ListChanged + report.Counts.ConfigChanged + report.Counts.Reordered)
		if err := w.writeArtifact(ctx, manifest, name, "pair_changes", date, records, report); err != nil {
			return err
		}
	}

	topEntries := int64(len(result.Aggregate.TopByConfigChanges) + len(result.Aggregate.TopByListChanges))
	if err := w.writeArtifact(ctx, manifest, "aggregate.json", "aggregate", "", topEntries, result.Aggregate); err != nil {
		return err
	}

	if w.config.Output.Parquet.Enabled {
		if err := w.writeParquet(ctx, manifest, result); err != nil {
			return err
		}
	}

	w.log.LogMetric("report_writer", "artifacts_written", manifest.Count(), nil)

	if w.config.Output.Manifest {
		path, err := manifest.Write()
		if err != nil {
			return err
		}
		w.log.WithComponent("report_writer").WithFields(logger.Fields{"manifest": path}).Info("run manifest written")
	}

	return nil
}

func (w *ReportWriter) writeArtifact(ctx context.Context, manifest *metadata.Generator, name, kind, date string, records int64, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", name, err)
	}
	data = append(data, '\n')

	path := filepath.Join(w.config.Output.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	logger.IncrementArtifactWritten(int64(len(data)))
	manifest.Add(metadata.Artifact{
		Path:        name,
		Kind:        kind,
		FileSize:    int64(len(data)),
		RecordCount: records,
		Date:        date,
	})

	w.log.WithComponent("report_writer").WithFields(logger.Fields{
		"artifact": name,
		"kind":     kind,
		"bytes":    len(data),
	}).Debug("artifact written")

	if w.uploader != nil {
		if err := w.uploader.upload(ctx, name, data, "application/json"); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReportWriter) writeParquet(ctx context.Context, manifest *metadata.Generator, result *metrics.RunResult) error {
	data, rows, err := w.createParquetFile(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		w.log.WithComponent("report_writer").Info("no change events; skipping parquet export")
		return nil
	}

	const name = "changes.parquet"
	path := filepath.Join(w.config.Output.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	logger.IncrementArtifactWritten(int64(len(data)))
	logger.IncrementParquetRows(int(rows))
	manifest.Add(metadata.Artifact{
		Path:        name,
		Kind:        "change_events",
		FileSize:    int64(len(data)),
		RecordCount: rows,
	})

	if w.uploader != nil {
		if err := w.uploader.upload(ctx, name, data, "application/octet-stream"); err != nil {
			return err
		}
	}
	return nil
}
