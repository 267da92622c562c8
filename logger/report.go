package logger

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Run counters. These track the analytics pipeline itself: how many snapshot
// files were parsed or skipped, how much work the extractor and differ did,
// and how many artifacts the writer produced.
var (
	warnsTotal       int64
	errorsTotal      int64
	snapshotsParsed  int64
	snapshotBytes    int64
	filesSkipped     int64
	cohortsExtracted int64
	changeEvents     int64
	artifactsWritten int64
	artifactBytes    int64
	s3UploadsTotal   int64
	parquetRowsTotal int64
)

func recordWarn()  { atomic.AddInt64(&warnsTotal, 1) }
func recordError() { atomic.AddInt64(&errorsTotal, 1) }

// IncrementSnapshotParsed records one successfully parsed snapshot document.
func IncrementSnapshotParsed(size int) {
	atomic.AddInt64(&snapshotsParsed, 1)
	atomic.AddInt64(&snapshotBytes, int64(size))
}

// IncrementFileSkipped records one file excluded from the ordered sequence.
func IncrementFileSkipped() {
	atomic.AddInt64(&filesSkipped, 1)
}

// IncrementCohortsExtracted records cohorts produced for one day.
func IncrementCohortsExtracted(n int) {
	atomic.AddInt64(&cohortsExtracted, int64(n))
}

// IncrementChangeEvents records events emitted for one day-pair.
func IncrementChangeEvents(n int) {
	atomic.AddInt64(&changeEvents, int64(n))
}

// IncrementArtifactWritten records one report artifact flushed to disk.
func IncrementArtifactWritten(size int64) {
	atomic.AddInt64(&artifactsWritten, 1)
	atomic.AddInt64(&artifactBytes, size)
}

// IncrementS3Upload records one artifact uploaded to S3.
func IncrementS3Upload() {
	atomic.AddInt64(&s3UploadsTotal, 1)
}

// IncrementParquetRows records rows written to the parquet export.
func IncrementParquetRows(n int) {
	atomic.AddInt64(&parquetRowsTotal, int64(n))
}

// StartReport begins periodic logging of system and pipeline statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"warns":             atomic.LoadInt64(&warnsTotal),
		"errors":            atomic.LoadInt64(&errorsTotal),
		"snapshots_parsed":  atomic.LoadInt64(&snapshotsParsed),
		"snapshot_bytes":    atomic.LoadInt64(&snapshotBytes),
		"files_skipped":     atomic.LoadInt64(&filesSkipped),
		"cohorts_extracted": atomic.LoadInt64(&cohortsExtracted),
		"change_events":     atomic.LoadInt64(&changeEvents),
		"artifacts_written": atomic.LoadInt64(&artifactsWritten),
		"artifact_bytes":    atomic.LoadInt64(&artifactBytes),
		"s3_uploads":        atomic.LoadInt64(&s3UploadsTotal),
		"parquet_rows":      atomic.LoadInt64(&parquetRowsTotal),
		"goroutines":        runtime.NumGoroutine(),
		"cpu_percent":       cpuPct,
		"memory_mb":         int64(memStats.Used) / 1024 / 1024,
		"disk_mb":           int64(diskStats.Used) / 1024 / 1024,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("DAS-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		{MetricName: aws.String("DAS-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		{MetricName: aws.String("DAS-Warns"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&warnsTotal)))},
		{MetricName: aws.String("DAS-Errors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&errorsTotal)))},
		{MetricName: aws.String("DAS-SnapshotsParsed"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&snapshotsParsed)))},
		{MetricName: aws.String("DAS-FilesSkipped"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&filesSkipped)))},
		{MetricName: aws.String("DAS-CohortsExtracted"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&cohortsExtracted)))},
		{MetricName: aws.String("DAS-ChangeEvents"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&changeEvents)))},
		{MetricName: aws.String("DAS-ArtifactsWritten"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&artifactsWritten)))},
		{MetricName: aws.String("DAS-S3Uploads"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&s3UploadsTotal)))},
	}
	publishMetrics(ctx, data)
}

// ReportFinal emits one final runtime report, used at the end of a batch run
// where the periodic ticker may never have fired.
func ReportFinal(ctx context.Context, log *Log) {
	logReport(ctx, log)
}
