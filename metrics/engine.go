package metrics

import (
	"context"
	"fmt"
	"sort"

	appconfig "dasinsights/config"
	"dasinsights/logger"
	"dasinsights/models"
	"dasinsights/snapshot"
)

// Engine runs the full extract → diff → aggregate pipeline over one folder
// of daily snapshots. Apart from the parallel file load, the pipeline is a
// single-threaded batch computation: each day-pair diff depends only on the
// immediately preceding day's cohort map, which is replaced wholesale each
// iteration.
type Engine struct {
	config *appconfig.Config
	log    *logger.Log
}

// RunResult bundles every artifact of one engine run. All computed fields
// are deterministic given identical inputs and window parameters.
type RunResult struct {
	Dates        []string
	Summaries    []models.DaySummary
	Fingerprints []models.FingerprintReport
	PairReports  []models.PairChangeReport
	Pairs        []*DayPairChanges
	Aggregate    *models.AggregateReport
}

func NewEngine(cfg *appconfig.Config) *Engine {
	return &Engine{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// Run executes one analysis over the snapshot directory. Unrecognized files
// were already skipped by the scanner; a schema failure or fewer than two
// usable snapshots aborts with no partial output.
func (e *Engine) Run(ctx context.Context, dir string) (*RunResult, error) {
	log := e.log.WithComponent("engine")

	files, err := snapshot.ScanDir(dir)
	if err != nil {
		return nil, err
	}
	if len(files) < 2 {
		return nil, fmt.Errorf("%w: found %d in %s", models.ErrInsufficientSnapshots, len(files), dir)
	}

	docs, err := snapshot.LoadAll(ctx, files, e.config.Loader.MaxWorkers)
	if err != nil {
		return nil, err
	}

	granularity := GranularityDevice
	if e.config.Analysis.PlacementCohorts {
		granularity = GranularityPlacement
	}
	diffOpts := DiffOptions{TrackReorders: e.config.Analysis.TrackReorders}

	result := &RunResult{}
	var prev *DaySnapshot
	for _, doc := range docs {
		day, err := BuildDaySnapshot(doc, granularity)
		if err != nil {
			return nil, err
		}
		logger.IncrementCohortsExtracted(len(day.Cohorts))

		result.Dates = append(result.Dates, day.Date)
		result.Summaries = append(result.Summaries, summarizeDay(day))
		result.Fingerprints = append(result.Fingerprints, fingerprintReport(day))

		if prev != nil {
			pair := Diff(prev, day, diffOpts)
			logger.IncrementChangeEvents(len(pair.Events))
			result.Pairs = append(result.Pairs, pair)
			result.PairReports = append(result.PairReports, buildPairReport(pair, e.config.Analysis.ExampleLimit))
			log.WithFields(logger.Fields{
				"prev_date": pair.PrevDate,
				"curr_date": pair.CurrDate,
				"cohorts":   len(pair.Present),
				"events":    len(pair.Events),
			}).Info("day pair diffed")
		}
		prev = day
	}

	aggregate, err := Aggregate(result.Pairs, result.Dates, VelocityOptions{
		WindowDays:  e.config.Analysis.WindowDays,
		TopN:        e.config.Analysis.TopN,
		RecentPairs: e.config.Analysis.RecentPairs,
	})
	if err != nil {
		return nil, err
	}
	result.Aggregate = aggregate

	log.WithFields(logger.Fields{
		"snapshots":    len(result.Dates),
		"day_pairs":    aggregate.DayPairs,
		"window_start": aggregate.WindowStart,
		"window_end":   aggregate.WindowEnd,
	}).Info("analysis run complete")

	events := 0
	for _, pair := range result.Pairs {
		events += len(pair.Events)
	}
	e.log.LogMetric("engine", "snapshots_analyzed", len(result.Dates), nil)
	e.log.LogMetric("engine", "day_pairs_analyzed", aggregate.DayPairs, nil)
	e.log.LogMetric("engine", "change_events_emitted", events, nil)
	return result, nil
}

func summarizeDay(day *DaySnapshot) models.DaySummary {
	idSets := make(map[string]struct{}, len(day.Cohorts))
	configs := make(map[string]struct{}, len(day.Cohorts))
	for _, ext := range day.Cohorts {
		idSets[ext.ListFingerprint] = struct{}{}
		configs[ext.ConfigFingerprint] = struct{}{}
	}
	return models.DaySummary{
		Date:          day.Date,
		Cohorts:       len(day.Cohorts),
		UniqueIDSets:  len(idSets),
		UniqueConfigs: len(configs),
	}
}

func fingerprintReport(day *DaySnapshot) models.FingerprintReport {
	report := models.FingerprintReport{
		Date:    day.Date,
		Entries: make([]models.FingerprintEntry, 0, len(day.Cohorts)),
	}
	for key, ext := range day.Cohorts {
		report.Entries = append(report.Entries, models.FingerprintEntry{
			Cohort:            key,
			IDs:               ext.IDs,
			ListFingerprint:   ext.ListFingerprint,
			ConfigFingerprint: ext.ConfigFingerprint,
		})
	}
	sort.Slice(report.Entries, func(i, j int) bool { return report.Entries[i].Cohort < report.Entries[j].Cohort })
	return report
}

func buildPairReport(pair *DayPairChanges, exampleLimit int) models.PairChangeReport {
	if exampleLimit <= 0 {
		exampleLimit = 5
	}
	report := models.PairChangeReport{
		PrevDate: pair.PrevDate,
		CurrDate: pair.CurrDate,
	}
	report.Counts.Unchanged = pair.Unchanged
	for _, event := range pair.Events {
		if event.Has(models.ChangeAppeared) {
			report.Counts.Appeared++
			report.AppearedExamples = appendExample(report.AppearedExamples, event, exampleLimit)
		}
		if event.Has(models.ChangeDisappeared) {
			report.Counts.Disappeared++
			report.DisappearedExamples = appendExample(report.DisappearedExamples, event, exampleLimit)
		}
		if event.Has(models.ChangeListChanged) {
			report.Counts.ListChanged++
			report.ListChangedExamples = appendExample(report.ListChangedExamples, event, exampleLimit)
		}
		if event.Has(models.ChangeConfigChanged) {
			report.Counts.ConfigChanged++
			report.ConfigChangedExamples = appendExample(report.ConfigChangedExamples, event, exampleLimit)
		}
		if event.Has(models.ChangeReordered) {
			report.Counts.Reordered++
		}
	}
	return report
}

func appendExample(examples []models.ChangeEvent, event models.ChangeEvent, limit int) []models.ChangeEvent {
	if len(examples) >= limit {
		return examples
	}
	return append(examples, event)
}
