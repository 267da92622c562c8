package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"dasinsights/models"
)

// VelocityOptions tunes the windowed aggregation.
type VelocityOptions struct {
	// WindowDays is the trailing window W in calendar days ending at the
	// last snapshot date. Zero means the full observed period: every
	// day-pair counts no matter how sparse the snapshot dates are.
	WindowDays int
	// TopN bounds each ranking table.
	TopN int
	// RecentPairs bounds the triggering day-pairs kept per cohort.
	RecentPairs int
}

const dateLayout = "2006-01-02"

type cohortStats struct {
	total         int
	listChanges   int
	configChanges int
	pairsObserved int
	lastChanged   string
	recentPairs   []string
}

// Aggregate folds day-pair change batches into per-cohort velocity entries
// and ranks them within the trailing window. Batches must arrive in ascending
// calendar-date order; dates is the full ordered list of snapshot dates in
// the run. Entries are rebuilt from scratch on every call, no state persists
// across runs.
func Aggregate(pairs []*DayPairChanges, dates []string, opts VelocityOptions) (*models.AggregateReport, error) {
	if len(dates) < 2 || len(pairs) == 0 {
		return nil, models.ErrInsufficientSnapshots
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = 10
	}
	recentPairs := opts.RecentPairs
	if recentPairs <= 0 {
		recentPairs = 5
	}

	windowDays := opts.WindowDays
	windowEnd := dates[len(dates)-1]
	var windowStart string
	if windowDays <= 0 {
		// The default window is the full observed period, anchored at the
		// first snapshot date. Counting calendar days here instead would
		// silently drop early pairs whenever the dates have gaps.
		windowDays = len(dates)
		windowStart = dates[0]
	} else {
		end, err := time.Parse(dateLayout, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot date %q: %w", windowEnd, err)
		}
		windowStart = end.AddDate(0, 0, -(windowDays - 1)).Format(dateLayout)
	}

	stats := make(map[models.CohortKey]*cohortStats)
	dayPairs := 0
	for _, pair := range pairs {
		// ISO dates compare correctly as strings.
		if pair.CurrDate < windowStart {
			continue
		}
		dayPairs++
		for _, key := range pair.Present {
			s := stats[key]
			if s == nil {
				s = &cohortStats{}
				stats[key] = s
			}
			s.pairsObserved++
		}
		for _, event := range pair.Events {
			s := stats[event.Cohort]
			s.total++
			if event.Has(models.ChangeListChanged) {
				s.listChanges++
			}
			if event.Has(models.ChangeConfigChanged) {
				s.configChanges++
			}
			s.lastChanged = pair.CurrDate
			s.recentPairs = append(s.recentPairs, pair.PrevDate+"->"+pair.CurrDate)
			if len(s.recentPairs) > recentPairs {
				s.recentPairs = s.recentPairs[len(s.recentPairs)-recentPairs:]
			}
		}
	}

	entries := make([]models.VelocityEntry, 0, len(stats))
	for key, s := range stats {
		if s.total == 0 {
			continue
		}
		entries = append(entries, models.VelocityEntry{
			Cohort:          key,
			TotalChanges:    s.total,
			ListChanges:     s.listChanges,
			ConfigChanges:   s.configChanges,
			PairsObserved:   s.pairsObserved,
			ChangeFrequency: 100 * float64(s.total) / float64(s.pairsObserved),
			LastChanged:     s.lastChanged,
			RecentPairs:     s.recentPairs,
		})
	}

	return &models.AggregateReport{
		RunID:              uuid.NewString(),
		WindowStart:        windowStart,
		WindowEnd:          windowEnd,
		WindowDays:         windowDays,
		DayPairs:           dayPairs,
		TopByConfigChanges: rank(entries, topN, func(e models.VelocityEntry) int { return e.ConfigChanges }),
		TopByListChanges:   rank(entries, topN, func(e models.VelocityEntry) int { return e.ListChanges }),
		GeneratedAt:        time.Now().UTC(),
	}, nil
}

// rank sorts descending by the given count, ties broken by cohort key
// ascending for determinism, and keeps the top n entries with a non-zero
// count.
func rank(entries []models.VelocityEntry, n int, count func(models.VelocityEntry) int) []models.VelocityEntry {
	ranked := make([]models.VelocityEntry, 0, len(entries))
	for _, e := range entries {
		if count(e) > 0 {
			ranked = append(ranked, e)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		ci, cj := count(ranked[i]), count(ranked[j])
		if ci != cj {
			return ci > cj
		}
		return ranked[i].Cohort < ranked[j].Cohort
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
