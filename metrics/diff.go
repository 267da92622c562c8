package metrics

import (
	"sort"

	"dasinsights/models"
)

// DiffOptions tunes classification behavior for one analysis run.
type DiffOptions struct {
	// TrackReorders classifies a pure reordering of the same bidder set as
	// its own change kind. Off by default: reordering the same set is not a
	// change at the idsOnly level. A cohort that is list_changed is never
	// also reordered, so the two modes cannot double-count.
	TrackReorders bool
}

// DayPairChanges is the differ's output for one consecutive day-pair: one
// event per changed cohort, plus enough context for the aggregator to compute
// per-cohort observation counts.
type DayPairChanges struct {
	PrevDate string
	CurrDate string

	// Events holds one entry per cohort that changed, ordered by cohort key.
	Events []models.ChangeEvent
	// Present is the sorted union of cohort keys present in either day.
	Present []models.CohortKey
	// Unchanged counts cohorts present in both days with no change.
	Unchanged int
}

// Diff classifies every cohort in the union of two consecutive days. Cohorts
// present in only one day are appeared/disappeared; cohorts present in both
// are compared on the identifier-only view (set equality, order ignored) and
// independently on the full-parameter fingerprint. Diff(X, X) yields no
// events.
func Diff(prev, curr *DaySnapshot, opts DiffOptions) *DayPairChanges {
	union := make(map[models.CohortKey]struct{}, len(prev.Cohorts)+len(curr.Cohorts))
	for key := range prev.Cohorts {
		union[key] = struct{}{}
	}
	for key := range curr.Cohorts {
		union[key] = struct{}{}
	}
	keys := make([]models.CohortKey, 0, len(union))
	for key := range union {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := &DayPairChanges{
		PrevDate: prev.Date,
		CurrDate: curr.Date,
		Present:  keys,
	}

	for _, key := range keys {
		p, inPrev := prev.Cohorts[key]
		c, inCurr := curr.Cohorts[key]

		event := models.ChangeEvent{
			Cohort:   key,
			PrevDate: prev.Date,
			CurrDate: curr.Date,
		}

		switch {
		case !inPrev:
			event.Kinds = []models.ChangeKind{models.ChangeAppeared}
			event.Added = append([]string(nil), c.IDs...)
			event.CurrListFingerprint = c.ListFingerprint
			event.CurrConfigFingerprint = c.ConfigFingerprint
		case !inCurr:
			event.Kinds = []models.ChangeKind{models.ChangeDisappeared}
			event.Removed = append([]string(nil), p.IDs...)
			event.PrevListFingerprint = p.ListFingerprint
			event.PrevConfigFingerprint = p.ConfigFingerprint
		default:
			added, removed := diffIDs(p.IDs, c.IDs)
			listChanged := len(added) > 0 || len(removed) > 0
			configChanged := p.ConfigFingerprint != c.ConfigFingerprint

			if listChanged {
				event.Kinds = append(event.Kinds, models.ChangeListChanged)
				event.Added = added
				event.Removed = removed
			}
			if configChanged {
				event.Kinds = append(event.Kinds, models.ChangeConfigChanged)
			}
			if opts.TrackReorders && !listChanged && !equalStrings(p.Order, c.Order) {
				event.Kinds = append(event.Kinds, models.ChangeReordered)
			}
			if len(event.Kinds) == 0 {
				out.Unchanged++
				continue
			}
			event.PrevListFingerprint = p.ListFingerprint
			event.CurrListFingerprint = c.ListFingerprint
			event.PrevConfigFingerprint = p.ConfigFingerprint
			event.CurrConfigFingerprint = c.ConfigFingerprint
		}

		out.Events = append(out.Events, event)
	}
	return out
}

// diffIDs computes set differences between two sorted identifier lists.
func diffIDs(prev, curr []string) (added, removed []string) {
	i, j := 0, 0
	for i < len(prev) && j < len(curr) {
		switch {
		case prev[i] == curr[j]:
			i++
			j++
		case prev[i] < curr[j]:
			removed = append(removed, prev[i])
			i++
		default:
			added = append(added, curr[j])
			j++
		}
	}
	removed = append(removed, prev[i:]...)
	added = append(added, curr[j:]...)
	return added, removed
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
