package models

import "time"

// DaySummary aggregates one snapshot day after extraction.
type DaySummary struct {
	Date          string `json:"date"`
	Cohorts       int    `json:"cohorts"`
	UniqueIDSets  int    `json:"unique_id_sets"`
	UniqueConfigs int    `json:"unique_configs"`
}

// FingerprintEntry is one cohort's canonical identity for a single day.
type FingerprintEntry struct {
	Cohort            CohortKey `json:"cohort"`
	IDs               []string  `json:"ids"`
	ListFingerprint   string    `json:"list_fingerprint"`
	ConfigFingerprint string    `json:"config_fingerprint"`
}

// FingerprintReport is the per-day fingerprint map, entries sorted by cohort
// key so output is reproducible byte for byte.
type FingerprintReport struct {
	Date    string             `json:"date"`
	Entries []FingerprintEntry `json:"entries"`
}

// PairChangeCounts tallies classifications for one consecutive day-pair.
type PairChangeCounts struct {
	Appeared      int `json:"appeared"`
	Disappeared   int `json:"disappeared"`
	ListChanged   int `json:"list_changed"`
	ConfigChanged int `json:"config_changed"`
	Reordered     int `json:"reordered"`
	Unchanged     int `json:"unchanged"`
}

// PairChangeReport summarizes one day-pair diff: full counts plus a bounded
// number of example events per classification.
type PairChangeReport struct {
	PrevDate string           `json:"prev_date"`
	CurrDate string           `json:"curr_date"`
	Counts   PairChangeCounts `json:"counts"`

	AppearedExamples      []ChangeEvent `json:"appeared_examples,omitempty"`
	DisappearedExamples   []ChangeEvent `json:"disappeared_examples,omitempty"`
	ListChangedExamples   []ChangeEvent `json:"list_changed_examples,omitempty"`
	ConfigChangedExamples []ChangeEvent `json:"config_changed_examples,omitempty"`
}

// VelocityEntry is one cohort's accumulated change record over the active
// window. Rebuilt from scratch on every aggregation run.
type VelocityEntry struct {
	Cohort        CohortKey `json:"cohort"`
	TotalChanges  int       `json:"total_changes"`
	ListChanges   int       `json:"list_changes"`
	ConfigChanges int       `json:"config_changes"`
	PairsObserved int       `json:"pairs_observed"`
	// ChangeFrequency is 100 * TotalChanges / PairsObserved.
	ChangeFrequency float64 `json:"change_frequency"`
	LastChanged     string  `json:"last_changed,omitempty"`
	// RecentPairs lists the most recent triggering day-pairs as
	// "prev->curr", bounded for reporting.
	RecentPairs []string `json:"recent_pairs,omitempty"`
}

// AggregateReport is the single end-of-run artifact: cohort rankings within
// the trailing window. GeneratedAt is advisory metadata only and is the one
// wall-clock-dependent field in any artifact.
type AggregateReport struct {
	RunID       string `json:"run_id"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	WindowDays  int    `json:"window_days"`
	DayPairs    int    `json:"day_pairs"`

	TopByConfigChanges []VelocityEntry `json:"top_by_config_changes"`
	TopByListChanges   []VelocityEntry `json:"top_by_list_changes"`

	GeneratedAt time.Time `json:"generated_at"`
}
