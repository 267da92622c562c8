package models

// ChangeKind classifies what happened to a cohort between two consecutive
// snapshot dates.
type ChangeKind string

const (
	ChangeAppeared      ChangeKind = "appeared"
	ChangeDisappeared   ChangeKind = "disappeared"
	ChangeListChanged   ChangeKind = "list_changed"
	ChangeConfigChanged ChangeKind = "config_changed"
	ChangeReordered     ChangeKind = "reordered"
)

// ChangeEvent records the classification of one cohort for one consecutive
// day-pair. A cohort present in both days can carry both list_changed and
// config_changed in the same event. Events are immutable once produced.
type ChangeEvent struct {
	Cohort   CohortKey    `json:"cohort"`
	PrevDate string       `json:"prev_date"`
	CurrDate string       `json:"curr_date"`
	Kinds    []ChangeKind `json:"kinds"`

	// Identifier deltas, populated for appeared/disappeared/list_changed.
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`

	// Before/after fingerprints; empty on the side the cohort was absent.
	PrevListFingerprint   string `json:"prev_list_fingerprint,omitempty"`
	CurrListFingerprint   string `json:"curr_list_fingerprint,omitempty"`
	PrevConfigFingerprint string `json:"prev_config_fingerprint,omitempty"`
	CurrConfigFingerprint string `json:"curr_config_fingerprint,omitempty"`
}

// Has reports whether the event carries the given classification.
func (e *ChangeEvent) Has(kind ChangeKind) bool {
	for _, k := range e.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
