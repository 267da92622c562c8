package models

import "strings"

// CohortKey identifies one tracked audience slice. Segments are taken
// verbatim from the snapshot tree path and joined with "|", e.g.
// "US|example.com|mobile" or "US|example.com|mobile|sidebar".
type CohortKey string

// NewCohortKey builds a key from path segments in tree order.
func NewCohortKey(segments ...string) CohortKey {
	return CohortKey(strings.Join(segments, "|"))
}

// Segments splits the key back into its path segments.
func (k CohortKey) Segments() []string {
	return strings.Split(string(k), "|")
}

func (k CohortKey) String() string {
	return string(k)
}

// BidderRef is a single bidder occurrence inside a placement's configuration
// list. A bare string in the source document becomes an identifier-only ref;
// an object carries the optional parameters. Nil pointers and a nil DealIDs
// slice mean the parameter was not specified.
type BidderRef struct {
	ID      string
	Timeout *float64
	Weight  *float64
	Floor   *float64
	DealIDs []string
}

// BidderConfig is the normalized full-parameter representative kept per
// distinct bidder identifier. All four parameters are always present in the
// serialized form (null when unspecified) so fingerprints stay value-based.
type BidderConfig struct {
	ID      string   `json:"id"`
	Timeout *float64 `json:"timeout"`
	Weight  *float64 `json:"weight"`
	Floor   *float64 `json:"floor"`
	DealIDs []string `json:"dealIds"`
}
