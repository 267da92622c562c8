package snapshot

import (
	"fmt"
	"regexp"
	"strings"
)

// Snapshot files are named like
// 03-mar-2024-das-2-0-bidder-selection-optimised.json; both the "optimised"
// and "optimized" spellings occur in the feed and the month abbreviation is
// matched case-insensitively.
var filenameRe = regexp.MustCompile(`^(?i)(\d{2})-([a-z]{3})-(\d{4})-das-2-0-bidder-selection-optimi[sz]ed\.json$`)

var monthNumbers = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// ParseFilename extracts the canonical YYYY-MM-DD date from a snapshot file
// name. ok is false when the name does not match the expected shape or the
// month abbreviation is unknown; callers skip such files with a warning
// rather than failing the run.
func ParseFilename(name string) (string, bool) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	month, ok := monthNumbers[strings.ToLower(m[2])]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s-%s-%s", m[3], month, m[1]), true
}
