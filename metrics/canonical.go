package metrics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"dasinsights/models"
)

// fingerprintLen is the number of hex characters kept from the content hash.
// The truncation is a documented approximation: collisions are accepted as
// negligible at this dataset's scale, and the full normalized structure is
// always emitted next to the fingerprint so exact comparison stays possible.
const fingerprintLen = 16

// NormalizeIDs reduces a bidder list to its identifier-only view: deduped by
// identifier and sorted bytewise. Reordering the input never changes the
// result.
func NormalizeIDs(refs []models.BidderRef) []string {
	seen := make(map[string]struct{}, len(refs))
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		ids = append(ids, ref.ID)
	}
	sort.Strings(ids)
	return ids
}

// NormalizeConfigs reduces a bidder list to its full-parameter view: one
// representative per distinct identifier (first occurrence wins), every
// parameter present as an explicit null when unspecified, dealIds sorted,
// entries sorted by identifier.
func NormalizeConfigs(refs []models.BidderRef) []models.BidderConfig {
	seen := make(map[string]struct{}, len(refs))
	configs := make([]models.BidderConfig, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}

		cfg := models.BidderConfig{
			ID:      ref.ID,
			Timeout: ref.Timeout,
			Weight:  ref.Weight,
			Floor:   ref.Floor,
		}
		if len(ref.DealIDs) > 0 {
			cfg.DealIDs = append([]string(nil), ref.DealIDs...)
			sort.Strings(cfg.DealIDs)
		}
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
	return configs
}

// Fingerprint serializes a normalized value deterministically and returns the
// truncated hex digest of its SHA-256 hash. Equal normalized values always
// produce equal fingerprints; the differ relies on this when it compares
// fingerprints instead of full structures.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize value for fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:fingerprintLen], nil
}
