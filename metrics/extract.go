package metrics

import (
	"fmt"
	"sort"
	"strconv"

	"dasinsights/models"
	"dasinsights/snapshot"
)

// Granularity selects how cohorts are keyed during extraction.
type Granularity int

const (
	// GranularityDevice keys cohorts as (country, domain, device) and
	// aggregates every bidder found anywhere beneath the device node,
	// folding away placements and configuration entries.
	GranularityDevice Granularity = iota
	// GranularityPlacement keeps the placement segment in the key and
	// restricts aggregation to that placement's configuration entries.
	GranularityPlacement
)

// Extract walks one snapshot tree and returns a fresh cohort map. The walk is
// pure: it never mutates the tree and each call returns an independent map,
// so accumulation across days is explicit sequential folding in the engine.
func Extract(root snapshot.Node, g Granularity) map[models.CohortKey][]models.BidderRef {
	out := make(map[models.CohortKey][]models.BidderRef)
	rootNode, ok := root.(*snapshot.InternalNode)
	if !ok {
		return out
	}
	for _, country := range sortedChildKeys(rootNode) {
		countryNode, ok := rootNode.Children[country].(*snapshot.InternalNode)
		if !ok {
			continue
		}
		for _, domain := range sortedChildKeys(countryNode) {
			domainNode, ok := countryNode.Children[domain].(*snapshot.InternalNode)
			if !ok {
				continue
			}
			for _, device := range sortedChildKeys(domainNode) {
				deviceNode, ok := domainNode.Children[device].(*snapshot.InternalNode)
				if !ok {
					continue
				}
				switch g {
				case GranularityPlacement:
					for _, placement := range sortedChildKeys(deviceNode) {
						child := deviceNode.Children[placement]
						if _, isBidders := child.(*snapshot.BidderListNode); isBidders {
							continue
						}
						key := models.NewCohortKey(country, domain, device, placement)
						out[key] = collectRefs(child, nil)
					}
				default:
					key := models.NewCohortKey(country, domain, device)
					out[key] = collectRefs(deviceNode, nil)
				}
			}
		}
	}
	return out
}

// collectRefs gathers every bidder occurrence in a subtree. The traversal
// recurses into every child except that a BidderListNode terminates its own
// branch; child order is made deterministic so downstream reorder detection
// sees a stable first-occurrence sequence.
func collectRefs(n snapshot.Node, refs []models.BidderRef) []models.BidderRef {
	switch node := n.(type) {
	case *snapshot.BidderListNode:
		return append(refs, node.Refs...)
	case *snapshot.InternalNode:
		for _, key := range sortedChildKeys(node) {
			refs = collectRefs(node.Children[key], refs)
		}
	}
	return refs
}

// sortedChildKeys orders children lexicographically, except that pairs of
// numeric keys (configuration-entry indexes) compare numerically so entry 10
// does not sort before entry 2.
func sortedChildKeys(n *snapshot.InternalNode) []string {
	keys := make([]string, 0, len(n.Children))
	for key := range n.Children {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

// CohortExtraction is one cohort's canonical identity for a single day. It is
// owned by the DaySnapshot that produced it and never mutated afterwards.
type CohortExtraction struct {
	Key models.CohortKey

	// IDs is the sorted, deduplicated identifier-only view.
	IDs []string
	// Order keeps the deduplicated first-occurrence order of identifiers,
	// used only when reorder tracking is enabled.
	Order []string
	// Configs is the normalized full-parameter view.
	Configs []models.BidderConfig

	ListFingerprint   string
	ConfigFingerprint string
}

// DaySnapshot is the derived cohort map for one calendar date. The raw
// document is discarded once this exists; only the map crosses day
// boundaries, replaced wholesale each iteration.
type DaySnapshot struct {
	Date    string
	Cohorts map[models.CohortKey]*CohortExtraction
}

// BuildDaySnapshot extracts and canonicalizes one loaded document.
func BuildDaySnapshot(doc *snapshot.Document, g Granularity) (*DaySnapshot, error) {
	raw := Extract(doc.Root, g)
	day := &DaySnapshot{
		Date:    doc.Date,
		Cohorts: make(map[models.CohortKey]*CohortExtraction, len(raw)),
	}
	for key, refs := range raw {
		ext := &CohortExtraction{
			Key:     key,
			IDs:     NormalizeIDs(refs),
			Order:   firstOccurrenceOrder(refs),
			Configs: NormalizeConfigs(refs),
		}
		var err error
		if ext.ListFingerprint, err = Fingerprint(ext.IDs); err != nil {
			return nil, fmt.Errorf("fingerprinting ids for cohort %s: %w", key, err)
		}
		if ext.ConfigFingerprint, err = Fingerprint(ext.Configs); err != nil {
			return nil, fmt.Errorf("fingerprinting configs for cohort %s: %w", key, err)
		}
		day.Cohorts[key] = ext
	}
	return day, nil
}

func firstOccurrenceOrder(refs []models.BidderRef) []string {
	seen := make(map[string]struct{}, len(refs))
	order := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		order = append(order, ref.ID)
	}
	return order
}
