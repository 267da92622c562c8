package snapshot

import (
	"strconv"

	"dasinsights/models"
)

// Node is one position in a parsed snapshot tree. The schema below
// defaultConfig has no fixed depth: a level can hold further nested levels, a
// bidders array, or both, so the tree is a small tagged union walked by the
// extractor rather than a typed struct hierarchy.
type Node interface {
	isNode()
}

// InternalNode holds named children. Configuration-entry arrays are folded in
// as children keyed by their element index so the walk stays uniform.
type InternalNode struct {
	Children map[string]Node
}

// BidderListNode terminates recursion: it is produced only for a key
// literally named "bidders" whose value is an array.
type BidderListNode struct {
	Refs []models.BidderRef
}

func (*InternalNode) isNode()   {}
func (*BidderListNode) isNode() {}

const biddersKey = "bidders"

// buildNode converts a decoded JSON value into a tree node. Values that do
// not fit the documented shape contribute nothing; heterogeneous depth and
// stray scalars are expected and are not errors.
func buildNode(v any) Node {
	switch val := v.(type) {
	case map[string]any:
		children := make(map[string]Node, len(val))
		for key, child := range val {
			if key == biddersKey {
				if arr, ok := child.([]any); ok {
					children[key] = &BidderListNode{Refs: parseRefs(arr)}
				}
				continue
			}
			if node := buildNode(child); node != nil {
				children[key] = node
			}
		}
		return &InternalNode{Children: children}
	case []any:
		children := make(map[string]Node, len(val))
		for i, child := range val {
			if node := buildNode(child); node != nil {
				children[strconv.Itoa(i)] = node
			}
		}
		return &InternalNode{Children: children}
	default:
		return nil
	}
}

func parseRefs(arr []any) []models.BidderRef {
	refs := make([]models.BidderRef, 0, len(arr))
	for _, el := range arr {
		if ref, ok := parseRef(el); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func parseRef(el any) (models.BidderRef, bool) {
	switch val := el.(type) {
	case string:
		if val == "" {
			return models.BidderRef{}, false
		}
		return models.BidderRef{ID: val}, true
	case map[string]any:
		id, ok := val["id"].(string)
		if !ok || id == "" {
			return models.BidderRef{}, false
		}
		ref := models.BidderRef{
			ID:      id,
			Timeout: numberParam(val, "timeout"),
			Weight:  numberParam(val, "weight"),
			Floor:   numberParam(val, "floor"),
			DealIDs: dealIDs(val),
		}
		return ref, true
	default:
		return models.BidderRef{}, false
	}
}

// numberParam reads an optional numeric parameter. An explicit JSON null and
// an absent key both come back as nil: the source format does not
// distinguish "not configured" from "configured as none".
func numberParam(m map[string]any, key string) *float64 {
	if f, ok := m[key].(float64); ok {
		return &f
	}
	return nil
}

func dealIDs(m map[string]any) []string {
	arr, ok := m["dealIds"].([]any)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(arr))
	for _, el := range arr {
		if s, ok := el.(string); ok {
			ids = append(ids, s)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}
