package snapshot

import (
	"encoding/json"

	"dasinsights/models"
)

const rootKey = "defaultConfig"

// ParseDocument validates and converts one raw snapshot document into its
// tree form. The presence of an object-valued defaultConfig key is the single
// schema gate for the whole pipeline; anything deeper is handled leniently by
// the extractor. The file name is only used to label the error.
func ParseDocument(raw []byte, file string) (Node, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &models.SchemaError{File: file, Reason: "document is not a JSON object: " + err.Error()}
	}
	root, ok := doc[rootKey]
	if !ok {
		return nil, &models.SchemaError{File: file, Reason: "defaultConfig key is missing"}
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, &models.SchemaError{File: file, Reason: "defaultConfig is not an object"}
	}
	return buildNode(obj), nil
}
