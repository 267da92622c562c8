package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Artifact describes a single report file written during a run.
type Artifact struct {
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	FileSize    int64  `json:"file_size_in_bytes"`
	RecordCount int64  `json:"record_count"`
	// Date is the snapshot date or day-pair the artifact covers; empty for
	// run-level artifacts.
	Date string `json:"date,omitempty"`
}

// Manifest is the run-level index of every artifact produced, written last so
// consumers can tell a complete run from an interrupted one.
type Manifest struct {
	ManifestID  string     `json:"manifest_id"`
	RunID       string     `json:"run_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Artifacts   []Artifact `json:"artifacts"`
}

// Generator incrementally collects artifacts for one run.
type Generator struct {
	baseDir   string
	runID     string
	artifacts []Artifact
}

// NewGenerator returns a manifest generator rooted at baseDir for the given
// run id.
func NewGenerator(baseDir, runID string) *Generator {
	return &Generator{baseDir: baseDir, runID: runID}
}

// Add records a newly written artifact.
func (g *Generator) Add(a Artifact) {
	g.artifacts = append(g.artifacts, a)
}

// Count reports how many artifacts have been recorded so far.
func (g *Generator) Count() int {
	return len(g.artifacts)
}

// Write flushes the manifest to <baseDir>/manifest.json and returns its path.
func (g *Generator) Write() (string, error) {
	m := Manifest{
		ManifestID:  uuid.NewString(),
		RunID:       g.runID,
		GeneratedAt: time.Now().UTC(),
		Artifacts:   g.artifacts,
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize manifest: %w", err)
	}
	path := filepath.Join(g.baseDir, "manifest.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
