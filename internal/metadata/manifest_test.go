package metadata

import (
	"encoding/json"
	"os"
	"testing"
)

func TestGeneratorWrite(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir, "run-1")
	g.Add(Artifact{Path: "summary-2024-03-01.json", Kind: "day_summary", FileSize: 120, RecordCount: 1, Date: "2024-03-01"})
	g.Add(Artifact{Path: "aggregate.json", Kind: "aggregate", FileSize: 540, RecordCount: 10})

	if g.Count() != 2 {
		t.Fatalf("expected 2 recorded artifacts, got %d", g.Count())
	}

	path, err := g.Write()
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if m.RunID != "run-1" {
		t.Errorf("unexpected run id: %s", m.RunID)
	}
	if len(m.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(m.Artifacts))
	}
	if m.Artifacts[0].Kind != "day_summary" || m.Artifacts[0].Date != "2024-03-01" {
		t.Errorf("unexpected first artifact: %+v", m.Artifacts[0])
	}
}
