package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"dasinsights/logger"
)

// File is one snapshot file accepted by the scanner, carrying its canonical
// calendar date.
type File struct {
	Path string
	Name string
	Date string
}

// ScanDir lists the snapshot folder and returns the usable files in
// ascending calendar-date order. The ordering comes from the dates encoded in
// the file names, never from filesystem order. Files whose names do not match
// the snapshot pattern are skipped with a warning; a second file for an
// already-seen date is skipped the same way so each day appears once.
func ScanDir(dir string) ([]File, error) {
	log := logger.GetLogger().WithComponent("scanner")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	seen := make(map[string]string)
	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		date, ok := ParseFilename(name)
		if !ok {
			log.WithFields(logger.Fields{"file": name}).Warn("skipping file with unrecognized name")
			logger.IncrementFileSkipped()
			continue
		}
		if prev, dup := seen[date]; dup {
			log.WithFields(logger.Fields{"file": name, "date": date, "kept": prev}).Warn("skipping duplicate snapshot for date")
			logger.IncrementFileSkipped()
			continue
		}
		seen[date] = name
		files = append(files, File{Path: filepath.Join(dir, name), Name: name, Date: date})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Date < files[j].Date })

	log.WithFields(logger.Fields{"dir": dir, "files": len(files)}).Info("snapshot directory scanned")
	return files, nil
}
