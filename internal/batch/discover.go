package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/neurolab/faapipe/internal/eeg"
)

// Discover enumerates candidate EDF recordings in dir, sorted by name. It is
// a pure listing: the orchestrator iterates the result explicitly so batch
// semantics stay testable without touching discovery.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".edf") {
			continue
		}
		// Cleaned outputs land next to the inputs by default; never
		// treat them as inputs of a later run.
		if strings.HasSuffix(strings.ToLower(entry.Name()), "_clean.edf") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// FindRenameTable locates the single channel-rename table in dir. Zero or
// more than one candidate is a batch-level ValidationError: an ambiguous
// mapping risks silently mislabeling every file in the batch.
func FindRenameTable(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var tables []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".tsv" || ext == ".csv" {
			tables = append(tables, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(tables)

	switch len(tables) {
	case 0:
		return "", eeg.Validationf("no rename table (.tsv/.csv) found in %s", dir)
	case 1:
		return tables[0], nil
	default:
		names := make([]string, len(tables))
		for i, t := range tables {
			names[i] = filepath.Base(t)
		}
		return "", eeg.Validationf("multiple rename tables found in %s: %s; keep exactly one",
			dir, strings.Join(names, ", "))
	}
}

var stemPattern = regexp.MustCompile(`(?i)est(?P<id>\d+)(?P<cond>yo|yc)?$`)

// ParseStem extracts participant and condition from recording stems like
// est001yo (eyes-open) or est001yc (eyes-closed). Anything else maps to
// participant "unknown", condition "unknown".
func ParseStem(stem string) (participant, condition string) {
	participant, condition = "unknown", "unknown"
	m := stemPattern.FindStringSubmatch(stem)
	if m == nil {
		return participant, condition
	}
	participant = m[1]
	switch strings.ToLower(m[2]) {
	case "yo":
		condition = "eyes-open"
	case "yc":
		condition = "eyes-closed"
	}
	return participant, condition
}
