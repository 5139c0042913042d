package eeg

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// RenameEntry maps one original channel label to its standardized label.
type RenameEntry struct {
	Original string
	Desired  string
}

// RenameTable is an ordered original-to-desired label mapping loaded from a
// two-column TSV or CSV file. Keys are unique and the mapping is one-to-one.
type RenameTable struct {
	Entries []RenameEntry
}

// headerWords are first-column values that mark an optional header row.
var headerWords = map[string]bool{
	"original":       true,
	"original_label": true,
	"source":         true,
	"from":           true,
}

// LoadRenameTable reads a rename table from path. The delimiter is inferred
// from the first line (tab wins over comma). Rows with fewer than two
// non-empty cells are skipped.
func LoadRenameTable(path string) (*RenameTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rename table: %w", err)
	}

	delim := ','
	if i := strings.IndexByte(string(raw), '\n'); i >= 0 && strings.ContainsRune(string(raw[:i]), '\t') {
		delim = '\t'
	} else if strings.ContainsRune(string(raw), '\t') {
		delim = '\t'
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, Validationf("rename table %s: %v", path, err)
	}

	table := &RenameTable{}
	seenOriginal := make(map[string]string)
	seenDesired := make(map[string]string)

	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		original := strings.TrimSpace(row[0])
		desired := strings.TrimSpace(row[1])
		if original == "" || desired == "" {
			continue
		}
		if i == 0 && headerWords[strings.ToLower(original)] {
			continue
		}

		if prev, ok := seenOriginal[original]; ok {
			if prev != desired {
				return nil, Validationf("rename table %s: label %q mapped to both %q and %q",
					path, original, prev, desired)
			}
			continue
		}
		if prev, ok := seenDesired[desired]; ok {
			return nil, Validationf("rename table %s: labels %q and %q both map to %q",
				path, prev, original, desired)
		}

		seenOriginal[original] = desired
		seenDesired[desired] = original
		table.Entries = append(table.Entries, RenameEntry{Original: original, Desired: desired})
	}

	if len(table.Entries) == 0 {
		return nil, Validationf("rename table %s: no usable rows", path)
	}
	return table, nil
}

// Rename rewrites the recording's channel labels according to the table. The
// channel order is preserved. It fails with a ValidationError when a source
// label is absent from the recording or when applying the mapping would
// produce duplicate labels.
//
// Acquisition software sometimes swaps '+' and '~' in reference suffixes, so
// a source label also matches its '+'/'~' variant.
func Rename(rec *Recording, table *RenameTable) error {
	if table == nil || len(table.Entries) == 0 {
		return Validationf("recording %s: rename table is empty", rec.ID)
	}

	renames := make(map[*Channel]string, len(table.Entries))
	for _, entry := range table.Entries {
		ch := findChannelVariant(rec, entry.Original)
		if ch == nil {
			return Validationf("recording %s: rename source label %q not found", rec.ID, entry.Original)
		}
		renames[ch] = entry.Desired
	}

	// Dry-run the final label set before touching anything.
	final := make(map[string]bool, len(rec.Channels))
	for _, ch := range rec.Channels {
		label := ch.Label
		if desired, ok := renames[ch]; ok {
			label = desired
		}
		if final[label] {
			return Validationf("recording %s: renaming produces duplicate label %q", rec.ID, label)
		}
		final[label] = true
	}

	for ch, desired := range renames {
		ch.Label = desired
	}
	return nil
}

func findChannelVariant(rec *Recording, label string) *Channel {
	if ch := rec.Channel(label); ch != nil {
		return ch
	}
	if strings.Contains(label, "+") {
		if ch := rec.Channel(strings.ReplaceAll(label, "+", "~")); ch != nil {
			return ch
		}
	}
	if strings.Contains(label, "~") {
		if ch := rec.Channel(strings.ReplaceAll(label, "~", "+")); ch != nil {
			return ch
		}
	}
	return nil
}

// RequireChannels verifies that both analysis electrodes are present. It runs
// after renaming so operator-supplied mappings are honored, and reports every
// absent label by name.
func RequireChannels(rec *Recording, labels ...string) error {
	var missing []string
	for _, label := range labels {
		if rec.Channel(label) == nil {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return &MissingChannelError{Labels: missing}
	}
	return nil
}
