package catalogparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/esoa/fdacatalogs/logging"
)

// SynonymIndex is the lookup structure over the synonym reference: every
// canonical generic name and every synonym string maps (normalized) to its
// canonical name.
type SynonymIndex struct {
	canonical map[string]string
}

// Len reports the number of lookup keys in the index.
func (x *SynonymIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.canonical)
}

// Lookup resolves a brand or generic field against the reference,
// case-insensitively and with the same text normalization applied to record
// fields.
func (x *SynonymIndex) Lookup(value string) (canonical string, ok bool) {
	if x == nil {
		return "", false
	}
	canonical, ok = x.canonical[NormalizeText(value)]
	return canonical, ok
}

// BuildSynonymIndex flattens synonym entries into the lookup index. Entries
// whose canonical name normalizes to empty are skipped.
func BuildSynonymIndex(entries []entities.SynonymEntry) *SynonymIndex {
	idx := &SynonymIndex{canonical: make(map[string]string)}
	for _, entry := range entries {
		key := NormalizeText(entry.Canonical)
		if key == "" {
			continue
		}
		idx.canonical[key] = entry.Canonical
		for _, syn := range entry.Synonyms {
			if sk := NormalizeText(syn); sk != "" {
				idx.canonical[sk] = entry.Canonical
			}
		}
	}
	return idx
}

// LoadSynonyms reads the optional synonym reference CSV: rows of
// {canonical generic name, synonym string}, header optional. A missing file
// is valid (correction then degrades to a no-op), so only a present but
// unreadable file is an error.
func LoadSynonyms(path string) (*SynonymIndex, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Warn("Synonym reference not found, correction disabled", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open synonym reference %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close synonym reference", "error", err)
		}
	}()

	index, err := readSynonyms(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym reference %s: %w", path, err)
	}
	logging.Info("Loaded synonym reference", "path", path, "keys", index.Len())
	return index, nil
}

func readSynonyms(r io.Reader) (*SynonymIndex, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	byCanonical := make(map[string]*entities.SynonymEntry)
	var order []string

	for line := 0; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 1 {
			continue
		}
		canonical := cleanField(row[0])
		if canonical == "" {
			continue
		}
		// Tolerate a header row on the first line.
		if line == 0 && canonicalHeader(canonical) == "generic_name" {
			continue
		}
		entry, ok := byCanonical[canonical]
		if !ok {
			entry = &entities.SynonymEntry{Canonical: canonical}
			byCanonical[canonical] = entry
			order = append(order, canonical)
		}
		if len(row) > 1 {
			if syn := cleanField(row[1]); syn != "" {
				entry.Synonyms = append(entry.Synonyms, syn)
			}
		}
	}

	entries := make([]entities.SynonymEntry, 0, len(order))
	for _, name := range order {
		entries = append(entries, *byCanonical[name])
	}
	return BuildSynonymIndex(entries), nil
}
