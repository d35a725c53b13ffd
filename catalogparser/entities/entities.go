// Package entities defines the data types shared by the catalog acquisition
// pipeline: raw download artifacts, canonical catalog records, the synonym
// reference table and the correction verdicts produced for drug records.
package entities

import (
	"strings"
	"time"
)

// CatalogKind identifies one of the two regulated product listings.
type CatalogKind string

const (
	KindDrugs CatalogKind = "drugs"
	KindFood  CatalogKind = "food"
)

// RawArtifact is one unprocessed download kept in the cache. Artifacts are
// written once and never mutated; a newer publication date supersedes an
// older artifact instead of replacing it.
type RawArtifact struct {
	Catalog   CatalogKind
	Path      string
	SourceURL string
	Published time.Time // date asserted by the source, not the run time
	Retrieved time.Time
	FromCache bool
	Data      []byte
}

// CatalogRecord is one canonical row. Drug records populate the brand,
// generic, dosage and route fields; food records populate the product,
// category and registrant fields. RegistrationNumber and Published are
// common to both.
type CatalogRecord struct {
	Kind               CatalogKind
	RegistrationNumber string

	// Drug catalog fields
	BrandName      string
	GenericName    string
	DosageForm     string
	DosageStrength string
	Route          string

	// Food catalog fields
	ProductName string
	Category    string
	Registrant  string

	Published string // YYYY-MM-DD, copied from the source artifact
}

// IdentityKey returns the key used to deduplicate records: the source
// registration number when present, otherwise a composite of the naming
// fields. Keys are compared case-insensitively.
func (r CatalogRecord) IdentityKey() string {
	if reg := strings.TrimSpace(r.RegistrationNumber); reg != "" {
		return strings.ToLower(reg)
	}
	if r.Kind == KindFood {
		return strings.ToLower(r.ProductName + "|" + r.Registrant)
	}
	return strings.ToLower(r.BrandName + "|" + r.GenericName)
}

// Completeness counts the non-empty fields relevant to the record's kind.
// Used to pick the better instance when two rows share an identity key.
func (r CatalogRecord) Completeness() int {
	var fields []string
	if r.Kind == KindFood {
		fields = []string{r.RegistrationNumber, r.ProductName, r.BrandName, r.Category, r.Registrant}
	} else {
		fields = []string{r.RegistrationNumber, r.BrandName, r.GenericName, r.DosageForm, r.DosageStrength, r.Route}
	}
	count := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			count++
		}
	}
	return count
}

// SynonymEntry maps a canonical generic name to its known synonym strings.
// Reference data supplied externally; never produced by this system.
type SynonymEntry struct {
	Canonical string
	Synonyms  []string
}

// Verdict is the three-way outcome of a transposition check. The engine
// never guesses: ambiguity is surfaced as VerdictUnresolved, not resolved.
type Verdict int

const (
	VerdictUnchanged Verdict = iota
	VerdictSwapped
	VerdictUnresolved
)

func (v Verdict) String() string {
	switch v {
	case VerdictUnchanged:
		return "unchanged"
	case VerdictSwapped:
		return "swapped"
	case VerdictUnresolved:
		return "unresolved"
	}
	return "unknown"
}

// CorrectionDecision is the per-record verdict plus the evidence (the
// canonical generic name that matched) behind it. Ephemeral: it lives only
// for the duration of a pipeline run and is never persisted.
type CorrectionDecision struct {
	Verdict  Verdict
	Evidence string
}
