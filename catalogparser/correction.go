package catalogparser

import (
	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/esoa/fdacatalogs/logging"
)

// Correction pairs a (possibly repaired) record with the verdict reached for
// it.
type Correction struct {
	Record   entities.CatalogRecord
	Decision entities.CorrectionDecision
}

// Correct detects and repairs drug rows where the source transposed the
// brand and generic columns, using the synonym reference as the authority.
//
// Decision policy:
//   - brand matches the reference and generic does not: the pair is swapped
//   - generic already matches: unchanged
//   - neither matches, or both match (ambiguous): unresolved, passed through
//     unmodified; the engine never guesses
//
// With a nil index the engine degrades to a no-op: every record comes back
// unchanged. Correction is a best-effort enhancement, not a dependency.
func Correct(records []entities.CatalogRecord, index *SynonymIndex) []Correction {
	out := make([]Correction, 0, len(records))
	swapped, unresolved := 0, 0

	for _, rec := range records {
		decision := decide(rec, index)
		if decision.Verdict == entities.VerdictSwapped {
			rec.BrandName, rec.GenericName = rec.GenericName, rec.BrandName
			swapped++
		} else if decision.Verdict == entities.VerdictUnresolved {
			unresolved++
		}
		out = append(out, Correction{Record: rec, Decision: decision})
	}

	if swapped > 0 || unresolved > 0 {
		logging.Info("Brand/generic correction finished",
			"records", len(records),
			"swapped", swapped,
			"unresolved", unresolved)
	}
	return out
}

func decide(rec entities.CatalogRecord, index *SynonymIndex) entities.CorrectionDecision {
	if index == nil || index.Len() == 0 {
		return entities.CorrectionDecision{Verdict: entities.VerdictUnchanged}
	}

	brandCanonical, brandHit := index.Lookup(rec.BrandName)
	genericCanonical, genericHit := index.Lookup(rec.GenericName)

	switch {
	case brandHit && genericHit:
		// Both columns look like generics; surfacing beats guessing.
		return entities.CorrectionDecision{Verdict: entities.VerdictUnresolved, Evidence: brandCanonical}
	case genericHit:
		return entities.CorrectionDecision{Verdict: entities.VerdictUnchanged, Evidence: genericCanonical}
	case brandHit:
		return entities.CorrectionDecision{Verdict: entities.VerdictSwapped, Evidence: brandCanonical}
	default:
		return entities.CorrectionDecision{Verdict: entities.VerdictUnresolved}
	}
}
