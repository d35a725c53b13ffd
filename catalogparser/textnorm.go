package catalogparser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Pre-compiled patterns for text canonicalization. Compiled once at package
// initialization and reused for every field.
var (
	ivTokenRx    = regexp.MustCompile(`\biv\b`)
	unsafeRuneRx = regexp.MustCompile(`[^a-z0-9%/+.\- _]+`)
	ccTokenRx    = regexp.MustCompile(`(^|[^a-z])cc($|[^a-z])`)
	gmTokenRx    = regexp.MustCompile(`(^|[^a-z])gms?($|[^a-z])`)
	wsRunRx      = regexp.MustCompile(`\s+`)
)

var asciiFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldASCII decomposes accented characters and strips the combining marks,
// so "Sulfamétoxazol" and "Sulfametoxazol" compare equal downstream.
func foldASCII(s string) string {
	folded, _, err := transform.String(asciiFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeText returns the canonical lowercased form of a dosage or name
// string, with unit tokens collapsed to their short forms. The function is
// idempotent: applying it to its own output returns the input unchanged.
func NormalizeText(value string) string {
	s := foldASCII(value)
	s = strings.ToLower(s)
	s = ivTokenRx.ReplaceAllString(s, "intravenous")
	s = unsafeRuneRx.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "microgram", "mcg")
	s = ccTokenRx.ReplaceAllString(s, "${1}ml${2}")
	s = strings.ReplaceAll(s, "milli litre", "ml")
	s = strings.ReplaceAll(s, "milliliter", "ml")
	s = gmTokenRx.ReplaceAllString(s, "${1}g${2}")
	s = strings.ReplaceAll(s, "milligram", "mg")
	// Known source misspellings
	s = strings.ReplaceAll(s, "polymixin", "polymyxin")
	s = strings.ReplaceAll(s, "hydrochlorde", "hydrochloride")
	s = wsRunRx.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// cleanField is the normalization applied to every string field of a
// canonical record: control characters stripped, whitespace runs collapsed,
// ends trimmed. Deterministic and idempotent; original casing is kept.
func cleanField(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsControl(r) {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(wsRunRx.ReplaceAllString(b.String(), " "))
}
