package catalogparser

import (
	"regexp"
	"sort"
	"sync"
)

// formToRoute maps recognized dosage-form keywords (lowercased, as produced
// by NormalizeText) to their default administration route. Derived from the
// DrugBank-sourced form/route reference used by the downstream consumers.
var formToRoute = map[string]string{
	// Oral solids and liquids
	"tablet": "oral", "tab": "oral", "tabs": "oral", "caplet": "oral",
	"capsule": "oral", "cap": "oral", "caps": "oral",
	"syrup": "oral", "syr": "oral",
	"suspension": "oral", "susp": "oral",
	"solution": "oral", "soln": "oral",
	"sachet": "oral", "granule": "oral", "granules": "oral", "powder": "oral",
	"lozenge": "oral", "mouthwash": "oral", "elixir": "oral",
	"chewing gum": "oral", "wafer": "oral", "oral drops": "oral",

	// Topical
	"cream": "topical", "ointment": "topical", "gel": "topical",
	"lotion": "topical", "soap": "topical", "shampoo": "topical",
	"paste": "topical", "foam": "topical", "emulsion": "topical",
	"spray": "topical", "aerosol": "topical",

	"patch": "transdermal",

	// Inhalation
	"inhaler": "inhalation", "nebule": "inhalation", "neb": "inhalation",
	"metered dose inhaler": "inhalation", "dry powder inhaler": "inhalation",

	// Parenteral
	"injection": "intravenous", "inj": "parenteral",
	"ampule": "parenteral", "amp": "parenteral", "ampoule": "parenteral",
	"vial": "parenteral",

	// Ophthalmic / otic / nasal
	"drops": "ophthalmic", "drop": "ophthalmic",
	"eye drops": "ophthalmic", "eye drop": "ophthalmic",
	"ear drops": "otic", "ear drop": "otic",
	"nasal spray": "nasal", "nasal drops": "nasal",

	// Rectal / vaginal
	"suppository": "rectal", "supp": "rectal", "enema": "rectal",
	"ovule": "vaginal", "pessary": "vaginal",

	"film": "buccal",
	"implant": "subcutaneous",
}

var (
	formWordsOnce sync.Once
	formWordRxs   []struct {
		word string
		rx   *regexp.Regexp
	}
)

// formWords returns the recognized form keywords with their boundary-anchored
// patterns, longest keyword first so multi-word forms win over substrings
// ("eye drops" before "drops").
func formWords() []struct {
	word string
	rx   *regexp.Regexp
} {
	formWordsOnce.Do(func() {
		words := make([]string, 0, len(formToRoute))
		for w := range formToRoute {
			words = append(words, w)
		}
		sort.Slice(words, func(i, j int) bool {
			if len(words[i]) != len(words[j]) {
				return len(words[i]) > len(words[j])
			}
			return words[i] < words[j]
		})
		for _, w := range words {
			formWordRxs = append(formWordRxs, struct {
				word string
				rx   *regexp.Regexp
			}{w, regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)})
		}
	})
	return formWordRxs
}

// ParseForm extracts the first recognized dosage-form keyword from text that
// has already been through NormalizeText. Empty when nothing matches.
func ParseForm(normalized string) string {
	for _, fw := range formWords() {
		if fw.rx.MatchString(normalized) {
			return fw.word
		}
	}
	return ""
}

// InferFormAndRoute derives the normalized form token and its route from the
// raw dosage-form string. Both results are empty when the text contains no
// recognized form keyword.
func InferFormAndRoute(dosageForm string) (form, route string) {
	if dosageForm == "" {
		return "", ""
	}
	form = ParseForm(NormalizeText(dosageForm))
	if form == "" {
		return "", ""
	}
	return form, formToRoute[form]
}
