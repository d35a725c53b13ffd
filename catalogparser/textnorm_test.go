package catalogparser

import (
	"testing"
)

func TestNormalizeText(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lowercases", "PARACETAMOL", "paracetamol"},
		{"Strips accents", "Sulfamétoxazol", "sulfametoxazol"},
		{"Collapses whitespace", "  amoxicillin   500 mg ", "amoxicillin 500 mg"},
		{"Microgram to mcg", "levothyroxine 50 microgram", "levothyroxine 50 mcg"},
		{"Milligram to mg", "500 milligram tablet", "500 mg tablet"},
		{"Milliliter to ml", "60 milliliter bottle", "60 ml bottle"},
		{"Cubic centimeter to ml", "10 cc vial", "10 ml vial"},
		{"Gm to g", "5 gm sachet", "5 g sachet"},
		{"Gms to g", "10 gms powder", "10 g powder"},
		{"IV expanded", "ceftriaxone iv infusion", "ceftriaxone intravenous infusion"},
		{"Unsafe runes dropped", "amoxicillin® (trihydrate)", "amoxicillin trihydrate"},
		{"Misspelling polymixin", "polymixin b sulfate", "polymyxin b sulfate"},
		{"Misspelling hydrochlorde", "metformin hydrochlorde", "metformin hydrochloride"},
		{"Keeps percent and slash", "lidocaine 2% w/v", "lidocaine 2% w/v"},
		{"Empty input", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeText(tc.input)
			if got != tc.expected {
				t.Errorf("NormalizeText(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

// Normalization must be idempotent: re-normalizing canonical text returns it
// unchanged, otherwise repeated pipeline runs would drift the data.
func TestNormalizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"PARACETAMOL 500 Milligram Tablet",
		"Ceftriaxone IV 1 gm Vial",
		"Sulfamétoxazol + Trimethoprim 10 cc",
		"Levothyroxine 50 microgram",
		"amlodipine besilate 10mg",
	}

	for _, input := range inputs {
		once := NormalizeText(input)
		twice := NormalizeText(once)
		if once != twice {
			t.Errorf("NormalizeText not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestCleanField(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Trims ends", "  Biogesic  ", "Biogesic"},
		{"Keeps casing", "Biogesic Forte", "Biogesic Forte"},
		{"Control chars to space", "Brand\x00Name\tHere", "Brand Name Here"},
		{"Collapses runs", "Brand    Name\n\nHere", "Brand Name Here"},
		{"Empty input", "", ""},
		{"Only whitespace", " \t\n ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := cleanField(tc.input)
			if got != tc.expected {
				t.Errorf("cleanField(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestCleanField_Idempotent(t *testing.T) {
	inputs := []string{"  Biogesic \x01 Forte  ", "A\t\tB", "plain"}
	for _, input := range inputs {
		once := cleanField(input)
		if cleanField(once) != once {
			t.Errorf("cleanField not idempotent for %q", input)
		}
	}
}
