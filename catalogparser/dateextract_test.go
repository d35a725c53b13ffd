package catalogparser

import (
	"errors"
	"testing"
	"time"
)

func TestExtractAsOfDate(t *testing.T) {
	testCases := []struct {
		name     string
		page     string
		expected string
	}{
		{
			"Month day year",
			`<html><body><div>List of Registered Drug Products as of May 15, 2024</div></body></html>`,
			"2024-05-15",
		},
		{
			"Ordinal day",
			`<html><body><p>as of May 3rd, 2024</p></body></html>`,
			"2024-05-03",
		},
		{
			"Day month year",
			`<html><body><span>Data as of 15 May 2024</span></body></html>`,
			"2024-05-15",
		},
		{
			"ISO date",
			`<html><body>as of 2024-05-15</body></html>`,
			"2024-05-15",
		},
		{
			"Label spans inline elements",
			`<html><body><b>as of</b> <i>May 15, 2024</i></body></html>`,
			"2024-05-15",
		},
		{
			"Case insensitive",
			`<html><body>AS OF JUNE 1, 2023</body></html>`,
			"2023-06-01",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractAsOfDate([]byte(tc.page))
			if err != nil {
				t.Fatalf("ExtractAsOfDate failed: %v", err)
			}
			if got.Format("2006-01-02") != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got.Format("2006-01-02"))
			}
			if got.Location() != time.UTC {
				t.Errorf("Expected UTC date, got %v", got.Location())
			}
		})
	}
}

func TestExtractAsOfDate_NotFound(t *testing.T) {
	testCases := []struct {
		name string
		page string
	}{
		{"No marker at all", `<html><body>Registered Drug Products</body></html>`},
		{"Marker without date", `<html><body>as of today</body></html>`},
		{"Unrelated date", `<html><body>Updated on May 15, 2024</body></html>`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractAsOfDate([]byte(tc.page))
			if !errors.Is(err, ErrDateNotFound) {
				t.Errorf("Expected ErrDateNotFound, got %v", err)
			}
		})
	}
}

func TestStripOrdinals(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"May 1st, 2024", "May 1, 2024"},
		{"May 2nd, 2024", "May 2, 2024"},
		{"May 3rd, 2024", "May 3, 2024"},
		{"May 15th, 2024", "May 15, 2024"},
		{"May 15, 2024", "May 15, 2024"},
	}
	for _, tc := range testCases {
		if got := stripOrdinals(tc.input); got != tc.expected {
			t.Errorf("stripOrdinals(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}
