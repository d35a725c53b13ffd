package catalogparser

import (
	"bytes"
	"fmt"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// The source has reworded its "as of" banner over the years; all known
// phrasings are recognized. Unrecognized phrasing is a hard failure rather
// than a silent fallback to today, because the extracted date drives cache
// freshness and output naming.
var asOfPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as of\s+([A-Za-z]+\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4})`),
	regexp.MustCompile(`(?i)as of\s+(\d{1,2}\s+[A-Za-z]+\s+\d{4})`),
	regexp.MustCompile(`(?i)as of\s+(\d{4}-\d{2}-\d{2})`),
}

var ordinalRx = regexp.MustCompile(`(\d{1,2})(st|nd|rd|th)`)

// stripOrdinals removes ordinal suffixes (1st -> 1) so the candidates parse
// reliably.
func stripOrdinals(value string) string {
	return ordinalRx.ReplaceAllString(value, "$1")
}

// parseDateCandidate parses a matched date string leniently, returning the
// zero time when the candidate is not a real date.
func parseDateCandidate(value string) time.Time {
	t, err := dateparse.ParseAny(stripOrdinals(value))
	if err != nil {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExtractAsOfDate locates the publication date asserted by a catalog landing
// page. The page markup is reduced to text first so the label can span
// inline elements. Returns ErrDateNotFound when no recognizable marker
// exists.
func ExtractAsOfDate(page []byte) (time.Time, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse landing page: %w", err)
	}
	return extractAsOfText(doc.Text())
}

func extractAsOfText(text string) (time.Time, error) {
	for _, pattern := range asOfPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if parsed := parseDateCandidate(match[1]); !parsed.IsZero() {
				return parsed, nil
			}
		}
	}
	return time.Time{}, ErrDateNotFound
}
