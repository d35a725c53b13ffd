package catalogparser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/esoa/fdacatalogs/logging"
	"github.com/esoa/fdacatalogs/metrics"
	"github.com/juju/ratelimit"
)

const foodTableID = "tbl_All_FoodProductslist"

var recordSummaryRx = regexp.MustCompile(`(?i)Records\s+\d+\s+to\s+([\d,]+)\s+of\s+([\d,]+)`)

// PaginatedFetcher is the fallback acquisition strategy for the food
// catalog: it walks the paginated list view sequentially, deduplicating
// records across pages. Sequential fetching is required so the
// repeat-of-previous-page guard stays meaningful.
type PaginatedFetcher struct {
	BaseURL  string
	Fetch    func(ctx context.Context, url string) ([]byte, error)
	PageSize int
	MaxPages int

	// bucket paces page requests so the source is never hammered.
	bucket *ratelimit.Bucket
}

// NewPaginatedFetcher builds a fetcher paced at one page request every two
// seconds, bounded by maxPages as a safety net against infinite pagination.
func NewPaginatedFetcher(baseURL string, fetch func(ctx context.Context, url string) ([]byte, error), maxPages int) *PaginatedFetcher {
	return &PaginatedFetcher{
		BaseURL:  baseURL,
		Fetch:    fetch,
		PageSize: 100,
		MaxPages: maxPages,
		bucket:   ratelimit.NewBucket(2*time.Second, 1),
	}
}

type parsedPage struct {
	records  []entities.CatalogRecord
	total    int // advertised total record count, 0 when absent
	rawHTML  []byte
	firstReg string
	doc      *goquery.Document
}

// FetchAll walks the result pages and returns the deduplicated union of
// their records plus the raw page payloads for archival. A page failure
// after bounded retries returns the accumulated records wrapped in a
// PartialResultError instead of discarding progress.
func (f *PaginatedFetcher) FetchAll(ctx context.Context, published string) ([]entities.CatalogRecord, [][]byte, error) {
	seen := make(map[string]bool)
	var aggregated []entities.CatalogRecord
	var rawPages [][]byte

	start := 1
	previousFirstReg := ""
	expectedTotal := 0

	for page := 1; ; page++ {
		if f.MaxPages > 0 && page > f.MaxPages {
			logging.Warn("Pagination stopped at configured page bound", "max_pages", f.MaxPages, "records", len(aggregated))
			break
		}

		if f.bucket != nil {
			f.bucket.Wait(1)
		}

		pageURL := f.pageURL(start)
		body, err := f.Fetch(ctx, pageURL)
		if err != nil {
			return aggregated, rawPages, &PartialResultError{
				Records:      aggregated,
				PagesFetched: page - 1,
				Err:          err,
			}
		}
		metrics.PagesScrapedTotal.WithLabelValues(string(entities.KindFood)).Inc()

		parsed, err := parseFoodPage(body, published)
		if err != nil {
			return aggregated, rawPages, &PartialResultError{
				Records:      aggregated,
				PagesFetched: page - 1,
				Err:          err,
			}
		}
		rawPages = append(rawPages, parsed.rawHTML)
		if expectedTotal == 0 && parsed.total > 0 {
			expectedTotal = parsed.total
		}

		if len(parsed.records) == 0 {
			break
		}

		// Some sources repeat the last page instead of returning empty.
		if previousFirstReg != "" && parsed.firstReg == previousFirstReg {
			logging.Debug("Page repeats previous page, stopping", "start", start)
			break
		}
		previousFirstReg = parsed.firstReg

		newRecords := 0
		for _, rec := range parsed.records {
			key := rec.IdentityKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			aggregated = append(aggregated, rec)
			newRecords++
		}
		if newRecords == 0 {
			break
		}

		logging.Debug("Scraped page", "start", start, "new_records", newRecords, "accumulated", len(aggregated), "expected_total", expectedTotal)

		if expectedTotal > 0 && len(aggregated) >= expectedTotal {
			break
		}
		if len(parsed.records) < f.PageSize {
			break
		}

		if next := nextStartValues(parsed.doc, f.BaseURL, start, f.PageSize); len(next) > 0 {
			start = next[0]
		} else {
			start += len(parsed.records)
		}
	}

	if len(aggregated) == 0 {
		return nil, rawPages, fmt.Errorf("no records captured from paginated list")
	}
	return aggregated, rawPages, nil
}

func (f *PaginatedFetcher) pageURL(start int) string {
	sep := "?"
	if strings.Contains(f.BaseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%srecperpage=%d&start=%d", f.BaseURL, sep, f.PageSize, start)
}

// parseFoodPage extracts the product rows from the list table. Cell order on
// the source: row number, registration number, company, product, brand.
func parseFoodPage(body []byte, published string) (*parsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse list page: %w", err)
	}

	page := &parsedPage{rawHTML: body, doc: doc}

	doc.Find("table#" + foodTableID + " tbody tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cleanField(cell.Text()))
		})
		if len(cells) < 5 {
			return
		}
		rec := entities.CatalogRecord{
			Kind:               entities.KindFood,
			RegistrationNumber: strings.ToUpper(cells[1]),
			Registrant:         cells[2],
			ProductName:        cells[3],
			BrandName:          cells[4],
			Published:          published,
		}
		if rec.RegistrationNumber == "" && rec.ProductName == "" {
			return
		}
		if page.firstReg == "" {
			page.firstReg = rec.RegistrationNumber
		}
		page.records = append(page.records, rec)
	})

	if m := recordSummaryRx.FindStringSubmatch(doc.Text()); m != nil {
		if total, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", "")); err == nil {
			page.total = total
		}
	}
	return page, nil
}

// nextStartValues collects start offsets advertised by the page's own
// pagination links, ascending, keeping only offsets past the current page.
func nextStartValues(doc *goquery.Document, baseURL string, current, pageSize int) []int {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	found := make(map[int]bool)
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if !strings.Contains(resolved.Path, base.Path) {
			return
		}
		q := resolved.Query()
		if q.Get("recperpage") != strconv.Itoa(pageSize) {
			return
		}
		if n, err := strconv.Atoi(q.Get("start")); err == nil && n > current {
			found[n] = true
		}
	})

	var values []int
	for n := range found {
		values = append(values, n)
	}
	sort.Ints(values)
	return values
}
