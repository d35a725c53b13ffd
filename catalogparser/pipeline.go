// Package catalogparser implements the catalog acquisition-and-normalization
// pipeline: raw download caching with freshness decisions, publication date
// extraction, table normalization, brand/generic transposition correction
// and the paginated fallback scrape for the food catalog.
package catalogparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/esoa/fdacatalogs/interfaces"
	"github.com/esoa/fdacatalogs/logging"
	"github.com/esoa/fdacatalogs/metrics"
)

const pageBreakMarker = "\n<!-- page break -->\n"

// Pipeline orchestrates one catalog's run: resolve date, check cache, fetch
// if needed, normalize, correct (drugs only), write output. Each pipeline
// owns its own cache namespace and output path, so the two catalogs can run
// concurrently with no shared mutable state.
type Pipeline struct {
	Catalog   entities.CatalogKind
	ListURL   string // landing page carrying the "as of" banner
	ExportURL string // bulk delimited export

	Client    *http.Client
	UserAgent string

	Cache     interfaces.ArtifactCache
	Fetcher   interfaces.PageFetcher // food fallback, nil otherwise
	Writer    interfaces.TableWriter
	Validator interfaces.RecordValidator
	Synonyms  *SynonymIndex

	AllowScrape bool
	OutputFile  string
}

// RunResult summarizes a completed catalog run.
type RunResult struct {
	Catalog     entities.CatalogKind
	Published   time.Time
	Records     int
	Swapped     int
	Unresolved  int
	Partial     bool
	FromCache   bool
	CSVPath     string
	ParquetPath string
	Duration    time.Duration
}

// Run executes the pipeline. Output is written only after the full record
// set is assembled; every fatal error leaves the previous run's output
// untouched and identifies the stage that failed.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	logging.Info("Starting catalog run", "catalog", string(p.Catalog))

	hint, err := p.probeDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: date probe: %w", p.Catalog, err)
	}

	var result *RunResult
	if p.Catalog == entities.KindFood {
		result, err = p.runFood(ctx, hint)
	} else {
		result, err = p.runDrugs(ctx, hint)
	}
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	metrics.RecordsTotal.WithLabelValues(string(p.Catalog)).Add(float64(result.Records))
	logging.Info("Catalog run finished",
		"catalog", string(p.Catalog),
		"published", result.Published.Format(dateLayout),
		"records", result.Records,
		"from_cache", result.FromCache,
		"partial", result.Partial,
		"duration", result.Duration.String())
	return result, nil
}

// probeDate performs the lightweight metadata probe: a single GET of the
// landing page to read the advertised "as of" date. An unreachable page
// yields a zero hint (the cache then falls back to its staleness window),
// but a reachable page with no recognizable marker is a hard failure: the
// phrasing changed and silently assuming a date would corrupt freshness
// decisions downstream.
func (p *Pipeline) probeDate(ctx context.Context) (time.Time, error) {
	page, err := p.get(ctx, p.ListURL)
	if err != nil {
		logging.Warn("Metadata probe failed, relying on cache staleness window",
			"catalog", string(p.Catalog), "url", p.ListURL, "error", err)
		return time.Time{}, nil
	}
	asOf, err := ExtractAsOfDate(page)
	if err != nil {
		return time.Time{}, err
	}
	logging.Debug("Remote publication date", "catalog", string(p.Catalog), "as_of", asOf.Format(dateLayout))
	return asOf, nil
}

func (p *Pipeline) runDrugs(ctx context.Context, hint time.Time) (*RunResult, error) {
	artifact, err := p.Cache.GetOrFetch(ctx, p.Catalog, p.ExportURL, hint)
	if err != nil {
		return nil, fmt.Errorf("%s: acquire export: %w", p.Catalog, err)
	}

	table, err := ParseCSVTable(bytes.NewReader(artifact.Data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Catalog, &FetchError{URL: artifact.SourceURL, Err: err})
	}

	records, err := Normalize(p.Catalog, table, artifact.Published.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("%s: normalize: %w", p.Catalog, err)
	}

	corrections := Correct(records, p.Synonyms)
	final := make([]entities.CatalogRecord, 0, len(corrections))
	swapped, unresolved := 0, 0
	for _, c := range corrections {
		final = append(final, c.Record)
		switch c.Decision.Verdict {
		case entities.VerdictSwapped:
			swapped++
		case entities.VerdictUnresolved:
			unresolved++
		}
	}

	p.reportQuality(final)

	csvPath, parquetPath, err := p.Writer.Write(p.Catalog, final, artifact.Published, p.OutputFile)
	if err != nil {
		return nil, fmt.Errorf("%s: write output: %w", p.Catalog, err)
	}

	return &RunResult{
		Catalog:     p.Catalog,
		Published:   artifact.Published,
		Records:     len(final),
		Swapped:     swapped,
		Unresolved:  unresolved,
		FromCache:   artifact.FromCache,
		CSVPath:     csvPath,
		ParquetPath: parquetPath,
	}, nil
}

func (p *Pipeline) runFood(ctx context.Context, hint time.Time) (*RunResult, error) {
	artifact, err := p.Cache.GetOrFetch(ctx, p.Catalog, p.ExportURL, hint)
	if err == nil {
		records, perr := p.foodRecords(artifact)
		if perr != nil {
			return nil, fmt.Errorf("%s: %w", p.Catalog, perr)
		}
		return p.writeFood(records, artifact.Published, artifact.FromCache, false)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return nil, fmt.Errorf("%s: acquire export: %w", p.Catalog, err)
	}

	if p.Fetcher == nil || !p.AllowScrape {
		return nil, fmt.Errorf("%s: export unavailable and fallback scrape disabled: %w", p.Catalog, err)
	}
	if hint.IsZero() {
		// Scraped output must still be named by a real publication date.
		return nil, fmt.Errorf("%s: fallback scrape needs a publication date: %w", p.Catalog, ErrDateNotFound)
	}
	logging.Warn("Bulk export unavailable, falling back to paginated scrape",
		"catalog", string(p.Catalog), "error", err)

	records, pages, serr := p.Fetcher.FetchAll(ctx, hint.Format(dateLayout))
	partial := false
	if serr != nil {
		var pr *PartialResultError
		if !errors.As(serr, &pr) || len(pr.Records) == 0 {
			return nil, fmt.Errorf("%s: fallback scrape: %w", p.Catalog, serr)
		}
		partial = true
		records = pr.Records
		logging.Warn("Accepting partial scrape result",
			"catalog", string(p.Catalog),
			"records", len(records),
			"pages", pr.PagesFetched,
			"error", pr.Err)
	}

	if len(pages) > 0 {
		joined := bytes.Join(pages, []byte(pageBreakMarker))
		if _, aerr := p.Cache.Store(p.Catalog, hint, "html", p.ListURL, joined); aerr != nil {
			logging.Warn("Failed to archive scraped pages", "catalog", string(p.Catalog), "error", aerr)
		}
	}

	return p.writeFood(DedupeRecords(records), hint, false, partial)
}

func (p *Pipeline) writeFood(records []entities.CatalogRecord, published time.Time, fromCache, partial bool) (*RunResult, error) {
	p.reportQuality(records)
	csvPath, parquetPath, err := p.Writer.Write(p.Catalog, records, published, p.OutputFile)
	if err != nil {
		return nil, fmt.Errorf("%s: write output: %w", p.Catalog, err)
	}
	return &RunResult{
		Catalog:     p.Catalog,
		Published:   published,
		Records:     len(records),
		Partial:     partial,
		FromCache:   fromCache,
		CSVPath:     csvPath,
		ParquetPath: parquetPath,
	}, nil
}

// foodRecords turns a cached or freshly downloaded food artifact into
// canonical records. Archived scrape runs are stored as concatenated HTML
// pages, so both payload shapes are accepted.
func (p *Pipeline) foodRecords(artifact *entities.RawArtifact) ([]entities.CatalogRecord, error) {
	published := artifact.Published.Format(dateLayout)
	if RejectHTMLPayload(artifact.Data) != nil {
		var records []entities.CatalogRecord
		for _, page := range bytes.Split(artifact.Data, []byte(pageBreakMarker)) {
			parsed, err := parseFoodPage(page, published)
			if err != nil {
				return nil, err
			}
			records = append(records, parsed.records...)
		}
		return DedupeRecords(records), nil
	}

	table, err := ParseCSVTable(bytes.NewReader(artifact.Data))
	if err != nil {
		return nil, &FetchError{URL: artifact.SourceURL, Err: err}
	}
	return Normalize(p.Catalog, table, published)
}

func (p *Pipeline) reportQuality(records []entities.CatalogRecord) {
	if p.Validator == nil {
		return
	}
	report := p.Validator.ReportDataQuality(records)
	if len(report.DuplicateKeys) > 0 {
		logging.Warn("Duplicate identity keys survived normalization",
			"catalog", string(p.Catalog), "count", len(report.DuplicateKeys))
	}
	if report.MissingRegistration > 0 {
		logging.Info("Records without registration numbers",
			"catalog", string(p.Catalog), "count", report.MissingRegistration)
	}
}

// RejectHTMLPayload flags payloads whose leading bytes look like an HTML
// document. The source gates its bulk export behind a browser check and
// serves an HTML page instead of data; storing that would poison the cache.
func RejectHTMLPayload(data []byte) error {
	probe := data
	if len(probe) > 512 {
		probe = probe[:512]
	}
	lower := strings.ToLower(string(probe))
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype html") {
		return fmt.Errorf("server returned HTML instead of delimited data")
	}
	return nil
}

// get performs the single lightweight request used by the metadata probe.
func (p *Pipeline) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
