package catalogparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/esoa/fdacatalogs/logging"
	"github.com/esoa/fdacatalogs/metrics"
	"golang.org/x/text/encoding/charmap"
)

const dateLayout = "2006-01-02"

var artifactDateRx = regexp.MustCompile(`_(\d{4}-\d{2}-\d{2})\.[a-z]+$`)

// RawCache is the content-addressed-by-date store of unprocessed downloads.
// One subtree per catalog kind under Root; artifacts accumulate and nothing
// is evicted, disk growth being the cost of reproducibility.
type RawCache struct {
	Root      string
	Client    *http.Client
	UserAgent string
	Retries   int
	Backoff   time.Duration
	Staleness time.Duration
	Force     bool

	// Validate rejects a fetched payload before it is stored. A rejection
	// counts as a non-transient fetch failure (malformed payload).
	Validate func(data []byte) error

	// Extract recovers the publication date from a fetched payload when the
	// caller could not supply a remote hint.
	Extract func(data []byte) (time.Time, error)

	sleep func(d time.Duration)
}

// NewRawCache creates a cache rooted at root with the default policy:
// one retry with 5s backoff, 7-day staleness window.
func NewRawCache(root string, client *http.Client) *RawCache {
	return &RawCache{
		Root:      root,
		Client:    client,
		Retries:   1,
		Backoff:   5 * time.Second,
		Staleness: 7 * 24 * time.Hour,
		sleep:     time.Sleep,
	}
}

func artifactPrefix(kind entities.CatalogKind) string {
	if kind == entities.KindFood {
		return "FDA_PH_FOOD_"
	}
	return "FDA_PH_DRUGS_"
}

func (c *RawCache) dir(kind entities.CatalogKind) string {
	return filepath.Join(c.Root, string(kind))
}

// Latest returns the date and path of the most recent cached artifact for a
// catalog, or a zero date when nothing is cached yet.
func (c *RawCache) Latest(kind entities.CatalogKind) (time.Time, string) {
	matches, err := filepath.Glob(filepath.Join(c.dir(kind), artifactPrefix(kind)+"*"))
	if err != nil || len(matches) == 0 {
		return time.Time{}, ""
	}

	type dated struct {
		date time.Time
		path string
	}
	var items []dated
	for _, path := range matches {
		m := artifactDateRx.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		d, err := time.Parse(dateLayout, m[1])
		if err != nil {
			continue
		}
		items = append(items, dated{d, path})
	}
	if len(items) == 0 {
		return time.Time{}, ""
	}
	sort.Slice(items, func(i, j int) bool { return items[i].date.Before(items[j].date) })
	last := items[len(items)-1]
	return last.date, last.path
}

// GetOrFetch returns the raw artifact for a catalog, reusing the most recent
// cached artifact when it is fresh. A cached artifact is fresh iff its
// recorded publication date is the same as or newer than the remote hint;
// with no hint, iff it is younger than the staleness window. On a miss the
// payload is downloaded, dated and stored before being returned.
func (c *RawCache) GetOrFetch(ctx context.Context, kind entities.CatalogKind, url string, hint time.Time) (*entities.RawArtifact, error) {
	latestDate, latestPath := c.Latest(kind)

	if !c.Force && latestPath != "" {
		fresh := false
		retrieved := time.Time{}
		if info, err := os.Stat(latestPath); err == nil {
			retrieved = info.ModTime()
		}
		if !hint.IsZero() {
			fresh = !latestDate.Before(hint)
		} else if !retrieved.IsZero() {
			fresh = time.Since(retrieved) < c.Staleness
		}
		if fresh {
			data, err := os.ReadFile(latestPath)
			if err != nil {
				return nil, fmt.Errorf("cached artifact %s unreadable: %w", latestPath, err)
			}
			logging.Debug("Reusing cached artifact", "catalog", string(kind), "path", latestPath, "published", latestDate.Format(dateLayout))
			metrics.CacheHitsTotal.WithLabelValues(string(kind)).Inc()
			return &entities.RawArtifact{
				Catalog:   kind,
				Path:      latestPath,
				SourceURL: url,
				Published: latestDate,
				Retrieved: retrieved,
				FromCache: true,
				Data:      data,
			}, nil
		}
	}

	data, err := c.fetch(ctx, kind, url, c.Validate)
	if err != nil {
		return nil, err
	}

	published := hint
	if published.IsZero() && c.Extract != nil {
		published, err = c.Extract(data)
		if err != nil {
			return nil, err
		}
	}
	if published.IsZero() {
		return nil, ErrDateNotFound
	}

	return c.Store(kind, published, "csv", url, data)
}

// Store writes a dated artifact under the catalog's cache subtree. Artifacts
// are immutable: an existing file for the same date is kept as-is.
func (c *RawCache) Store(kind entities.CatalogKind, published time.Time, ext, sourceURL string, data []byte) (*entities.RawArtifact, error) {
	dir := c.dir(kind)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s%s.%s", artifactPrefix(kind), published.Format(dateLayout), ext)
	path := filepath.Join(dir, name)

	if _, err := os.Stat(path); err != nil {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0640); err != nil {
			return nil, fmt.Errorf("failed to write artifact %s: %w", path, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			return nil, fmt.Errorf("failed to finalize artifact %s: %w", path, err)
		}
		logging.Info("Stored raw artifact", "catalog", string(kind), "path", path, "bytes", len(data))
	}

	return &entities.RawArtifact{
		Catalog:   kind,
		Path:      path,
		SourceURL: sourceURL,
		Published: published,
		Retrieved: time.Now(),
		Data:      data,
	}, nil
}

// Download fetches a payload with the bounded-retry policy without touching
// the cache. Pagination fallbacks use it for individual result pages.
func (c *RawCache) Download(ctx context.Context, kind entities.CatalogKind, url string) ([]byte, error) {
	return c.fetch(ctx, kind, url, nil)
}

// fetch downloads a payload with the bounded-retry policy: transient
// failures (network errors, 429, 5xx) get one more attempt per configured
// retry after backoff; anything else surfaces immediately as a FetchError.
func (c *RawCache) fetch(ctx context.Context, kind entities.CatalogKind, url string, validate func([]byte) error) ([]byte, error) {
	var lastErr *FetchError
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.Backoff
			logging.Warn("Retrying download", "catalog", string(kind), "url", url, "attempt", attempt+1, "wait", wait.String())
			select {
			case <-ctx.Done():
				metrics.FetchTotal.WithLabelValues(string(kind), "error").Inc()
				return nil, &FetchError{URL: url, Err: ctx.Err()}
			default:
				if c.sleep != nil {
					c.sleep(wait)
				}
			}
		}

		data, ferr := c.fetchOnce(ctx, url)
		if ferr == nil {
			if validate != nil {
				if verr := validate(data); verr != nil {
					metrics.FetchTotal.WithLabelValues(string(kind), "error").Inc()
					return nil, &FetchError{URL: url, Err: verr}
				}
			}
			metrics.FetchTotal.WithLabelValues(string(kind), "download").Inc()
			return data, nil
		}
		lastErr = ferr
		if !ferr.Transient {
			break
		}
	}
	metrics.FetchTotal.WithLabelValues(string(kind), "error").Inc()
	return nil, lastErr
}

func (c *RawCache) fetchOnce(ctx context.Context, url string) ([]byte, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Transient: true, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, &FetchError{
			URL:       url,
			Status:    resp.StatusCode,
			Transient: transient,
			Err:       fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Transient: true, Err: err}
	}
	return decodeCharset(body), nil
}

// decodeCharset converts legacy ISO-8859-1 payloads to UTF-8. The source
// serves a mix of encodings, so the bytes are sniffed rather than trusting
// the content-type header.
func decodeCharset(body []byte) []byte {
	if utf8.Valid(body) {
		return body
	}
	decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return body
	}
	return decoded
}
