package catalogparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
)

// ErrDateNotFound is returned when no recognizable "as of" marker exists in
// the expected locations. Using the wall-clock date instead would corrupt
// cache-freshness decisions and output naming, so this is always fatal.
var ErrDateNotFound = errors.New("publication date marker not found")

// FetchError reports a network or HTTP failure. Transient failures (network
// errors, 5xx, 429) are retried once with backoff before surfacing; 4xx and
// malformed payloads are never retried.
type FetchError struct {
	URL       string
	Status    int
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SchemaMismatchError means the source format changed beyond the recognized
// header variants. Fatal: no output is written for the affected catalog.
type SchemaMismatchError struct {
	Catalog entities.CatalogKind
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s catalog: required columns missing: %s",
		e.Catalog, strings.Join(e.Missing, ", "))
}

// PartialResultError carries the records accumulated before a pagination
// failure. Non-fatal: the caller decides whether to accept the partial set.
type PartialResultError struct {
	Records      []entities.CatalogRecord
	PagesFetched int
	Err          error
}

func (e *PartialResultError) Error() string {
	return fmt.Sprintf("pagination stopped after %d pages with %d records: %v",
		e.PagesFetched, len(e.Records), e.Err)
}

func (e *PartialResultError) Unwrap() error { return e.Err }
