// Package interfaces defines the contracts between the catalog pipeline and
// its collaborators, so each piece can be substituted in tests.
package interfaces

import (
	"context"
	"time"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
)

// ArtifactCache is the durable store of raw downloads with the freshness
// predicate. Artifacts are append-only: newer publication dates supersede,
// nothing is evicted.
type ArtifactCache interface {
	// GetOrFetch returns a fresh cached artifact or downloads, dates and
	// stores a new one.
	GetOrFetch(ctx context.Context, kind entities.CatalogKind, url string, hint time.Time) (*entities.RawArtifact, error)

	// Store archives an already-acquired payload under its publication date.
	Store(kind entities.CatalogKind, published time.Time, ext, sourceURL string, data []byte) (*entities.RawArtifact, error)
}

// PageFetcher is the paginated fallback acquisition strategy. A failure
// mid-walk returns the accumulated records wrapped in a partial-result
// error rather than discarding progress.
type PageFetcher interface {
	FetchAll(ctx context.Context, published string) ([]entities.CatalogRecord, [][]byte, error)
}

// TableWriter persists one normalized output table per run, named by the
// publication date. Returns the delimited and columnar paths.
type TableWriter interface {
	Write(kind entities.CatalogKind, records []entities.CatalogRecord, published time.Time, overrideName string) (csvPath, parquetPath string, err error)
}

// DataQualityReport summarizes the issues found in a normalized record set.
type DataQualityReport struct {
	Records               int
	DuplicateKeys         []string
	MissingRegistration   int
	MissingRoute          int
	UnresolvedCorrections int
	SwappedCorrections    int
}

// RecordValidator checks individual records and reports aggregate data
// quality for a run.
type RecordValidator interface {
	ValidateRecord(rec *entities.CatalogRecord) error
	ReportDataQuality(records []entities.CatalogRecord) *DataQualityReport
}

// HealthChecker reports pipeline health for the debug server's /healthz
// endpoint.
type HealthChecker interface {
	HealthCheck() (status string, data map[string]any, httpStatus int)
}
