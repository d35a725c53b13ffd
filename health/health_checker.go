// Package health reports the freshness of the cached raw catalog artifacts
// for the debug server's /healthz endpoint.
package health

import (
	"math"
	"net/http"
	"path/filepath"
	"regexp"
	"time"

	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/esoa/fdacatalogs/interfaces"
)

var artifactDateRx = regexp.MustCompile(`_(\d{4}-\d{2}-\d{2})\.[a-z]+$`)

// Compile-time check to ensure Checker implements HealthChecker
var _ interfaces.HealthChecker = (*Checker)(nil)

// Checker judges health from the raw artifact cache: a catalog is covered
// when a dated artifact exists, and fresh when that date is within MaxAge.
type Checker struct {
	CacheRoot string
	MaxAge    time.Duration
}

// NewChecker creates a health checker over the cache root.
func NewChecker(cacheRoot string, maxAge time.Duration) *Checker {
	return &Checker{CacheRoot: cacheRoot, MaxAge: maxAge}
}

// HealthCheck returns the health status, per-catalog detail and the HTTP
// status code to serve it with.
func (c *Checker) HealthCheck() (status string, data map[string]any, httpStatus int) {
	now := time.Now().UTC()
	covered := 0
	fresh := 0
	data = map[string]any{}

	for _, kind := range []entities.CatalogKind{entities.KindDrugs, entities.KindFood} {
		date, ok := c.latestArtifactDate(kind)
		if !ok {
			data[string(kind)] = map[string]any{"cached": false}
			continue
		}
		covered++
		age := now.Sub(date)
		if age <= c.MaxAge {
			fresh++
		}
		data[string(kind)] = map[string]any{
			"cached":         true,
			"published":      date.Format("2006-01-02"),
			"age_days":       math.Round(age.Hours()/24*10) / 10,
			"within_max_age": age <= c.MaxAge,
		}
	}

	switch {
	case covered == 0:
		// Nothing acquired yet: the first run is still in flight.
		return "starting", data, http.StatusServiceUnavailable
	case fresh < covered:
		return "degraded", data, http.StatusServiceUnavailable
	default:
		return "healthy", data, http.StatusOK
	}
}

func (c *Checker) latestArtifactDate(kind entities.CatalogKind) (time.Time, bool) {
	matches, err := filepath.Glob(filepath.Join(c.CacheRoot, string(kind), "*"))
	if err != nil {
		return time.Time{}, false
	}

	var latest time.Time
	found := false
	for _, path := range matches {
		m := artifactDateRx.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		d, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			continue
		}
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	return latest, found
}
