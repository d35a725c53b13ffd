package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/esoa/fdacatalogs/catalogparser"
	"github.com/esoa/fdacatalogs/catalogparser/entities"
	"github.com/esoa/fdacatalogs/config"
	"github.com/esoa/fdacatalogs/health"
	"github.com/esoa/fdacatalogs/logging"
	"github.com/esoa/fdacatalogs/metrics"
	"github.com/esoa/fdacatalogs/validation"
	"github.com/joho/godotenv"
)

const (
	portalBase   = "https://verification.fda.gov.ph"
	drugListURL  = portalBase + "/drug_productslist.php"
	foodListURL  = portalBase + "/All_FoodProductslist.php"
	exportSuffix = "?export=csv"

	userAgent = "fdacatalogs/1.0 (+https://github.com/esoa/fdacatalogs)"
)

func main() {
	catalogFlag := flag.String("catalog", "all", "catalog to refresh: drugs, food or all")
	outDir := flag.String("outdir", "", "output directory (overrides OUTPUT_DIR)")
	outFile := flag.String("outfile", "", "explicit output filename (overrides OUTPUT_FILE)")
	force := flag.Bool("force", false, "ignore cache freshness and always re-download")
	allowScrape := flag.Bool("allow-scrape", false, "enable the paginated fallback for the food catalog")
	flag.Parse()

	// A .env file is optional; plain environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	// Flags override the environment so one-off runs don't need a .env.
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *outFile != "" {
		cfg.OutputFile = *outFile
	}
	if *force {
		cfg.ForceRefresh = true
	}
	if *allowScrape {
		cfg.AllowScrape = true
	}

	logging.Init(cfg.LogDir, cfg.LogLevel)

	kinds, err := catalogsFor(*catalogFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := checkOutputFile(cfg.OutputFile, kinds); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		checker := health.NewChecker(cfg.CacheDir, time.Duration(cfg.StalenessDays)*24*time.Hour)
		metricsServer = metrics.Serve(cfg.MetricsAddr, checker)
	}

	start := time.Now()
	results, errs := runAll(context.Background(), cfg, kinds)

	for _, res := range results {
		printResult(res)
	}
	logging.Info("Run finished", "catalogs", len(kinds), "failed", len(errs), "duration", time.Since(start).String())

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Metrics server shutdown failed", "error", err)
		}
		cancel()
	}

	if len(errs) > 0 {
		for _, err := range errs {
			logging.Error("Catalog run failed", "error", err)
		}
		os.Exit(1)
	}
}

func catalogsFor(name string) ([]entities.CatalogKind, error) {
	switch name {
	case "drugs":
		return []entities.CatalogKind{entities.KindDrugs}, nil
	case "food":
		return []entities.CatalogKind{entities.KindFood}, nil
	case "all":
		return []entities.CatalogKind{entities.KindDrugs, entities.KindFood}, nil
	}
	return nil, fmt.Errorf("unknown catalog %q: must be drugs, food or all", name)
}

// checkOutputFile rejects an explicit output filename when more than one
// catalog is selected. The catalogs run concurrently and an override names
// a single file, so sharing it would make the runs overwrite each other.
func checkOutputFile(outputFile string, kinds []entities.CatalogKind) error {
	if outputFile != "" && len(kinds) > 1 {
		return fmt.Errorf("an explicit output filename serves one catalog: pick -catalog drugs or -catalog food")
	}
	return nil
}

// runAll refreshes the requested catalogs concurrently. A failed catalog
// never aborts the others; every failure is collected and reported.
func runAll(ctx context.Context, cfg *config.Config, kinds []entities.CatalogKind) ([]*catalogparser.RunResult, []error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*catalogparser.RunResult
		errs    []error
	)

	for _, kind := range kinds {
		wg.Add(1)
		go func(kind entities.CatalogKind) {
			defer wg.Done()

			pipe, err := buildPipeline(cfg, kind)
			if err == nil {
				var res *catalogparser.RunResult
				res, err = pipe.Run(ctx)
				if res != nil {
					mu.Lock()
					results = append(results, res)
					mu.Unlock()
				}
			}

			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", kind, err))
				mu.Unlock()
			}
		}(kind)
	}
	wg.Wait()

	return results, errs
}

func buildPipeline(cfg *config.Config, kind entities.CatalogKind) (*catalogparser.Pipeline, error) {
	client := &http.Client{Timeout: cfg.RequestTimeout}

	cache := catalogparser.NewRawCache(cfg.CacheDir, client)
	cache.UserAgent = userAgent
	cache.Retries = cfg.RetryCount
	cache.Staleness = time.Duration(cfg.StalenessDays) * 24 * time.Hour
	cache.Force = cfg.ForceRefresh

	pipe := &catalogparser.Pipeline{
		Catalog:     kind,
		Client:      client,
		UserAgent:   userAgent,
		Cache:       cache,
		Writer:      &catalogparser.OutputWriter{Dir: cfg.OutputDir},
		Validator:   validation.NewDataValidator(),
		AllowScrape: cfg.AllowScrape,
		OutputFile:  cfg.OutputFile,
	}

	switch kind {
	case entities.KindDrugs:
		pipe.ListURL = drugListURL
		pipe.ExportURL = drugListURL + exportSuffix

		synonyms, err := catalogparser.LoadSynonyms(cfg.SynonymsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load synonym reference: %w", err)
		}
		pipe.Synonyms = synonyms
	case entities.KindFood:
		// The portal answers food export requests with the HTML search page
		// instead of an HTTP error; reject those before they reach the cache.
		cache.Validate = catalogparser.RejectHTMLPayload

		pipe.ListURL = foodListURL
		pipe.ExportURL = foodListURL + exportSuffix
		pipe.Fetcher = catalogparser.NewPaginatedFetcher(foodListURL, func(ctx context.Context, url string) ([]byte, error) {
			return cache.Download(ctx, entities.KindFood, url)
		}, cfg.MaxPages)
	}

	return pipe, nil
}

func printResult(res *catalogparser.RunResult) {
	source := "download"
	if res.FromCache {
		source = "cache"
	}
	fmt.Printf("%s: %d records as of %s (%s, %s)\n",
		res.Catalog, res.Records, res.Published.Format("2006-01-02"), source, res.Duration.Round(time.Millisecond))
	if res.Partial {
		fmt.Printf("%s: WARNING: result is partial, some pages could not be fetched\n", res.Catalog)
	}
	if res.Swapped > 0 || res.Unresolved > 0 {
		fmt.Printf("%s: corrections: %d swapped, %d unresolved\n", res.Catalog, res.Swapped, res.Unresolved)
	}
	fmt.Printf("%s: wrote %s and %s\n", res.Catalog, res.CSVPath, res.ParquetPath)
}
