package metrics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/esoa/fdacatalogs/interfaces"
	"github.com/esoa/fdacatalogs/logging"
)

// Serve starts the optional debug HTTP server exposing /metrics and
// /healthz while a long scrape runs. Off unless an address is configured.
// The returned server should be Shutdown by the caller once the run ends.
func Serve(addr string, checker interfaces.HealthChecker) *http.Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logging.RequestLogger(slog.Default()))
	router.Use(Middleware)

	started := time.Now()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := "running"
		data := map[string]any{
			"uptime_seconds": int(time.Since(started).Seconds()),
		}
		httpStatus := http.StatusOK
		if checker != nil {
			var detail map[string]any
			status, detail, httpStatus = checker.HealthCheck()
			for k, v := range detail {
				data[k] = v
			}
		}
		data["status"] = status

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logging.Warn("Failed to write health response", "error", err)
		}
	})

	server := &http.Server{
		Handler:      router,
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info("Debug server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Debug server failed", "error", err)
		}
	}()
	return server
}
