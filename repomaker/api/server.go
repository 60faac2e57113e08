package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Router builds the API routes for the handler.
func Router(handler *Handler) *mux.Router {
	router := mux.NewRouter()

	router.Use(loggingMiddleware(handler.logger))
	router.Use(corsMiddleware)

	router.HandleFunc("/api/v1/health", handler.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/repos", handler.ListRepos).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/repos/{name}", handler.GetRepo).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/repos/{name}/update", handler.TriggerUpdate).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/repos/{name}/publish", handler.TriggerPublish).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/repos/{name}/apps", handler.ListApps).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/repos/{name}/apps/{package_id}", handler.PutApp).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/repos/{name}/apps/{package_id}", handler.DeleteApp).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/storages", handler.ListStorages).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/jobs", handler.ListJobs).Methods(http.MethodGet)

	return router
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, handler *Handler, port string) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      Router(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	handler.logger.Infof("API listening on port %s", port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			logger.WithFields(logrus.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    rw.status,
				"duration":  time.Since(start).String(),
				"remote_ip": r.RemoteAddr,
			}).Info("Request processed")
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
