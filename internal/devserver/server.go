// Package devserver exposes the reference extraction engine over HTTP so job
// submissions can be exercised end to end without the production backend.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/law-makers/scrapejob/internal/engine"
	"github.com/law-makers/scrapejob/pkg/models"
	"github.com/rs/zerolog/log"
)

// maxRequestBytes caps the size of a job request body
const maxRequestBytes = 1 << 20

// SubmitPath is the job-submission route
const SubmitPath = "/scrap/"

// NewRouter builds the HTTP handler serving extractor
func NewRouter(extractor engine.Extractor, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := &handler{extractor: extractor}
	r.Post(SubmitPath, h.submit)
	r.Post("/scrap", h.submit)

	return r
}

type handler struct {
	extractor engine.Extractor
}

type errorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	Retryable bool           `json:"retryable,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDOf(r)

	var req models.BackendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     "invalid request body",
			Code:      string(engine.ErrCodeValidation),
			RequestID: requestID,
		})
		return
	}

	log.Debug().
		Str("request_id", requestID).
		Str("url", req.URL).
		Str("selector", req.Selector).
		Int("fields", len(req.NameSelector)).
		Msg("Job received")

	res, err := h.extractor.Extract(r.Context(), req)
	if err != nil {
		status := engine.StatusOf(err)
		resp := errorResponse{Error: err.Error(), Code: "INTERNAL", RequestID: requestID}
		var ee *engine.EngineError
		if errors.As(err, &ee) {
			resp.Code = string(ee.Code)
			resp.Retryable = ee.Retry
			if len(ee.Details) > 0 {
				resp.Details = ee.Details
			}
		}
		log.Warn().
			Err(err).
			Str("request_id", requestID).
			Int("status", status).
			Msg("Job failed")
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// requestIDOf prefers the caller's X-Request-ID over the one chi generated
func requestIDOf(r *http.Request) string {
	if id := r.Header.Get(middleware.RequestIDHeader); id != "" {
		return id
	}
	return middleware.GetReqID(r.Context())
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", requestIDOf(r)).
			Msg("Request served")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

// Run serves handler on addr until ctx is done, then shuts down gracefully
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Development backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down development backend")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
