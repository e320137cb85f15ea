// Package server exposes the submission pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kylejryan/survey-sync/internal/httpx"
	"github.com/kylejryan/survey-sync/internal/pipeline"
)

// MaxBodyBytes caps the size of an inbound webhook body.
const MaxBodyBytes = 10 << 20

// Processor handles one webhook call.
type Processor interface {
	Process(ctx context.Context, headers map[string]string, body []byte) pipeline.Result
}

// New returns the HTTP handler: the webhook on /webhook, /webhook_kobo and
// /, plus /healthz and, when metrics is non-nil, /metrics.
func New(p Processor, metrics http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	h := &webhook{p: p, logger: logger}
	r.Post("/", h.ServeHTTP)
	r.Post("/webhook", h.ServeHTTP)
	r.Post("/webhook_kobo", h.ServeHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	return r
}

type webhook struct {
	p      Processor
	logger *slog.Logger
}

func (h *webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "Payload excede o limite de 10 MiB")
			return
		}
		h.logger.Warn("read webhook body", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	headers := Flatten(r.Header)
	if _, ok := headers["X-Request-Id"]; !ok {
		if id := middleware.GetReqID(r.Context()); id != "" {
			headers["X-Request-Id"] = id
		}
	}
	// The record is created even if the caller hangs up mid-request.
	res := h.p.Process(context.WithoutCancel(r.Context()), headers, body)
	httpx.Write(w, res.Status, res.Body)
}

// Flatten keeps the first value of each header.
func Flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
