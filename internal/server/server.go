// Package server exposes a loaded resolver script over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jward/lambda/internal/runtime"
)

// Resolver is a loaded script.
type Resolver interface {
	Resolve(ctx context.Context, ev runtime.Event) ([]any, bool, error)
	Resolvers() []string
}

type Options struct {
	// Timeout bounds each dispatch when the request context has no deadline.
	// 0 means no default timeout.
	Timeout time.Duration

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	Logger *slog.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithLogger(l *slog.Logger) Option   { return func(o *Options) { o.Logger = l } }

// Handler routes:
//
//	POST /resolve    Event JSON → {"results": [...]}; {"results": null} when undefined
//	GET  /resolvers  → {"resolvers": [...]}
//	GET  /healthz    → ok
type Handler struct {
	resolver Resolver
	opt      Options
	mux      *http.ServeMux
}

// New creates a Handler serving r.
func New(r Resolver, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second, MaxBodyBytes: 1 << 20, Logger: slog.Default()}
	for _, f := range opts {
		f(&op)
	}
	h := &Handler{resolver: r, opt: op, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /resolve", h.handleResolve)
	h.mux.HandleFunc("GET /resolvers", h.handleResolvers)
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type resolveResponse struct {
	Results []any `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ev, status, err := decodeEvent(w, r, h.opt.MaxBodyBytes)
	if err != nil {
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	values, ok, err := h.resolver.Resolve(ctx, ev)
	if err != nil {
		h.opt.Logger.Error("resolve failed", "type", ev.Type, "duration", time.Since(start), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if !ok {
		values = nil
	}
	h.opt.Logger.Info("resolved", "type", ev.Type, "defined", ok, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, resolveResponse{Results: values})
}

func (h *Handler) handleResolvers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"resolvers": h.resolver.Resolvers()})
}

var errMissingType = errors.New("event type is required")

func decodeEvent(w http.ResponseWriter, r *http.Request, maxBody int64) (runtime.Event, int, error) {
	body := r.Body
	if maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	var ev runtime.Event
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&ev); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ev, http.StatusRequestEntityTooLarge, errors.New("body too large")
		}
		return ev, http.StatusBadRequest, errors.New("invalid JSON")
	}
	if ev.Type == "" {
		return ev, http.StatusBadRequest, errMissingType
	}
	return ev, http.StatusOK, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
