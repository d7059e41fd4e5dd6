// Package server exposes dataset resolution over HTTP.
//
// Routes:
//
//	GET /api/metadata?url=<dataset>[&data_url=<shareable>]
//	GET /api/neuroglancer?url=<dataset>[&data_url=<shareable>]
//	GET /healthz
//
// /api/metadata answers with the resolution as JSON plus the tool links.
// /api/neuroglancer redirects to the Neuroglancer link of the dataset.
// data_url replaces url in generated links, for datasets served locally but
// shared under another address.
//
// Only http and https datasets are resolved unless Options.AllowedSchemes
// says otherwise. Bare paths count as the "file" scheme.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zarrlens/zarrlens/pkg/classify"
	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
	"github.com/zarrlens/zarrlens/pkg/resolver"
	"github.com/zarrlens/zarrlens/pkg/store"
)

const (
	defaultTimeout  = time.Minute
	shutdownTimeout = 10 * time.Second
)

// DefaultAllowedSchemes are the dataset schemes served without configuration.
var DefaultAllowedSchemes = []string{"http", "https"}

// Options configures a Server.
type Options struct {
	// Resolver resolves requested datasets. Required.
	Resolver *resolver.Resolver

	// Tools configures the generated links.
	Tools neuroglancer.ToolOptions

	// Timeout bounds a single resolution. Defaults to one minute.
	Timeout time.Duration

	// AllowedSchemes lists the dataset URL schemes clients may request.
	// Defaults to http and https.
	AllowedSchemes []string

	Logger *log.Logger
}

// ValidateAndSetDefaults fills zero fields with defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Resolver == nil {
		return zerrors.New(zerrors.ErrCodeInvalidConfig, "server requires a resolver")
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if len(o.AllowedSchemes) == 0 {
		o.AllowedSchemes = DefaultAllowedSchemes
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Server is the HTTP API.
type Server struct {
	opts    Options
	allowed map[string]bool
	router  chi.Router
}

// New creates a Server and mounts its routes.
func New(opts Options) (*Server, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	s := &Server{opts: opts, allowed: make(map[string]bool, len(opts.AllowedSchemes))}
	for _, scheme := range opts.AllowedSchemes {
		s.allowed[strings.ToLower(scheme)] = true
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/metadata", s.metadata)
		r.Get("/neuroglancer", s.neuroglancer)
	})
	s.router = r
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// MetadataResponse is the body of /api/metadata.
type MetadataResponse struct {
	*resolver.Resolution
	Layer classify.LayerType    `json:"layer_type"`
	Tools neuroglancer.ToolURLs `json:"tools"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (s *Server) metadata(w http.ResponseWriter, r *http.Request) {
	res, dataURL, err := s.resolve(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MetadataResponse{
		Resolution: res,
		Layer:      res.LayerType(),
		Tools:      resolver.ToolURLs(res, dataURL, s.opts.Tools),
	})
}

func (s *Server) neuroglancer(w http.ResponseWriter, r *http.Request) {
	res, dataURL, err := s.resolve(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tools := resolver.ToolURLs(res, dataURL, s.opts.Tools)
	if tools.Neuroglancer == nil {
		s.writeError(w, r, zerrors.New(zerrors.ErrCodeMetadataMissing, "no Zarr metadata at %s", res.URL))
		return
	}
	http.Redirect(w, r, *tools.Neuroglancer, http.StatusFound)
}

// resolve reads the url and data_url parameters and resolves the dataset.
func (s *Server) resolve(r *http.Request) (*resolver.Resolution, string, error) {
	q := r.URL.Query()
	url := q.Get("url")
	if err := zerrors.ValidateDatasetURL(url); err != nil {
		return nil, "", err
	}
	if scheme := schemeOf(url); !s.allowed[scheme] {
		return nil, "", zerrors.New(zerrors.ErrCodeUnsupported, "%s datasets are not served", scheme)
	}
	dataURL := q.Get("data_url")
	if dataURL == "" {
		dataURL = url
	} else if err := zerrors.ValidateDatasetURL(dataURL); err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.Timeout)
	defer cancel()
	res, err := s.opts.Resolver.Resolve(ctx, url)
	if err != nil {
		return nil, "", err
	}
	return res, dataURL, nil
}

// schemeOf returns the lower-cased scheme of a dataset URL, "file" for bare
// paths.
func schemeOf(raw string) string {
	i := strings.Index(raw, "://")
	if i < 0 {
		return "file"
	}
	return strings.ToLower(raw[:i])
}

type errorResponse struct {
	Error string       `json:"error"`
	Code  zerrors.Code `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.opts.Logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorResponse{Error: zerrors.UserMessage(err), Code: zerrors.GetCode(err)})
}

func statusOf(err error) int {
	switch {
	case zerrors.Is(err, zerrors.ErrCodeInvalidInput),
		zerrors.Is(err, zerrors.ErrCodeInvalidPath),
		zerrors.Is(err, zerrors.ErrCodeUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		zerrors.Is(err, zerrors.ErrCodeNotFound),
		zerrors.Is(err, zerrors.ErrCodeMetadataMissing):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, store.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
