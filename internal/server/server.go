// Package server hosts the generated site over HTTP during authoring.
// It serves the output tree with the same resolution rules the published
// site gets (directory indexes, extensionless URLs, a 404 page) plus a
// health endpoint and an on-demand rebuild hook for editor integrations.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

const (
	defaultAddr            = ":4000"
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// Builder triggers rebuilds for the POST /-/build endpoint.
type Builder interface {
	Build(ctx context.Context, opts interfaces.BuildOptions) (*interfaces.BuildResult, error)
}

// Config controls the listen address and the tree being served.
type Config struct {
	// Addr is the listen address. Defaults to :4000.
	Addr string
	// OutputDir is the generated site directory to serve.
	OutputDir string
	// BaseURL mounts the site under a path prefix, matching the base_url
	// the site was generated with.
	BaseURL string
	// ShutdownTimeout bounds how long graceful shutdown waits for
	// in-flight requests. Defaults to 5s.
	ShutdownTimeout time.Duration
}

// Server serves the generated site.
type Server struct {
	cfg       Config
	basePath  string
	fsys      fs.FS
	builder   Builder
	logger    interfaces.Logger
	buildOpts interfaces.BuildOptions
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBuilder enables the POST /-/build endpoint.
func WithBuilder(builder Builder) Option {
	return func(s *Server) {
		s.builder = builder
	}
}

// WithBuildOptions sets the options used by endpoint-triggered rebuilds.
func WithBuildOptions(opts interfaces.BuildOptions) Option {
	return func(s *Server) {
		s.buildOpts = opts
	}
}

// WithFS overrides the served filesystem, letting tests serve fixtures
// instead of a directory on disk.
func WithFS(fsys fs.FS) Option {
	return func(s *Server) {
		if fsys != nil {
			s.fsys = fsys
		}
	}
}

// New creates a server for the output tree described by cfg.
func New(cfg Config, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		cfg:      cfg,
		basePath: normalizeBasePath(cfg.BaseURL),
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.fsys == nil {
		if strings.TrimSpace(cfg.OutputDir) == "" {
			return nil, errors.New("server: output directory is required")
		}
		s.fsys = os.DirFS(cfg.OutputDir)
	}
	return s, nil
}

// Handler returns the full route set. Exposed so tests and embedding
// hosts can mount the server without listening.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /-/healthz", s.handleHealth)
	mux.HandleFunc("POST /-/build", s.handleBuild)
	mux.HandleFunc("/", s.handleSite)
	return s.logRequests(mux)
}

// Serve listens on the configured address until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listener, err := new(net.ListenConfig).Listen(ctx, "tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", server.Addr, err)
	}

	s.logger.Info("server.listening", "addr", listener.Addr().String(), "dir", s.cfg.OutputDir)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve(listener)
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		s.logger.Info("server.stopped")
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type buildResponse struct {
	Rendered   int      `json:"rendered"`
	Skipped    int      `json:"skipped"`
	Copied     int      `json:"copied"`
	DurationMS int64    `json:"duration_ms"`
	Issues     []string `json:"issues,omitempty"`
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if s.builder == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   "build_unavailable",
			Message: "no builder is wired to this server",
		})
		return
	}

	s.logger.Info("server.build_requested", "remote", r.RemoteAddr)
	result, err := s.builder.Build(r.Context(), s.buildOpts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "build_failed",
			Message: err.Error(),
		})
		return
	}

	resp := buildResponse{
		Rendered:   result.Rendered,
		Skipped:    result.Skipped,
		Copied:     result.Copied,
		DurationMS: result.Duration.Milliseconds(),
	}
	for _, issue := range result.Issues {
		resp.Issues = append(resp.Issues, issue.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	urlPath := r.URL.Path
	if s.basePath != "" {
		rest, ok := strings.CutPrefix(urlPath, s.basePath)
		if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
			s.notFound(w)
			return
		}
		urlPath = rest
	}

	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		s.notFound(w)
		return
	}

	info, err := fs.Stat(s.fsys, name)
	if err == nil && info.IsDir() {
		if name != "." && !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		name = path.Join(name, "index.html")
		info, err = fs.Stat(s.fsys, name)
	}
	if err != nil {
		// Published pages are reachable without their extension.
		if path.Ext(name) == "" {
			alt := name + ".html"
			if altInfo, altErr := fs.Stat(s.fsys, alt); altErr == nil && !altInfo.IsDir() {
				name, info = alt, altInfo
				err = nil
			}
		}
		if err != nil {
			s.notFound(w)
			return
		}
	}

	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		s.notFound(w)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(data))
}

// notFound serves the site's own 404 page when the build produced one.
func (s *Server) notFound(w http.ResponseWriter) {
	if data, err := fs.ReadFile(s.fsys, "404.html"); err == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write(data)
		return
	}
	http.Error(w, "404 page not found", http.StatusNotFound)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Debug("server.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(started).String(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func normalizeBasePath(baseURL string) string {
	trimmed := strings.Trim(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}
