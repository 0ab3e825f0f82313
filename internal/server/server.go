// Package server exposes the catalog's queries over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"bigfiles/internal/query"
	"bigfiles/internal/report"
	"bigfiles/internal/store"

	"github.com/mordilloSan/go-logger/logger"
)

// maxLimit caps the limit parameter of /largefiles.
const maxLimit = 1000

const indexText = `bigfiles catalog

you can try
  /duplicates                      duplicate groups (same name and size)
  /duplicates/paths?name=N&size=S  paths of one group
  /largefiles?limit=N              largest files
  /stats                           totals and top extensions
  /report                          markdown report
  /qr.png                          QR code of this server's address
`

// Config holds the HTTP front end configuration.
type Config struct {
	Addr  string
	Port  int
	Limit int
	// URL is the advertised address encoded in /qr.png.
	URL string
}

// Server serves catalog queries.
type Server struct {
	engine *query.Engine
	config Config
}

// New creates a Server answering from engine.
func New(engine *query.Engine, cfg Config) *Server {
	if cfg.Limit <= 0 {
		cfg.Limit = query.DefaultLimit
	}
	return &Server{engine: engine, config: cfg}
}

// Handler returns the router with every endpoint registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /duplicates", s.handleDuplicates)
	mux.HandleFunc("GET /duplicates/paths", s.handleDuplicatePaths)
	mux.HandleFunc("GET /largefiles", s.handleLargest)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /qr.png", s.handleQR)
	return logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Addr, strconv.Itoa(s.config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoKV("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Infof("shutdown signal received")
	}

	srv.SetKeepAlivesEnabled(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warnf("graceful HTTP shutdown timed out; forcing close of remaining connections")
			if cerr := srv.Close(); cerr != nil && !errors.Is(cerr, http.ErrServerClosed) {
				logger.Warnf("HTTP server force-close error: %v", cerr)
			}
		} else {
			logger.Warnf("HTTP server shutdown error: %v", err)
		}
	} else {
		logger.Infof("HTTP server closed")
	}
	return nil
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.DebugKV("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, indexText)
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := s.engine.FindDuplicates(r.Context())
	if err != nil {
		s.queryFailed(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, groups)
}

type pathsResponse struct {
	Name  string   `json:"name"`
	Size  int64    `json:"size"`
	Paths []string `json:"paths"`
}

func (s *Server) handleDuplicatePaths(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	size, err := strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)
	if err != nil || size < 0 {
		WriteError(w, http.StatusBadRequest, "size must be a non-negative integer")
		return
	}

	paths, err := s.engine.DuplicatePaths(r.Context(), store.DuplicateGroup{Name: name, Size: size})
	if err != nil {
		s.queryFailed(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, pathsResponse{Name: name, Size: size, Paths: paths})
}

func (s *Server) handleLargest(w http.ResponseWriter, r *http.Request) {
	limit := s.config.Limit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = min(n, maxLimit)
	}

	files, err := s.engine.FindLargest(r.Context(), limit)
	if err != nil {
		s.queryFailed(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, files)
}

type statsResponse struct {
	query.Status
	Summary store.Summary `json:"summary"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status(r.Context())
	if err != nil {
		s.queryFailed(w, err)
		return
	}
	sum, err := s.engine.Summary(r.Context(), query.DefaultTopExtensions)
	if err != nil {
		s.queryFailed(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, statsResponse{Status: status, Summary: sum})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	md, err := report.Build(r.Context(), s.engine, report.DefaultOptions)
	if err != nil {
		s.queryFailed(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, md)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	url := s.config.URL
	if url == "" {
		url = "http://" + r.Host + "/"
	}
	png, err := PNGQR(url, 256)
	if err != nil {
		logger.Errorf("qr code for %s: %v", url, err)
		WriteError(w, http.StatusInternalServerError, "cannot generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) queryFailed(w http.ResponseWriter, err error) {
	logger.Errorf("query failed: %v", err)
	WriteError(w, http.StatusInternalServerError, "query failed")
}
