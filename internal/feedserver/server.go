// SPDX-License-Identifier: MPL-2.0

package feedserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/invowk/loadremote/pkg/nuget"
)

const (
	// IndexPath is the service index route.
	IndexPath = "/v3/index.json"
	// FlatContainerPath is the prefix of the package base address.
	FlatContainerPath = "/v3-flatcontainer/"
)

type (
	// Server serves one DirSource.
	Server struct {
		feed   *nuget.DirSource
		logger *log.Logger
		router chi.Router

		httpServer *http.Server
		listener   net.Listener

		mu      sync.Mutex
		running bool
	}

	// Option configures a Server.
	Option func(*Server)

	serviceResource struct {
		ID   string `json:"@id"`
		Type string `json:"@type"`
	}

	serviceIndex struct {
		Version   string            `json:"version"`
		Resources []serviceResource `json:"resources"`
	}

	versionIndex struct {
		Versions []string `json:"versions"`
	}
)

// WithLogger sets the request logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server for feed. The server does not listen until Listen
// is called; Handler can be used directly with httptest.
func New(feed *nuget.DirSource, opts ...Option) *Server {
	s := &Server{feed: feed, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/health", s.handleHealth)
	r.Get(IndexPath, s.handleIndex)
	r.Get(FlatContainerPath+"{id}/index.json", s.handleVersions)
	r.Get(FlatContainerPath+"{id}/{version}/{file}", s.handlePackage)
	s.router = r
	return s
}

// Handler returns the feed's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Listen binds addr (for example ":5555", or "127.0.0.1:0" for a random
// port).
func (s *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// Address returns the bound address (e.g., "127.0.0.1:54321").
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the service index URL of the bound server.
func (s *Server) URL() string {
	return "http://" + s.Address() + IndexPath
}

// IsRunning reports whether Serve is active.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Serve accepts connections until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.httpServer == nil {
		return errors.New("feed server is not listening")
	}
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	s.writeJSON(w, serviceIndex{
		Version: "3.0.0",
		Resources: []serviceResource{{
			ID:   scheme + "://" + r.Host + FlatContainerPath,
			Type: nuget.PackageBaseAddressType,
		}},
	})
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	versions, err := s.feed.Versions(r.Context(), id)
	if err != nil {
		s.sendError(w, err)
		return
	}
	normalized := make([]string, 0, len(versions))
	for _, v := range nuget.SortVersions(versions) {
		normalized = append(normalized, nuget.NormalizeVersion(v))
	}
	s.writeJSON(w, versionIndex{Versions: normalized})
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	id, version := chi.URLParam(r, "id"), chi.URLParam(r, "version")
	want := strings.ToLower(id + "." + version + nuget.PackageExtension)
	if strings.ToLower(chi.URLParam(r, "file")) != want {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := s.feed.Pack(r.Context(), id, version, &buf); err != nil {
		s.sendError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, err error) {
	if errors.Is(err, nuget.ErrPackageNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Error("feed request failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// logRequests logs every request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("feed request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
