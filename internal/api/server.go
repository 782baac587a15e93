// Package api provides the HTTP surface of the gateway: the REST
// routes the browser remote calls, the WebSocket upgrade, metrics and
// static file serving.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tvremote/internal/bravia"
	"tvremote/internal/catalog"
	"tvremote/internal/config"
	"tvremote/internal/reconciler"
	"tvremote/internal/ws"
)

// Waker sends the network wake signal that powers the TV on from deep
// standby, where its control endpoint is unreachable.
type Waker interface {
	Wake() error
}

// Options collects the collaborators the server needs.
type Options struct {
	Client       bravia.Client
	Waker        Waker
	Reconciler   *reconciler.Manager
	Hub          *ws.Hub
	Metrics      http.Handler
	Applications []config.Application
	Icons        *catalog.IconIndex
	StaticDir    string
	IconsDir     string
	Port         int
	Logger       *zap.Logger
}

// Server translates REST requests from the browser remote into device
// protocol calls. Handlers hold no per-request state; the one shared
// mutable piece is the app icon cache.
type Server struct {
	client     bravia.Client
	waker      Waker
	reconciler *reconciler.Manager
	apps       []config.Application
	icons      *catalog.IconIndex
	logger     *zap.Logger
	server     *http.Server

	iconsMu    sync.Mutex
	iconsCache map[string]string
}

// NewServer creates the API server and builds its route table.
func NewServer(opts Options) *Server {
	s := &Server{
		client:     opts.Client,
		waker:      opts.Waker,
		reconciler: opts.Reconciler,
		apps:       opts.Applications,
		icons:      opts.Icons,
		logger:     opts.Logger,
	}

	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/power", s.handlePower).Methods("POST")
	api.HandleFunc("/volume", s.handleGetVolume).Methods("GET")
	api.HandleFunc("/volume", s.handleSetVolume).Methods("POST")
	api.HandleFunc("/channel", s.handleChannel).Methods("GET")
	api.HandleFunc("/text", s.handleText).Methods("POST")
	api.HandleFunc("/applications", s.handleApplications).Methods("GET")
	api.HandleFunc("/applications/launch", s.handleLaunch).Methods("POST")
	api.HandleFunc("/inputs", s.handleInputs).Methods("GET")
	api.HandleFunc("/inputs/hdmi", s.handleHDMIInputs).Methods("GET")
	api.HandleFunc("/inputs/switch", s.handleSwitch).Methods("POST")
	api.HandleFunc("/app-icons", s.handleAppIcons).Methods("GET")
	api.HandleFunc("/remote", s.handleRemote).Methods("POST")
	if opts.Hub != nil {
		api.HandleFunc("/ws", opts.Hub.Handler).Methods("GET")
	}

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods("GET")
	}
	if opts.IconsDir != "" {
		r.PathPrefix("/icons/").Handler(
			http.StripPrefix("/icons/", http.FileServer(http.Dir(opts.IconsDir))))
	}
	if opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.StaticDir)))
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP API server", zap.String("addr", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.logger.Info("Stopping HTTP API server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
