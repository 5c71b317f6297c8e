package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"flipclock/datasource"
	"flipclock/display"
	"flipclock/models"
)

// WeatherCache is the proxy cache behind /api/weather
type WeatherCache interface {
	Get(ctx context.Context) (models.WeatherPayload, error)
	Updated() time.Time
	CacheStats() (hits, misses int)
}

// DisplayBoard is the display state mirrored to browsers
type DisplayBoard interface {
	Snapshot() ([]display.Element, uint64)
	Subscribe() (string, <-chan display.Patch, func())
	SubscriberCount() int
}

// PanelStatus reports the outcome of the last weather panel refresh
type PanelStatus interface {
	Status() (time.Time, error)
}

// Options holds the optional Server settings
type Options struct {
	Port int
	// ServiceKeySet is false when no public data service key is configured
	ServiceKeySet bool
	// Static serves the clock page at /. Nil disables it.
	Static fs.FS
	Panel  PanelStatus
	// KeepAlive is the comment interval on idle display streams
	KeepAlive time.Duration
	Logger    *slog.Logger
}

// Server represents the API server
type Server struct {
	weather       WeatherCache
	board         DisplayBoard
	panel         PanelStatus
	serviceKeySet bool
	keepAlive     time.Duration
	logger        *slog.Logger

	router     chi.Router
	server     *http.Server
	listener   net.Listener
	cancelBase context.CancelFunc
}

// NewServer creates a new API server
func NewServer(weather WeatherCache, board DisplayBoard, opts Options) *Server {
	s := &Server{
		weather:       weather,
		board:         board,
		panel:         opts.Panel,
		serviceKeySet: opts.ServiceKeySet,
		keepAlive:     opts.KeepAlive,
		logger:        opts.Logger,
	}
	if s.keepAlive <= 0 {
		s.keepAlive = 15 * time.Second
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/api/weather", s.handleWeather)
	r.Get("/api/health", s.handleHealthCheck)
	r.Get("/api/display", s.handleDisplay)
	r.Get("/api/display/stream", s.handleDisplayStream)

	if opts.Static != nil {
		r.Handle("/*", http.FileServer(http.FS(opts.Static)))
	}

	// request contexts derive from base so Shutdown can end open display streams
	base, cancel := context.WithCancel(context.Background())
	s.cancelBase = cancel
	s.router = r
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the listening port without serving
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start begins the API server, binding the port first if Listen was not called.
// It returns nil after Shutdown.
func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("starting API server", "addr", s.Addr())
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open display streams, stops accepting connections and waits for
// active requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancelBase()
	return s.server.Shutdown(ctx)
}

// handleWeather serves the cached proxy payload
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if !s.serviceKeySet {
		writeError(w, r, http.StatusBadRequest, datasource.ErrMissingServiceKey.Error())
		return
	}

	payload, err := s.weather.Get(r.Context())
	switch {
	case errors.Is(err, datasource.ErrMissingServiceKey):
		writeError(w, r, http.StatusBadRequest, datasource.ErrMissingServiceKey.Error())
		return
	case err != nil:
		s.logger.Error("weather proxy failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, r, http.StatusOK, payload)
}

type healthResponse struct {
	Status       string     `json:"status"`
	Timestamp    string     `json:"timestamp"`
	CacheUpdated *time.Time `json:"cache_updated,omitempty"`
	CacheHits    int        `json:"cache_hits"`
	CacheMisses  int        `json:"cache_misses"`
	PanelUpdated *time.Time `json:"panel_updated,omitempty"`
	PanelError   string     `json:"panel_error,omitempty"`
	Subscribers  int        `json:"display_subscribers"`
}

// handleHealthCheck reports cache and panel state. A failing panel marks the
// service degraded but still answers 200.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().Format(time.RFC3339),
		Subscribers: s.board.SubscriberCount(),
	}
	resp.CacheHits, resp.CacheMisses = s.weather.CacheStats()
	if updated := s.weather.Updated(); !updated.IsZero() {
		resp.CacheUpdated = &updated
	}
	if s.panel != nil {
		updated, err := s.panel.Status()
		if !updated.IsZero() {
			resp.PanelUpdated = &updated
		}
		if err != nil {
			resp.Status = "degraded"
			resp.PanelError = err.Error()
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type snapshotResponse struct {
	Seq      uint64            `json:"seq"`
	Elements []display.Element `json:"elements"`
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	elements, seq := s.board.Snapshot()
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, r, http.StatusOK, snapshotResponse{Seq: seq, Elements: elements})
}
