package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/alertwatch/internal/alert"
	apperrors "github.com/GriffinCanCode/alertwatch/internal/errors"
	"github.com/GriffinCanCode/alertwatch/internal/monitor"
	"github.com/GriffinCanCode/alertwatch/internal/presenter"
	"github.com/GriffinCanCode/alertwatch/internal/settings"
	"github.com/GriffinCanCode/alertwatch/internal/trace"
)

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	mon         *monitor.Manager
	events      <-chan presenter.Event
	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once

	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a new server and starts its broadcasters.
func New(mon *monitor.Manager) *Server {
	events, unsubscribe := mon.Presenter().Subscribe(SubscriberBuffer)
	s := &Server{
		mon:         mon,
		events:      events,
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
		conns:       make(map[*websocket.Conn]struct{}),
		rateLimits:  make(map[*websocket.Conn]*rateLimiter),
	}

	go s.broadcastPresenter()
	go s.broadcastAlerts()

	return s
}

// Close stops the broadcasters.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.unsubscribe()
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/config", s.handlePutConfig)
	mux.HandleFunc("POST /api/areas", s.handleAddArea)
	mux.HandleFunc("DELETE /api/areas/{key}", s.handleRemoveArea)
	mux.HandleFunc("POST /api/monitoring/start", s.handleMonitoring(true))
	mux.HandleFunc("POST /api/monitoring/stop", s.handleMonitoring(false))
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/pixel", s.handlePixel)
	mux.Handle("GET /metrics", s.mon.Metrics().Handler())

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		status = appErr.HTTPStatus()
	}
	trace.Logger(r.Context()).Warn("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  apperrors.CodeOf(err).String(),
	})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidArgument, "invalid request body")
	}
	return nil
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mon.Settings().Current())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg settings.Configuration
	if err := decodeBody(r, &cfg); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.mon.Settings().Save(cfg); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.mon.Settings().Current())
}

func (s *Server) handleAddArea(w http.ResponseWriter, r *http.Request) {
	var area alert.WatchArea
	if err := decodeBody(r, &area); err != nil {
		writeError(w, r, err)
		return
	}
	cfg, err := s.mon.AddArea(area)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trace.Logger(r.Context()).Info("watch area added", "area", area.Key())
	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleRemoveArea(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	cfg, err := s.mon.RemoveArea(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trace.Logger(r.Context()).Info("watch area removed", "area", key)
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleMonitoring(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.mon.SetEnabled(enabled); err != nil {
			writeError(w, r, err)
			return
		}
		status := "monitoring_stopped"
		if enabled {
			status = "monitoring_started"
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
	}
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mon.Alerts())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if key := q.Get("area"); key != "" {
		writeJSON(w, http.StatusOK, s.mon.History().ForArea(key))
		return
	}
	limit := DefaultHistoryLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, apperrors.Newf(apperrors.InvalidArgument, "invalid limit %q", v))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.mon.History().Recent(limit))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mon.Status())
}

func (s *Server) handlePixel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.Atoi(q.Get("x"))
	y, errY := strconv.Atoi(q.Get("y"))
	if errX != nil || errY != nil {
		writeError(w, r, apperrors.New(apperrors.InvalidArgument, "x and y must be integers"))
		return
	}
	msg, err := s.pick(r.Context(), x, y)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) pick(ctx context.Context, x, y int) (PixelMessage, error) {
	c, err := s.mon.PickColor(ctx, x, y)
	if err != nil {
		return PixelMessage{}, err
	}
	return PixelMessage{Type: "pixel", X: x, Y: y, Color: c.String(), Hex: c.Hex()}, nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	_ = wsjson.Write(baseCtx, conn, StatusMessage{Type: "status", Status: s.mon.Status()})

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, ErrorMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "status":
			_ = wsjson.Write(baseCtx, conn, StatusMessage{Type: "status", Status: s.mon.Status()})
		case "pick":
			var pick PickMessage
			if err := json.Unmarshal(msg, &pick); err != nil {
				continue
			}
			ctx, span := trace.StartSpan(baseCtx, "pick_color")
			px, err := s.pick(ctx, pick.X, pick.Y)
			span.End()
			if err != nil {
				_ = wsjson.Write(baseCtx, conn, ErrorMessage{Type: "error", Message: err.Error()})
				continue
			}
			_ = wsjson.Write(baseCtx, conn, px)
		}
	}
}

func (s *Server) broadcast(msg any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
			defer cancel()
			_ = wsjson.Write(ctx, c, msg)
		}(conn)
	}
}

func (s *Server) broadcastPresenter() {
	for {
		select {
		case <-s.done:
			return
		case evt, ok := <-s.events:
			if !ok {
				return
			}
			switch {
			case evt.Type == presenter.EventOverlay && evt.Banner != nil:
				s.broadcast(OverlayMessage{Type: "overlay", Banner: *evt.Banner})
			case evt.Type == presenter.EventHighlight && evt.Highlight != nil:
				s.broadcast(HighlightMessage{Type: "highlight", Highlight: *evt.Highlight})
			}
		}
	}
}

func (s *Server) broadcastAlerts() {
	events := s.mon.History().Events()
	for {
		select {
		case <-s.done:
			return
		case evt := <-events:
			s.broadcast(AlertMessage{Type: "alert", Event: evt})
		}
	}
}
