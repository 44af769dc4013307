package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"

	"datecalc/internal/config"
	appLog "datecalc/internal/log"
	"datecalc/internal/mcp"
)

const (
	maxBodyBytes    = 4 << 20
	shutdownTimeout = 10 * time.Second
	requestIDHeader = "X-Request-ID"
)

// Server is the HTTP transport for the MCP server. POST /mcp carries one
// JSON-RPC message per request; /mcp/stream pushes server notifications
// as server-sent events.
type Server struct {
	cfg     *config.Config
	mcp     *mcp.Server
	mux     *http.ServeMux
	limiter *rateLimiter
	metrics *metrics
	now     func() time.Time

	// closing is closed on shutdown so open event streams return.
	closing chan struct{}
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, m *mcp.Server) *Server {
	s := &Server{
		cfg:     cfg,
		mcp:     m,
		mux:     http.NewServeMux(),
		limiter: newRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
		metrics: newMetrics(time.Now()),
		now:     time.Now,
		closing: make(chan struct{}),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server with the
// middleware chain applied: request id, metrics, rate limit, basic auth.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	h = s.rateLimitMiddleware(h)
	h = s.metricsMiddleware(h)
	return s.requestIDMiddleware(h)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// 빈 사용자명 또는 비밀번호가 설정된 경우에는 비활성화로 취급한다.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health 는 항상 무인증으로 노출한다.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="datecalc", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" && !s.limiter.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status. Unwrap lets
// http.ResponseController reach the underlying Flusher.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		done := s.metrics.begin()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		elapsed := time.Since(start)
		done(rec.status, elapsed)
		appLog.Debug("http request",
			"request_id", w.Header().Get(requestIDHeader),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /mcp", s.handleMCP)
	s.mux.HandleFunc("GET /mcp/stream", s.handleStream)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
}

// handleMCP answers one JSON-RPC message. Notifications get 202 with no
// body; a body that is not JSON at all gets 400 with a parse error.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, mcp.Response{
			JSONRPC: mcp.JSONRPCVersion,
			ID:      json.RawMessage("null"),
			Error:   &mcp.Error{Code: mcp.CodeParseError, Message: "parse error: body is not valid JSON"},
		})
		return
	}

	resp := s.mcp.HandleMessage(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStream keeps an SSE connection open: one connection event, then
// server notifications as they happen and a periodic heartbeat.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events := make(chan mcp.Notification, 16)
	unsubscribe := s.mcp.Subscribe(func(n mcp.Notification) {
		select {
		case events <- n:
		default:
			appLog.Warn("dropping stream notification for slow client", "method", n.Method)
		}
	})
	defer unsubscribe()

	send := func(event string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	info := s.mcp.Info()
	if err := send("connection", map[string]any{
		"status":           "connected",
		"server":           info.Name,
		"version":          info.Version,
		"protocol_version": mcp.ProtocolVersion,
		"timestamp":        s.now().UTC().Format(time.RFC3339),
	}); err != nil {
		appLog.Error("stream write failed", err)
		return
	}

	heartbeat := time.NewTicker(s.cfg.HTTP.StreamHeartbeat)
	defer heartbeat.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case n := <-events:
			err = send("message", n)
		case t := <-heartbeat.C:
			err = send("heartbeat", map[string]any{"timestamp": t.UTC().Format(time.RFC3339)})
		}
		if err != nil {
			appLog.Debug("stream closed", "err", err.Error())
			return
		}
	}
}

type healthResponse struct {
	Status      string          `json:"status"`
	Server      string          `json:"server"`
	Version     string          `json:"version"`
	Transport   string          `json:"transport"`
	Timestamp   string          `json:"timestamp"`
	Notes       int             `json:"notes"`
	CacheSize   int             `json:"cache_size"`
	Goroutines  int             `json:"goroutines"`
	Performance metricsSnapshot `json:"performance"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	info := s.mcp.Info()
	resp := healthResponse{
		Status:      "healthy",
		Server:      info.Name,
		Version:     info.Version,
		Transport:   config.TransportHTTP,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Goroutines:  runtime.NumGoroutine(),
		Performance: s.metrics.snapshot(now),
	}
	if c := s.mcp.Engine().Cache(); c != nil {
		resp.CacheSize = c.Size()
	}
	n, err := s.mcp.Notes().Len(r.Context())
	if err != nil {
		appLog.Error("health: note count failed", err)
		resp.Status = "degraded"
	}
	resp.Notes = n
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	s.metrics.snapshot(s.now()).writePrometheus(w)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	info := s.mcp.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":             info.Name,
		"version":          info.Version,
		"protocol_version": mcp.ProtocolVersion,
		"transport":        config.TransportHTTP,
		"default_timezone": s.mcp.Engine().DefaultZone(),
		"endpoints": map[string]string{
			"mcp":     "POST /mcp",
			"stream":  "GET /mcp/stream",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
	})
}

// Run serves HTTP on cfg.Listen until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func Run(ctx context.Context, cfg *config.Config, m *mcp.Server) error {
	s := NewServer(cfg, m)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(func() { close(s.closing) })

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
