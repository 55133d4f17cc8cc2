package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/snapstrip/photobooth/internal/catalog"
	"github.com/snapstrip/photobooth/internal/compose"
	"github.com/snapstrip/photobooth/internal/config"
	"github.com/snapstrip/photobooth/internal/export"
	"github.com/snapstrip/photobooth/internal/filter"
	"github.com/snapstrip/photobooth/internal/overlay"
	"github.com/snapstrip/photobooth/internal/session"
)

const defaultThumbSize = 160

// Runner executes fn on the goroutine that owns the controller and waits
// for it. timeline.Loop satisfies it.
type Runner interface {
	Call(fn func()) bool
}

// errStopped is returned when the booth loop is no longer running.
var errStopped = errors.New("booth stopped")

type Server struct {
	cfg         config.ServerConfig
	runner      Runner
	ctrl        *session.Controller
	exp         *export.Exporter
	cat         *catalog.Catalog
	broadcaster *Broadcaster
	frontend    http.Handler
	metrics     http.Handler
	log         *zap.Logger

	// base outlives individual requests; camera work started by a request
	// continues after the response is written.
	base context.Context

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

// Options wires a Server. Frontend and Metrics are optional.
type Options struct {
	Config      config.ServerConfig
	Runner      Runner
	Controller  *session.Controller
	Exporter    *export.Exporter
	Catalog     *catalog.Catalog
	Broadcaster *Broadcaster
	Frontend    http.Handler
	Metrics     http.Handler
	Context     context.Context
}

func NewServer(opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	s := &Server{
		cfg:            opts.Config,
		runner:         opts.Runner,
		ctrl:           opts.Controller,
		exp:            opts.Exporter,
		cat:            opts.Catalog,
		broadcaster:    opts.Broadcaster,
		frontend:       opts.Frontend,
		metrics:        opts.Metrics,
		log:            log.Named("server"),
		base:           opts.Context,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range opts.Config.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}
	return s
}

// Handler returns the full route table behind the security headers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return securityHeaders(mux)
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /api/state", s.api(s.handleState))
	mux.HandleFunc("GET /api/catalog", s.api(s.handleCatalog))
	mux.HandleFunc("POST /api/permission", s.api(s.handlePermission))
	mux.HandleFunc("POST /api/capture/start", s.api(s.handleAction((*session.Controller).Start)))
	mux.HandleFunc("POST /api/capture/retake", s.api(s.handleAction((*session.Controller).Retake)))
	mux.HandleFunc("POST /api/capture/done", s.api(s.handleAction((*session.Controller).Done)))
	mux.HandleFunc("POST /api/filter", s.api(s.handleFilter))
	mux.HandleFunc("POST /api/camera/flip", s.api(s.handleFlip))
	mux.HandleFunc("POST /api/edit/template", s.api(s.handleTemplate))
	mux.HandleFunc("POST /api/edit/background", s.api(s.handleBackground))
	mux.HandleFunc("POST /api/edit/text", s.api(s.handleText))
	mux.HandleFunc("POST /api/edit/stickers", s.api(s.handleAddSticker))
	mux.HandleFunc("POST /api/edit/stickers/{id}/move", s.api(s.handleMoveSticker))
	mux.HandleFunc("DELETE /api/edit/stickers/{id}", s.api(s.handleRemoveSticker))
	mux.HandleFunc("POST /api/reset", s.api(s.handleAction((*session.Controller).Reset)))
	mux.HandleFunc("GET /api/strip.png", s.api(s.handleStrip))
	mux.HandleFunc("GET /api/photos/{n}/thumb.png", s.api(s.handleThumb))
	mux.HandleFunc("POST /api/export", s.api(s.handleExport))

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	if s.frontend != nil {
		s.log.Info("serving embedded frontend")
		mux.Handle("/", s.frontend)
	}
}

// api wraps an authorized JSON endpoint.
func (s *Server) api(h func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorize(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := h(w, r); err != nil {
			code := statusFor(err)
			if code >= http.StatusInternalServerError {
				s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
			}
			writeJSON(w, code, map[string]string{"error": err.Error()})
		}
	}
}

type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrWrongPhase):
		return http.StatusConflict
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		return badRequest{fmt.Errorf("invalid request body: %w", err)}
	}
	return nil
}

// call runs fn on the booth loop and returns the resulting state.
func (s *Server) call(fn func(*session.Controller) error) (*session.State, error) {
	var (
		state *session.State
		err   error
	)
	if !s.runner.Call(func() {
		err = fn(s.ctrl)
		state = s.ctrl.State()
	}) {
		return nil, errStopped
	}
	return state, err
}

func (s *Server) reply(w http.ResponseWriter, fn func(*session.Controller) error) error {
	return s.replyWith(w, http.StatusOK, fn)
}

// accepted replies 202 for actions whose camera work completes after the
// response; the outcome arrives over /ws or a later GET /api/state.
func (s *Server) accepted(w http.ResponseWriter, fn func(*session.Controller) error) error {
	return s.replyWith(w, http.StatusAccepted, fn)
}

func (s *Server) replyWith(w http.ResponseWriter, code int, fn func(*session.Controller) error) error {
	state, err := s.call(fn)
	if err != nil {
		return err
	}
	writeJSON(w, code, state)
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, s.ctrl.Store().Get())
	return nil
}

type catalogResponse struct {
	*catalog.Catalog
	Filters []filter.Kind       `json:"filters"`
	Brushes []overlay.BrushKind `json:"brushes"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, catalogResponse{
		Catalog: s.cat,
		Filters: filter.Kinds(),
		Brushes: overlay.BrushKinds(),
	})
	return nil
}

func (s *Server) handlePermission(w http.ResponseWriter, _ *http.Request) error {
	return s.accepted(w, func(c *session.Controller) error {
		return c.RequestPermission(s.base)
	})
}

func (s *Server) handleAction(fn func(*session.Controller) error) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return s.reply(w, fn)
	}
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Filter string `json:"filter"`
	}
	if err := decode(w, r, &req); err != nil {
		return err
	}
	k, err := filter.ParseKind(req.Filter)
	if err != nil {
		return badRequest{err}
	}
	return s.reply(w, func(c *session.Controller) error { return c.SetFilter(k) })
}

func (s *Server) handleFlip(w http.ResponseWriter, _ *http.Request) error {
	return s.accepted(w, func(c *session.Controller) error { return c.SwitchFacing(s.base) })
}

type idRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) error {
	var req idRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	return s.reply(w, func(c *session.Controller) error { return c.SetTemplate(req.ID) })
}

func (s *Server) handleBackground(w http.ResponseWriter, r *http.Request) error {
	var req idRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	return s.reply(w, func(c *session.Controller) error { return c.SetBackground(req.ID) })
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	}
	if err := decode(w, r, &req); err != nil {
		return err
	}
	return s.reply(w, func(c *session.Controller) error { return c.SetText(req.ID, req.Value) })
}

func (s *Server) handleAddSticker(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Glyph string `json:"glyph"`
	}
	if err := decode(w, r, &req); err != nil {
		return err
	}
	if req.Glyph == "" {
		return badRequest{errors.New("glyph is required")}
	}
	var st overlay.Sticker
	if _, err := s.call(func(c *session.Controller) (err error) {
		st, err = c.AddSticker(req.Glyph)
		return err
	}); err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, st)
	return nil
}

func (s *Server) handleMoveSticker(w http.ResponseWriter, r *http.Request) error {
	var req overlay.Position
	if err := decode(w, r, &req); err != nil {
		return err
	}
	id := r.PathValue("id")
	var st overlay.Sticker
	if _, err := s.call(func(c *session.Controller) (err error) {
		st, err = c.MoveSticker(id, req.X, req.Y)
		return err
	}); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, st)
	return nil
}

func (s *Server) handleRemoveSticker(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	return s.reply(w, func(c *session.Controller) error { return c.RemoveSticker(id) })
}

// handleStrip lays the strip out on the loop and renders it here, so a
// large render does not stall the booth.
func (s *Server) handleStrip(w http.ResponseWriter, _ *http.Request) error {
	var comp compose.Composition
	if _, err := s.call(func(c *session.Controller) (err error) {
		comp, err = c.Composition()
		return err
	}); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", export.FileName(time.Now())))
	return s.exp.WritePNG(w, comp)
}

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) error {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		return badRequest{fmt.Errorf("invalid photo index %q", r.PathValue("n"))}
	}
	size := uint(defaultThumbSize)
	if q := r.URL.Query().Get("size"); q != "" {
		v, err := strconv.ParseUint(q, 10, 16)
		if err != nil || v == 0 {
			return badRequest{fmt.Errorf("invalid size %q", q)}
		}
		size = uint(v)
	}
	photos := s.ctrl.Store().Get().Capture.Photos
	if n < 0 || n >= len(photos) || photos[n].Image == nil {
		return fmt.Errorf("%w: photo %d", session.ErrNotFound, n)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	return export.WriteThumbnail(w, photos[n].Image, size)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) error {
	var path string
	if _, err := s.call(func(c *session.Controller) (err error) {
		path, err = c.Export(r.Context())
		return err
	}); err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, ExportedPayload{Path: path})
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	c, err := s.broadcaster.AddClient(conn)
	if err != nil {
		s.log.Warn("ws client rejected", zap.String("remote", r.RemoteAddr), zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	s.log.Debug("ws client connected", zap.String("remote", r.RemoteAddr))

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			s.log.Debug("ws client disconnected", zap.String("remote", r.RemoteAddr))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) authorize(r *http.Request) bool {
	token := s.cfg.AuthToken
	if token == "" {
		return true
	}
	if r.URL.Query().Get("token") == token {
		return true
	}
	if r.Header.Get("X-Photobooth-Token") == token {
		return true
	}
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == token
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Host
	if host == r.Host {
		return true
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data: blob:; connect-src 'self' ws: wss:")
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
