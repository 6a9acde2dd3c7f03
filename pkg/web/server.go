// Package web serves Nova's display: static pages, a websocket that pushes
// state changes and chat text, and a small JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-nova/pkg/hub"
	"github.com/teslashibe/go-nova/pkg/lifecycle"
	"github.com/teslashibe/go-nova/pkg/tutor"
)

// MaxConversation is how many messages are kept for late joiners.
const MaxConversation = 100

// Config configures the server.
type Config struct {
	Addr      string
	StaticDir string
}

// Event is the push envelope: {"event": ..., "data": ...}.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// StatusData is the payload of a status_change event.
type StatusData struct {
	Status tutor.State `json:"status"`
}

// TextData is the payload of an update_text event.
type TextData struct {
	Text   string       `json:"text"`
	Sender tutor.Sender `json:"sender"`
}

// Entry is one displayed message.
type Entry struct {
	Time   time.Time    `json:"time"`
	Text   string       `json:"text"`
	Sender tutor.Sender `json:"sender"`
}

// HealthReporter exposes background task health.
type HealthReporter interface {
	Snapshot() []lifecycle.TaskStatus
	Healthy() bool
}

// Server is the UI sink. It implements tutor.UI.
type Server struct {
	cfg    Config
	app    *fiber.App
	hub    *hub.Hub
	logger *slog.Logger

	mu           sync.RWMutex
	state        tutor.State
	conversation []Entry
	health       HealthReporter
	extras       map[string]func() any
}

// NewServer creates the server. It does not listen until Run.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:          cfg,
		hub:          hub.New("ui", logger),
		logger:       logger.With("component", "web.server"),
		state:        tutor.StateIdle,
		conversation: make([]Entry, 0, MaxConversation),
		extras:       make(map[string]func() any),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Nova",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/conversation", s.handleConversation)
	api.Get("/health", s.handleHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handleWS))

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetHealth registers the source for /api/health.
func (s *Server) SetHealth(h HealthReporter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = h
}

// AddStatus adds a named field to /api/status, computed per request.
func (s *Server) AddStatus(name string, fn func() any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extras[name] = fn
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listener(ln) }()
	s.logger.Info("UI server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		stopHub()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			s.logger.Warn("UI server shutdown", "error", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

// SetState records and pushes the agent state.
func (s *Server) SetState(state tutor.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.logger.Info("UI state", "state", state)
	s.push(Event{Event: "status_change", Data: StatusData{Status: state}})
}

// ShowText records and pushes a chat message.
func (s *Server) ShowText(text string, sender tutor.Sender) {
	s.mu.Lock()
	s.conversation = append(s.conversation, Entry{Time: time.Now(), Text: text, Sender: sender})
	if len(s.conversation) > MaxConversation {
		s.conversation = s.conversation[len(s.conversation)-MaxConversation:]
	}
	s.mu.Unlock()

	s.push(Event{Event: "update_text", Data: TextData{Text: text, Sender: sender}})
}

// State returns the last state set.
func (s *Server) State() tutor.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Conversation returns the retained messages, oldest first.
func (s *Server) Conversation() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.conversation...)
}

// Clients returns the number of connected displays.
func (s *Server) Clients() int {
	return s.hub.ClientCount()
}

func (s *Server) push(ev Event) {
	if err := s.hub.BroadcastJSON(ev); err != nil {
		s.logger.Warn("encode event", "event", ev.Event, "error", err)
	}
}

// WaitUntilReady probes addr until it accepts TCP connections or timeout
// elapses. An unspecified host is probed on loopback.
func WaitUntilReady(ctx context.Context, addr string, timeout time.Duration) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	target := net.JoinHostPort(host, port)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	d := net.Dialer{Timeout: 500 * time.Millisecond}
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		conn, err := d.DialContext(ctx, "tcp", target)
		if err == nil {
			conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("UI server at %s not ready after %s", target, timeout)
		case <-tick.C:
		}
	}
}

var _ tutor.UI = (*Server)(nil)
