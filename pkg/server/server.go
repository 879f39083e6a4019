package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/codingwatching/ProjectObsidian/pkg/game"
	"github.com/codingwatching/ProjectObsidian/pkg/hook"
	"github.com/codingwatching/ProjectObsidian/pkg/protocol"
)

// Packets the server itself depends on during the handshake. Seal fails
// if a loaded module has not provided them.
var corePackets = []struct {
	direction protocol.Direction
	name      string
}{
	{protocol.Inbound, "PlayerIdentification"},
	{protocol.Outbound, "ServerIdentification"},
	{protocol.Outbound, "DisconnectPlayer"},
}

// Server hosts the registries, the hook engine, and the TCP accept loop.
//
// Lifecycle is two-phase: modules register entries through Load, Seal
// freezes every registry, and only then does the server accept
// connections. Serving reads no locks on the registries.
type Server struct {
	config  *Config
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics

	blocks   *game.Blocks
	commands *game.Commands
	packets  *protocol.PacketRegistry
	hooks    *hook.Engine

	extensions []protocol.Capability
	modules    []string

	sealed    atomic.Bool
	startedAt time.Time

	mu    sync.Mutex
	conns map[*Connection]struct{}

	listener  net.Listener
	statusSrv *http.Server
}

// New creates a Server. Unset config fields take their defaults.
func New(config *Config) *Server {
	config = config.withDefaults()
	logger := config.Logger

	return &Server{
		config:   config,
		logger:   logger,
		tracer:   otel.Tracer("github.com/codingwatching/ProjectObsidian/pkg/server"),
		metrics:  newMetrics(config.MetricsRegistry),
		blocks:   game.NewBlocks(logger),
		commands: game.NewCommands(logger),
		packets:  protocol.NewPacketRegistry(logger),
		hooks:    hook.NewEngine(logger),
		conns:    make(map[*Connection]struct{}),
	}
}

// Blocks returns the block registry.
func (s *Server) Blocks() *game.Blocks { return s.blocks }

// Commands returns the command registry.
func (s *Server) Commands() *game.Commands { return s.commands }

// Packets returns the packet registry.
func (s *Server) Packets() *protocol.PacketRegistry { return s.packets }

// Hooks returns the extension point engine.
func (s *Server) Hooks() *hook.Engine { return s.hooks }

// Extensions returns the capabilities advertised to clients.
func (s *Server) Extensions() []protocol.Capability { return s.extensions }

// Seal freezes every registry and builds the hot-path opcode cache.
// After Seal no registration is accepted and lookups are lock-free.
func (s *Server) Seal() error {
	if s.sealed.Load() {
		return ErrAlreadySealed
	}
	for _, p := range corePackets {
		if !s.packets.Contains(p.direction, p.name) {
			return ErrMissingCorePackets
		}
	}
	s.blocks.Seal()
	if err := s.commands.Seal(); err != nil {
		return err
	}
	s.packets.Seal()
	s.hooks.Seal()
	s.sealed.Store(true)

	s.logger.Info("registries sealed",
		"blocks", s.blocks.Len(),
		"commands", s.commands.Len(),
		"packets", s.packets.Len(),
		"extensions", len(s.extensions),
	)
	return nil
}

// ListenAndServe listens on the configured address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is cancelled. Each
// connection is handled on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.sealed.Load() {
		ln.Close()
		return ErrNotSealed
	}
	s.listener = ln
	s.startedAt = time.Now()
	s.logger.Info("server listening", "address", ln.Addr().String(), "name", s.config.Name)

	if s.config.StatusAddress != "" {
		s.startStatus()
	}

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.shutdown(&wg)
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ServeConn(ctx, conn)
		}()
	}

	s.shutdown(&wg)
	return nil
}

// shutdown disconnects every active connection and waits for handlers,
// bounded by ShutdownTimeout.
func (s *Server) shutdown(wg *sync.WaitGroup) {
	s.logger.Info("server shutting down")

	s.mu.Lock()
	for c := range s.conns {
		go c.Disconnect("server shutting down")
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.config.ShutdownTimeout):
		s.logger.Warn("shutdown timeout, abandoning connections")
	}

	if s.statusSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		s.statusSrv.Shutdown(ctx)
	}
}

// ServeConn runs the protocol over an established transport. It is used
// by the accept loop and by transport adapters handing over upgraded
// connections. It blocks until the connection closes.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	s.metrics.ConnectionsTotal.Inc()

	s.mu.Lock()
	if len(s.conns) >= s.config.MaxPlayers {
		s.mu.Unlock()
		s.refuse(conn, "Server is full!")
		return
	}
	c := newConnection(s, conn)
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	s.metrics.ConnectionsActive.Inc()

	c.serve(ctx)

	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.metrics.ConnectionsActive.Dec()
}

// refuse sends a disconnect frame to a connection the server will not
// serve, then closes it.
func (s *Server) refuse(conn net.Conn, reason string) {
	s.metrics.Disconnects.WithLabelValues("refused").Inc()
	if def, err := s.packets.Lookup(protocol.Outbound, "DisconnectPlayer"); err == nil {
		if frame, err := def.Encode(reason); err == nil {
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			conn.Write(frame)
		}
	}
	conn.Close()
}

// Broadcast sends an outbound packet to every identified connection.
// Per-connection failures are logged and do not stop the fanout.
func (s *Server) Broadcast(ctx context.Context, packet string, vals ...any) {
	s.mu.Lock()
	targets := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		if c.Player() != "" {
			targets = append(targets, c)
		}
	}
	s.mu.Unlock()

	for _, c := range targets {
		if err := c.Send(ctx, packet, vals...); err != nil {
			s.logger.Warn("broadcast send failed",
				"packet", packet, "player", c.Player(), "error", err)
		}
	}
}

// PlayerCount returns the number of active connections.
func (s *Server) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// invoke runs an extension point through the hook engine and counts it.
func (s *Server) invoke(ctx context.Context, target string, input any, body hook.BodyFunc) (any, error) {
	s.metrics.HookInvocations.WithLabelValues(target).Inc()
	return s.hooks.Invoke(ctx, target, input, body)
}

// startStatus serves the status and metrics endpoints on a side listener.
func (s *Server) startStatus() {
	r := chi.NewRouter()
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())

	s.statusSrv = &http.Server{
		Addr:         s.config.StatusAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		s.logger.Info("status listener started", "address", s.config.StatusAddress)
		if err := s.statusSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status listener failed", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, req *http.Request) {
	exts := make([]string, 0, len(s.extensions))
	for _, e := range s.extensions {
		exts = append(exts, e.String())
	}
	status := struct {
		Name       string   `json:"name"`
		MOTD       string   `json:"motd"`
		Software   string   `json:"software"`
		Players    int      `json:"players"`
		MaxPlayers int      `json:"max_players"`
		Modules    []string `json:"modules"`
		Extensions []string `json:"extensions"`
		UptimeSec  int64    `json:"uptime_seconds"`
	}{
		Name:       s.config.Name,
		MOTD:       s.config.MOTD,
		Software:   s.config.Software,
		Players:    s.PlayerCount(),
		MaxPlayers: s.config.MaxPlayers,
		Modules:    s.modules,
		Extensions: exts,
		UptimeSec:  int64(time.Since(s.startedAt).Seconds()),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
