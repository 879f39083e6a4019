package server

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codingwatching/ProjectObsidian/pkg/store"
)

// Config holds the server configuration.
type Config struct {
	// Address is the TCP address to listen on.
	// Default: ":25565"
	Address string

	// Name is the server name sent during identification.
	// Default: "Obsidian Server"
	Name string

	// MOTD is the message of the day sent during identification.
	// Default: "Now running ProjectObsidian"
	MOTD string

	// MaxPlayers caps concurrent connections. Further connections are
	// disconnected with a "server full" message.
	// Default: 32
	MaxPlayers int

	// ProtocolVersion is the wire protocol version expected from clients.
	// Default: 7
	ProtocolVersion byte

	// Software identifies the server implementation during extension
	// negotiation.
	// Default: "ProjectObsidian"
	Software string

	// DisableCPE turns off extension negotiation. Extension-only modules
	// are skipped, extension-gated packets are never sent, and clients
	// signalling extension support are treated as vanilla.
	// Default: false
	DisableCPE bool

	// StatusAddress is the HTTP address for the status and metrics
	// endpoints. Empty disables the listener.
	// Default: "" (disabled)
	StatusAddress string

	// MetricsRegistry receives the server's Prometheus instruments.
	// Default: prometheus.DefaultRegisterer
	MetricsRegistry prometheus.Registerer

	// Archive receives a capture of each connection's inbound frames on
	// close. Nil disables capturing.
	// Default: nil
	Archive store.Store

	// ReadTimeout is the maximum time to wait for the next inbound packet.
	// Default: 5 minutes
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for an outbound write.
	// Default: 10 seconds
	WriteTimeout time.Duration

	// HandshakeTimeout bounds the identification exchange.
	// Default: 10 seconds
	HandshakeTimeout time.Duration

	// HeartbeatInterval is how often keepalive pings are sent.
	// Default: 30 seconds
	HeartbeatInterval time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15 seconds
	ShutdownTimeout time.Duration

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":25565",
		Name:              "Obsidian Server",
		MOTD:              "Now running ProjectObsidian",
		MaxPlayers:        32,
		ProtocolVersion:   7,
		Software:          "ProjectObsidian",
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		Logger:            slog.Default(),
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	def := DefaultConfig()
	out := *c
	if out.Address == "" {
		out.Address = def.Address
	}
	if out.Name == "" {
		out.Name = def.Name
	}
	if out.MOTD == "" {
		out.MOTD = def.MOTD
	}
	if out.MaxPlayers == 0 {
		out.MaxPlayers = def.MaxPlayers
	}
	if out.ProtocolVersion == 0 {
		out.ProtocolVersion = def.ProtocolVersion
	}
	if out.Software == "" {
		out.Software = def.Software
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = def.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = def.WriteTimeout
	}
	if out.HandshakeTimeout == 0 {
		out.HandshakeTimeout = def.HandshakeTimeout
	}
	if out.HeartbeatInterval == 0 {
		out.HeartbeatInterval = def.HeartbeatInterval
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = def.ShutdownTimeout
	}
	if out.Logger == nil {
		out.Logger = def.Logger
	}
	return &out
}
