package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for server lifecycle and connection conditions.
var (
	// ErrNotSealed is returned when serving is attempted before Seal.
	ErrNotSealed = errors.New("server: cannot serve before registries are sealed")

	// ErrAlreadySealed is returned when Load is called after Seal.
	ErrAlreadySealed = errors.New("server: registries already sealed")

	// ErrConnectionClosed is returned when writing to a closed connection.
	ErrConnectionClosed = errors.New("server: connection closed")

	// ErrServerFull is the disconnect cause when MaxPlayers is reached.
	ErrServerFull = errors.New("server: server full")

	// ErrMissingCorePackets is returned by Seal when the handshake packets
	// the server itself depends on were never registered.
	ErrMissingCorePackets = errors.New("server: core protocol packets not registered")
)

// ClientError is a protocol violation by the peer. It is fatal to that
// connection only: the player is disconnected with the reason, the server
// keeps serving everyone else.
type ClientError struct {
	Reason string
}

func (e *ClientError) Error() string {
	return "server: client error: " + e.Reason
}

// NewClientError creates a ClientError with a formatted reason.
func NewClientError(format string, args ...any) *ClientError {
	return &ClientError{Reason: fmt.Sprintf(format, args...)}
}

// IsClientError reports whether err is a per-connection protocol violation.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}
