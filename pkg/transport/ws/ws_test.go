package ws

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codingwatching/ProjectObsidian/pkg/modules/core"
	"github.com/codingwatching/ProjectObsidian/pkg/protocol"
	"github.com/codingwatching/ProjectObsidian/pkg/server"
)

func TestWebSocketClientHandshake(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(&server.Config{
		Name:            "WS Server",
		MetricsRegistry: prometheus.NewRegistry(),
		Logger:          logger,
	})
	if err := srv.Load(core.New()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := srv.Seal(); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	httpSrv := httptest.NewServer(NewHandler(srv, &Config{Logger: logger}))
	defer httpSrv.Close()

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	enc := protocol.NewEncoder()
	enc.WriteByte(0x00)
	enc.WriteByte(7)
	enc.WriteString("Notch", 64)
	enc.WriteString("", 64)
	enc.WriteByte(0x00)
	if err := conn.WriteMessage(websocket.BinaryMessage, enc.Bytes()); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if len(frame) == 0 || frame[0] != 0x00 {
		t.Fatalf("first frame = %v, want ServerIdentification", frame)
	}
	if name := protocol.UnpackString(frame[2:66]); name != "WS Server" {
		t.Errorf("server name = %q, want WS Server", name)
	}
}
