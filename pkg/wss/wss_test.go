package wss

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Test WebSocket server
func newTestServer(handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClientConnect(t *testing.T) {
	server := newTestServer(func(conn *websocket.Conn) {
		// Echo server
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			conn.WriteMessage(mt, msg)
		}
	})
	defer server.Close()

	config := DefaultConfig(wsURL(server))
	config.ReconnectEnabled = false

	var connected bool
	var mu sync.Mutex

	client := NewClient(config, Handlers{
		OnConnect: func() {
			mu.Lock()
			connected = true
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	mu.Lock()
	if !connected {
		t.Error("OnConnect was not called")
	}
	mu.Unlock()

	if !client.IsConnected() {
		t.Error("Client should be connected")
	}

	if client.State() != StateConnected {
		t.Errorf("Wrong state: got %v, want %v", client.State(), StateConnected)
	}
}

func TestClientSendReceive(t *testing.T) {
	server := newTestServer(func(conn *websocket.Conn) {
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			// Echo back with prefix
			conn.WriteMessage(mt, append([]byte("echo:"), msg...))
		}
	})
	defer server.Close()

	config := DefaultConfig(wsURL(server))
	config.ReconnectEnabled = false

	received := make(chan []byte, 1)
	client := NewClient(config, Handlers{
		OnMessage: func(data []byte) {
			received <- data
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	// Send a message
	if err := client.Send([]byte("hello")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// Wait for echo
	select {
	case msg := <-received:
		if string(msg) != "echo:hello" {
			t.Errorf("Wrong message: got %s, want echo:hello", string(msg))
		}
	case <-time.After(2 * time.Second):
		t.Error("Timeout waiting for message")
	}
}

func TestClientSendJSON(t *testing.T) {
	server := newTestServer(func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			// Parse and echo back
			var data map[string]interface{}
			json.Unmarshal(msg, &data)
			data["echoed"] = true
			resp, _ := json.Marshal(data)
			conn.WriteMessage(websocket.TextMessage, resp)
		}
	})
	defer server.Close()

	config := DefaultConfig(wsURL(server))
	config.ReconnectEnabled = false

	received := make(chan []byte, 1)
	client := NewClient(config, Handlers{
		OnMessage: func(data []byte) {
			received <- data
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	// Send JSON
	if err := client.SendJSON(map[string]string{"type": "test"}); err != nil {
		t.Fatalf("SendJSON failed: %v", err)
	}

	// Wait for echo
	select {
	case msg := <-received:
		var data map[string]interface{}
		if err := json.Unmarshal(msg, &data); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if data["type"] != "test" {
			t.Errorf("Wrong type: got %v", data["type"])
		}
		if data["echoed"] != true {
			t.Error("Message was not echoed")
		}
	case <-time.After(2 * time.Second):
		t.Error("Timeout waiting for message")
	}
}

func TestSubscribeMessageSentOnConnect(t *testing.T) {
	subscribed := make(chan map[string]interface{}, 1)
	server := newTestServer(func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var data map[string]interface{}
		json.Unmarshal(msg, &data)
		subscribed <- data
		// Keep connection open
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	config := DefaultConfig(wsURL(server))
	config.ReconnectEnabled = false

	client := NewClient(config, Handlers{})
	client.SetSubscribeMessage(func() interface{} {
		return map[string]interface{}{
			"type":       "market",
			"assets_ids": []string{"tok-1", "tok-2"},
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	select {
	case data := <-subscribed:
		if data["type"] != "market" {
			t.Errorf("Wrong subscribe type: got %v", data["type"])
		}
		ids, ok := data["assets_ids"].([]interface{})
		if !ok || len(ids) != 2 {
			t.Errorf("Wrong assets_ids: got %v", data["assets_ids"])
		}
	case <-time.After(2 * time.Second):
		t.Error("Timeout waiting for subscribe message")
	}
}

func TestClientClose(t *testing.T) {
	server := newTestServer(func(conn *websocket.Conn) {
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	})
	defer server.Close()

	config := DefaultConfig(wsURL(server))
	config.ReconnectEnabled = false

	client := NewClient(config, Handlers{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	client.Close()

	if client.State() != StateClosed {
		t.Errorf("Wrong state: got %v, want %v", client.State(), StateClosed)
	}

	// Send should fail
	if err := client.Send([]byte("test")); err == nil {
		t.Error("Send should fail after close")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateReconnecting, "reconnecting"},
		{StateClosed, "closed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	client := NewClient(DefaultConfig("ws://unused"), Handlers{})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{64, 30 * time.Second},   // naive 1<<63 shift would go negative
		{1000, 30 * time.Second}, // stays capped however long the outage
	}
	for _, tt := range tests {
		got := client.backoffDelay(tt.attempt)
		if got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
		if got <= 0 {
			t.Errorf("backoffDelay(%d) = %v, must be positive", tt.attempt, got)
		}
	}
}
