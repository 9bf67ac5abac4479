package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"

	"github.com/pthm-cable/flow/mpm"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	waitFor(t, "client registration", func() bool { return h.Clients() == 1 })
	return conn
}

func TestHubBroadcastsFrames(t *testing.T) {
	h := NewHub(nil)
	conn := dialHub(t, h)

	ps := []mpm.Particle{{Position: mgl32.Vec3{4, 5, 6}, Mass: 1}}
	h.Broadcast(EncodeFrame(nil, 9, ps))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", kind)
	}
	frame, got, err := DecodeFrame(data, nil)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame != 9 || len(got) != 1 || got[0].Position != ps[0].Position {
		t.Errorf("received frame %d with %+v", frame, got)
	}
}

func TestHubAppliesControlMessages(t *testing.T) {
	f := &fakeController{}
	h := NewHub(f)
	conn := dialHub(t, h)

	if err := conn.WriteJSON(Message{Type: MsgCount, Count: 77}); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "count applied", func() bool { return f.activeCount() == 77 })
}

func TestHubRepliesToRejectedMessages(t *testing.T) {
	h := NewHub(&fakeController{})
	conn := dialHub(t, h)

	if err := conn.WriteJSON(Message{Type: "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", kind)
	}
	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("unmarshal reply: %v", err)
	}
	if reply.Type != "error" || reply.Error == "" {
		t.Errorf("reply = %+v, want error reply", reply)
	}
	if n := h.TakeRejects(); n != 1 {
		t.Errorf("rejects = %d, want 1", n)
	}
	if n := h.TakeRejects(); n != 0 {
		t.Errorf("rejects after take = %d, want 0", n)
	}
}

func TestHubCloseDisconnects(t *testing.T) {
	h := NewHub(nil)
	conn := dialHub(t, h)

	h.Close()
	if n := h.Clients(); n != 0 {
		t.Errorf("clients after Close = %d, want 0", n)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("read succeeded after hub closed")
	}
	h.Broadcast(EncodeFrame(nil, 1, nil))
}
