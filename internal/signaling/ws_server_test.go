package signaling

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"signal-relay/internal/config"
	"signal-relay/internal/metrics"
)

func testServerConfig() config.Config {
	return config.Config{
		Mode:            config.ModeDev,
		MaxMessageBytes: config.DefaultMaxMessageBytes,
		WriteTimeout:    time.Second,
	}
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	ws := NewWebSocketServer(testServerConfig(), testLogger(), metrics.New())
	ws.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return decodeJSON(t, data)
}

func writeText(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestListEndpoint_PresenceFlow(t *testing.T) {
	srv := startTestServer(t)

	alice := dialWS(t, srv, "/list?user=alice")
	got := readJSON(t, alice)
	want := map[string]any{"type": "userList", "users": []any{"alice"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("alice initial list=%v, want %v", got, want)
	}

	bob := dialWS(t, srv, "/list?user=bob")
	want = map[string]any{"type": "userList", "users": []any{"alice", "bob"}}
	if got := readJSON(t, bob); !reflect.DeepEqual(got, want) {
		t.Fatalf("bob initial list=%v, want %v", got, want)
	}
	if got := readJSON(t, alice); !reflect.DeepEqual(got, want) {
		t.Fatalf("alice updated list=%v, want %v", got, want)
	}
}

func TestListEndpoint_AddUserAfterAnonymousConnect(t *testing.T) {
	srv := startTestServer(t)

	alice := dialWS(t, srv, "/list")
	writeText(t, alice, `{"type":"addUser","userId":"alice"}`)

	got := readJSON(t, alice)
	want := map[string]any{"type": "userList", "users": []any{"alice"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("list after addUser=%v, want %v", got, want)
	}
}

func TestListEndpoint_ChatRelay(t *testing.T) {
	srv := startTestServer(t)

	alice := dialWS(t, srv, "/list?user=alice")
	readJSON(t, alice) // [alice]
	bob := dialWS(t, srv, "/list?user=bob")
	readJSON(t, bob)   // [alice bob]
	readJSON(t, alice) // [alice bob]

	writeText(t, alice, `{"type":"chat","toUser":"bob","fromUser":"alice","message":"hi"}`)

	got := readJSON(t, bob)
	want := map[string]any{"type": "chat", "fromUser": "alice", "message": "hi"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("bob received %v, want %v", got, want)
	}
}

func TestListEndpoint_DisconnectRebroadcasts(t *testing.T) {
	srv := startTestServer(t)

	alice := dialWS(t, srv, "/list?user=alice")
	readJSON(t, alice)
	bob := dialWS(t, srv, "/list?user=bob")
	readJSON(t, bob)
	readJSON(t, alice)

	bob.Close()

	got := readJSON(t, alice)
	want := map[string]any{"type": "userList", "users": []any{"alice"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("post-disconnect list=%v, want %v", got, want)
	}
}

func TestCallEndpoint_OfferAnswerCandidateRelay(t *testing.T) {
	srv := startTestServer(t)

	alice := dialWS(t, srv, "/call?user=alice")
	bob := dialWS(t, srv, "/call?user=bob")

	writeText(t, alice, `{"type":"offer","fromUser":"alice","toUser":"bob","offer":{"type":"offer","sdp":"v=0 A"}}`)
	got := readJSON(t, bob)
	want := map[string]any{
		"type":     "offer",
		"fromUser": "alice",
		"offer":    map[string]any{"type": "offer", "sdp": "v=0 A"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("bob offer=%v, want %v", got, want)
	}

	writeText(t, bob, `{"type":"answer","fromUser":"bob","toUser":"alice","answer":{"type":"answer","sdp":"v=0 B"}}`)
	got = readJSON(t, alice)
	want = map[string]any{
		"type":     "answer",
		"fromUser": "bob",
		"answer":   map[string]any{"type": "answer", "sdp": "v=0 B"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("alice answer=%v, want %v", got, want)
	}

	writeText(t, alice, `{"type":"candidate","fromUser":"alice","toUser":"bob","candidate":{"candidate":"candidate:1","sdpMid":"0"}}`)
	got = readJSON(t, bob)
	want = map[string]any{
		"type":      "candidate",
		"fromUser":  "alice",
		"candidate": map[string]any{"candidate": "candidate:1", "sdpMid": "0"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("bob candidate=%v, want %v", got, want)
	}
}

func TestCallEndpoint_EndCallReachesBothParties(t *testing.T) {
	srv := startTestServer(t)

	alice := dialWS(t, srv, "/call?user=alice")
	bob := dialWS(t, srv, "/call?user=bob")

	writeText(t, alice, `{"type":"endCall","fromUser":"alice","toUser":"bob"}`)

	want := map[string]any{"type": "endCall", "fromUser": "alice"}
	if got := readJSON(t, bob); !reflect.DeepEqual(got, want) {
		t.Fatalf("bob endCall=%v, want %v", got, want)
	}
	if got := readJSON(t, alice); !reflect.DeepEqual(got, want) {
		t.Fatalf("alice endCall=%v, want %v", got, want)
	}
}

func TestChannels_AreIndependent(t *testing.T) {
	srv := startTestServer(t)

	// alice is present only on /list, bob only on /call. A call-channel
	// message from bob to alice must not cross over.
	alice := dialWS(t, srv, "/list?user=alice")
	readJSON(t, alice)
	bob := dialWS(t, srv, "/call?user=bob")

	writeText(t, bob, `{"type":"offer","fromUser":"bob","toUser":"alice","offer":{"sdp":"X"}}`)

	alice.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, data, err := alice.ReadMessage(); err == nil {
		t.Fatalf("presence connection received call-channel traffic: %s", data)
	}
}

func TestEndpoints_RejectNonWebSocketRequests(t *testing.T) {
	srv := startTestServer(t)

	for _, path := range []string{"/list", "/call"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("GET %s status=%d, want %d", path, resp.StatusCode, http.StatusBadRequest)
		}
	}
}

func TestEndpoint_DisallowedOriginRejected(t *testing.T) {
	mux := http.NewServeMux()
	cfg := testServerConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	ws := NewWebSocketServer(cfg, testLogger(), metrics.New())
	ws.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/list?user=alice"
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		conn.Close()
		t.Fatalf("dial with disallowed origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake rejection, got %+v", resp)
	}
}

func TestEndpoint_NonTextFrameIgnored(t *testing.T) {
	srv := startTestServer(t)

	alice := dialWS(t, srv, "/list?user=alice")
	readJSON(t, alice)
	bob := dialWS(t, srv, "/list?user=bob")
	readJSON(t, bob)
	readJSON(t, alice)

	if err := alice.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	// The binary frame is dropped; a following text frame still routes.
	writeText(t, alice, `{"type":"chat","toUser":"bob","fromUser":"alice","message":"still here"}`)

	got := readJSON(t, bob)
	want := map[string]any{"type": "chat", "fromUser": "alice", "message": "still here"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("bob received %v, want %v", got, want)
	}
}

func TestEndpoint_MalformedFrameKeepsConnectionAlive(t *testing.T) {
	srv := startTestServer(t)

	alice := dialWS(t, srv, "/list?user=alice")
	readJSON(t, alice)
	bob := dialWS(t, srv, "/list?user=bob")
	readJSON(t, bob)
	readJSON(t, alice)

	writeText(t, alice, `{not json`)
	writeText(t, alice, `{"type":"chat","toUser":"bob","fromUser":"alice","message":"ok"}`)

	got := readJSON(t, bob)
	if got["message"] != "ok" {
		t.Fatalf("chat after malformed frame not delivered: %v", got)
	}
}
