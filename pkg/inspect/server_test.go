package inspect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strata-ui/strata/pkg/strata"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, *strata.Store[counterState]) {
	t.Helper()

	reg := NewRegistry()
	srv := NewServer(reg)

	store := strata.New(counterState{Count: 1},
		strata.WithName("counter"),
		srv.Hub().Option(),
	)
	if err := reg.Register("counter", store); err != nil {
		t.Fatalf("register: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Hub().Close)

	return srv, ts, store
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func TestServerHealthz(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var body map[string]string
	if code := getJSON(t, ts.URL+"/healthz", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body)
	}
}

func TestServerListStores(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var body struct {
		Stores map[string]struct {
			Count int
		} `json:"stores"`
	}
	if code := getJSON(t, ts.URL+"/stores", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got := body.Stores["counter"].Count; got != 1 {
		t.Errorf("expected counter snapshot Count 1, got %d", got)
	}
}

func TestServerGetStore(t *testing.T) {
	_, ts, store := newTestServer(t)

	store.Set(strata.Patch{"Count": 5})

	var body struct {
		Store string `json:"store"`
		State struct {
			Count int
		} `json:"state"`
	}
	if code := getJSON(t, ts.URL+"/stores/counter", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Store != "counter" || body.State.Count != 5 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestServerGetStoreNotFound(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var body map[string]string
	if code := getJSON(t, ts.URL+"/stores/missing", &body); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if body["error"] == "" {
		t.Errorf("expected error message, got %v", body)
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /metrics, got %d", resp.StatusCode)
	}
}

func TestServerWebsocketStream(t *testing.T) {
	srv, ts, store := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The server registers the client just after the handshake; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never attached")
		}
		time.Sleep(5 * time.Millisecond)
	}

	store.Set(strata.Patch{"Count": 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev ChangeEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}

	if ev.Store != "counter" {
		t.Errorf("expected store counter, got %q", ev.Store)
	}
	if len(ev.Keys) != 1 || ev.Keys[0] != "Count" {
		t.Errorf("expected keys [Count], got %v", ev.Keys)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(nil)

	// A client that never drains its buffer.
	c := &hubClient{
		id:   "slow",
		send: make(chan ChangeEvent, 1),
		quit: make(chan struct{}),
	}
	hub.mu.Lock()
	hub.clients[c.id] = c
	hub.mu.Unlock()

	hub.Broadcast(ChangeEvent{Store: "a"})
	if hub.ClientCount() != 1 {
		t.Fatalf("client dropped before its buffer filled")
	}

	hub.Broadcast(ChangeEvent{Store: "b"})
	if hub.ClientCount() != 0 {
		t.Errorf("expected slow client dropped once buffer was full")
	}
}
