package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amterp/tally/internal/config"
	"github.com/amterp/tally/internal/logging"
	"github.com/amterp/tally/internal/metrics"
	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/service"
	"github.com/amterp/tally/internal/store"
)

type serverFixture struct {
	server   *Server
	counters *service.CounterService
	store    *store.FileCounterStore
	dataDir  string
}

func setupServer(t *testing.T, watch bool) *serverFixture {
	t.Helper()

	dataDir := t.TempDir()
	counterStore := store.NewCounterStore(config.NewPaths(dataDir))
	m := metrics.New()
	counters := service.NewCounterService(counterStore, service.WithMetrics(m))
	t.Cleanup(func() { counters.Close() })

	cfg := ServerConfig{
		Counters: counters,
		Metrics:  m,
		Logger:   logging.Discard(),
		Port:     0,
	}
	if watch {
		cfg.DataDir = dataDir
	}

	return &serverFixture{
		server:   NewServer(cfg),
		counters: counters,
		store:    counterStore,
		dataDir:  dataDir,
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	f := setupServer(t, false)
	f.counters.Add("Laps", "0", "Red")

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/counters", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Metrics status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`tally_operations_total{op="add"} 1`,
		`tally_counters 1`,
		`tally_http_requests_total{method="GET",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Metrics output missing %q", want)
		}
	}
}

func TestServer_WebSocketPushesChanges(t *testing.T) {
	f := setupServer(t, false)
	f.counters.Add("Laps", "10", "Red")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.server.broadcastChanges(ctx)

	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	readMessage := func() (string, []CounterResponse) {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Type string               `json:"type"`
			Data ListCountersResponse `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		return msg.Type, msg.Data.Counters
	}

	msgType, counters := readMessage()
	if msgType != MessageConnected || len(counters) != 1 {
		t.Fatalf("Greeting = %s with %d counters, want connected with 1", msgType, len(counters))
	}

	// Wait for the hub to register the client before mutating
	deadline := time.Now().Add(time.Second)
	for f.server.wsHub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	f.counters.Increment(counters[0].ID)

	msgType, counters = readMessage()
	if msgType != MessageCountersChanged {
		t.Fatalf("Type = %s, want %s", msgType, MessageCountersChanged)
	}
	if counters[0].Value != 11 {
		t.Errorf("Value = %d, want 11", counters[0].Value)
	}
}

func TestServer_ReloadsWhenFileRewritten(t *testing.T) {
	f := setupServer(t, true)
	f.counters.Add("Laps", "0", "Red")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.counters.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if err := f.server.watcher.Start(); err != nil {
		t.Fatalf("Watcher start failed: %v", err)
	}
	defer f.server.watcher.Stop()

	// Another process rewrites the file
	external := []*model.Counter{
		{ID: "ext1", Name: "From elsewhere", InitialValue: 3, Value: 7, ColorName: "Purple", ColorHex: "#6A1B9A"},
	}
	if err := f.store.Save(external); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		all := f.counters.GetAll()
		if len(all) == 1 && all[0].ID == "ext1" {
			if all[0].Value != 7 {
				t.Errorf("Value = %d, want 7", all[0].Value)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Collection was not reloaded, got %+v", f.counters.GetAll())
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	f := setupServer(t, false)
	f.server.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil on cancel", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestErrorMapping(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, "nope")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error != "nope" {
		t.Errorf("Unexpected body %+v (err %v)", resp, err)
	}
}
