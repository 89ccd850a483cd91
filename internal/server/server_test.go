package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"QuantDash/internal/collector"
	"QuantDash/internal/metrics"
	"QuantDash/internal/model"
	"QuantDash/internal/scheduler"
)

func newTestServer(t *testing.T) (*Server, *scheduler.Scheduler, *collector.MockFetcher) {
	t.Helper()
	m := collector.NewMockFetcher(100)
	m.History = []model.HistoryPoint{
		{Date: model.MustParseDate("2024-01-01"), Price: 100},
		{Date: model.MustParseDate("2024-01-02"), Price: 100.5},
	}
	sched := scheduler.NewScheduler(context.Background(), m, nil, nil, zerolog.Nop(), scheduler.Options{Symbol: "AAPL"})
	srv := New(sched, metrics.New(), zerolog.Nop(), "127.0.0.1:0")
	t.Cleanup(func() {
		srv.hub.Stop()
		sched.Stop()
	})
	return srv, sched, m
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

type sessionReply struct {
	Status int            `json:"status"`
	Data   scheduler.View `json:"data"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) scheduler.View {
	t.Helper()
	var reply sessionReply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v; body %s", err, rec.Body.String())
	}
	return reply.Data
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	if rec := do(t, srv, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestSession(t *testing.T) {
	srv, sched, _ := newTestServer(t)
	sched.Refresh(context.Background())

	rec := do(t, srv, http.MethodGet, "/api/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	v := decodeView(t, rec)
	if v.Symbol != "AAPL" || v.CurrentPrice != 100.5 {
		t.Errorf("unexpected view: symbol %s price %v", v.Symbol, v.CurrentPrice)
	}
	if v.LastUpdatedText == "Never" {
		t.Error("session should be stamped after refresh")
	}
}

func TestHistoryCSV(t *testing.T) {
	srv, sched, _ := newTestServer(t)
	sched.FetchHistory(context.Background())

	rec := do(t, srv, http.MethodGet, "/api/history.csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="AAPL_history.csv"`) {
		t.Errorf("content disposition: %q", cd)
	}
	want := "Symbol,Date,Price\nAAPL,2024-01-01,100\nAAPL,2024-01-02,100.5\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("csv:\n%q\nwant\n%q", got, want)
	}
}

func TestExecute(t *testing.T) {
	srv, _, m := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/commands", `{"id":"signal"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	v := decodeView(t, rec)
	if v.Signal == nil || v.Confidence == nil || v.Confidence.Label != "Medium" {
		t.Errorf("expected signal with Medium confidence, got %+v", v.Confidence)
	}
	if m.Calls("signal") != 1 {
		t.Errorf("signal calls: %d", m.Calls("signal"))
	}

	rec = do(t, srv, http.MethodPost, "/api/commands", `{"id":"go:msft"}`)
	if v := decodeView(t, rec); v.Symbol != "MSFT" {
		t.Errorf("go command: symbol %s", v.Symbol)
	}

	if rec := do(t, srv, http.MethodPost, "/api/commands", `{"id":"launch"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown command: status %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/api/commands", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing id: status %d", rec.Code)
	}
}

func TestCommandsCatalog(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/commands?q=trad", "")
	var reply struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &reply)
	if len(reply.Data) != 2 || reply.Data[0].ID != "signal" || reply.Data[1].ID != "paper" {
		t.Errorf("unexpected filter result: %+v", reply.Data)
	}
}

func TestSettings(t *testing.T) {
	srv, sched, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPut, "/api/settings",
		`{"symbol":"nvda","auto_refresh":false,"refresh_interval_seconds":30,"theme":"light","time_range":"3M"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	snap := sched.Snapshot()
	if snap.Symbol != "NVDA" || snap.AutoRefresh || snap.RefreshIntervalSeconds != 30 || snap.Theme != "light" || snap.TimeRange != "3M" {
		t.Errorf("settings not applied: %+v", snap)
	}

	for _, body := range []string{
		`{"refresh_interval_seconds":0}`,
		`{"refresh_interval_seconds":61}`,
		`{"theme":"neon"}`,
		`{"time_range":"5Y"}`,
		`{"symbol":""}`,
	} {
		if rec := do(t, srv, http.MethodPut, "/api/settings", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, sched, _ := newTestServer(t)
	sched.Refresh(context.Background())

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "quantdash_") {
		t.Error("expected quantdash metrics")
	}
}

func TestWebSocket(t *testing.T) {
	srv, sched, _ := newTestServer(t)
	go srv.hub.Run()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() envelopeView {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var env envelopeView
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read: %v", err)
		}
		return env
	}

	if env := read(); env.Type != "session" || env.Data.Symbol != "AAPL" {
		t.Fatalf("unexpected initial message: %+v", env)
	}

	sched.SetSymbol("TSLA")
	for i := 0; i < 5; i++ {
		if env := read(); env.Data.Symbol == "TSLA" {
			break
		} else if i == 4 {
			t.Fatal("symbol change was not pushed")
		}
	}

	if err := conn.WriteJSON(map[string]string{"type": "command", "id": "go:ibm"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if env := read(); env.Data.Symbol == "IBM" {
			return
		}
	}
	t.Fatal("command over websocket was not executed")
}

type envelopeView struct {
	Type string         `json:"type"`
	Data scheduler.View `json:"data"`
}

func TestWebSocket_StopCancelsCommands(t *testing.T) {
	srv, sched, m := newTestServer(t)
	m.Delay = 10 * time.Second

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "command", "id": "signal"}); err != nil {
		t.Fatal(err)
	}
	waitUntil(t, "signal request in flight", func() bool {
		return m.Calls("signal") == 1 && sched.Snapshot().Loading
	})

	srv.hub.Stop()
	waitUntil(t, "command cancelled", func() bool { return !sched.Snapshot().Loading })
	snap := sched.Snapshot()
	if snap.Signal != nil || snap.Error != "" {
		t.Errorf("cancelled command must not store a result or error: %+v %q", snap.Signal, snap.Error)
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
