package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"aquastream/internal/models"
	"aquastream/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", defaultInterval},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=31s", defaultInterval},
		{"interval_ms_too_large", "/ws?interval_ms=40000", defaultInterval},
		{"interval_invalid_string", "/ws?interval=bogus", defaultInterval},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", defaultInterval},
		{"both_present_interval_wins", "/ws?interval=5s&interval_ms=150", 5 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type wsTestEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, srv *httptest.Server, query url.Values) *websocket.Conn {
	t.Helper()
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	return conn
}

func readState(t *testing.T, conn *websocket.Conn, timeout time.Duration) (service.State, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var env wsTestEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		return service.State{}, err
	}
	if env.Type != wsTypeState || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var st service.State
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	return st, nil
}

func TestWebSocket_StateStream_InitialAndOnChange(t *testing.T) {
	mon := &mockMonitoring{state: service.State{
		Telemetry: models.Telemetry{Online: true, Reading: models.SensorReading{Temperature: 25.1}},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon}
	srv := httptest.NewServer(newTestRouter(s))
	defer srv.Close()

	conn := dialWS(t, srv, url.Values{"token": {"valid"}, "interval_ms": {"20"}})
	defer conn.Close()

	st, err := readState(t, conn, time.Second)
	if err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if !st.Online || st.Reading.Temperature != 25.1 {
		t.Fatalf("unexpected state: %+v", st)
	}

	// unchanged state is not re-sent
	if _, err := readState(t, conn, 150*time.Millisecond); err == nil {
		t.Fatalf("expected no frame for an unchanged state")
	}
}

func TestWebSocket_StateStream_SendsChanges(t *testing.T) {
	mon := &mockMonitoring{state: service.State{Telemetry: models.Telemetry{Online: true}}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon}
	srv := httptest.NewServer(newTestRouter(s))
	defer srv.Close()

	conn := dialWS(t, srv, url.Values{"token": {"valid"}, "interval_ms": {"20"}})
	defer conn.Close()

	if _, err := readState(t, conn, time.Second); err != nil {
		t.Fatalf("read initial: %v", err)
	}

	mon.setState(service.State{Telemetry: models.Telemetry{
		Online:    true,
		Actuators: models.ActuatorState{PumpOut: true},
	}})
	st, err := readState(t, conn, time.Second)
	if err != nil {
		t.Fatalf("read change: %v", err)
	}
	if !st.Actuators.PumpOut {
		t.Fatalf("expected pump_out on, got %+v", st.Actuators)
	}
}

func TestWebSocket_RequiresToken(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{parseErr: errors.New("bad")}, Monitoring: &mockMonitoring{}}
	srv := httptest.NewServer(newTestRouter(s))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	_, resp, err := dialer.Dial(u.String()+"?token=nope", nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestWebSocket_InitialGetStateError_Closes(t *testing.T) {
	mon := &mockMonitoring{err: errors.New("boom")}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon}
	srv := httptest.NewServer(newTestRouter(s))
	defer srv.Close()

	conn := dialWS(t, srv, url.Values{"token": {"valid"}})
	defer conn.Close()

	// The server should close immediately after failing initial GetState
	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}
