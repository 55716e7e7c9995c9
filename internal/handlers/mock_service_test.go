package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"aquastream/internal/automation"
	"aquastream/internal/models"
	"aquastream/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}
func (m *mockAuth) EnsureAdmin(context.Context, string, string) (bool, error) {
	return false, nil
}

type mockMonitoring struct {
	mu        sync.Mutex
	state     service.State
	err       error
	status    automation.Status
	statusErr error
}

func (m *mockMonitoring) GetState(context.Context) (service.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.err
}

func (m *mockMonitoring) AutomationStatus(context.Context) (automation.Status, error) {
	return m.status, m.statusErr
}

func (m *mockMonitoring) setState(st service.State) {
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
}

type mockControl struct {
	ack        automation.Ack
	err        error
	snap       models.Telemetry
	refreshErr error

	lastCmd  models.Command
	lastOn   bool
	calls    int
	refreshs int
}

func (m *mockControl) SetActuator(_ context.Context, cmd models.Command, on bool) (automation.Ack, error) {
	m.calls++
	m.lastCmd, m.lastOn = cmd, on
	return m.ack, m.err
}

func (m *mockControl) Refresh(context.Context) (models.Telemetry, error) {
	m.refreshs++
	return m.snap, m.refreshErr
}

type mockSettings struct {
	auto      models.AutomationSettings
	dev       models.DeviceSettings
	getErr    error
	updateErr error
	testErr   error

	updatedAuto *models.AutomationSettings
	updatedDev  *models.DeviceSettings
	resets      int
	testedURL   string
}

func (m *mockSettings) GetAutomationSettings(context.Context) (models.AutomationSettings, error) {
	return m.auto, m.getErr
}
func (m *mockSettings) UpdateAutomationSettings(_ context.Context, s models.AutomationSettings) (models.AutomationSettings, error) {
	m.updatedAuto = &s
	if m.updateErr != nil {
		return models.AutomationSettings{}, m.updateErr
	}
	return s, nil
}
func (m *mockSettings) ResetAutomationSettings(context.Context) (models.AutomationSettings, error) {
	m.resets++
	return models.DefaultAutomationSettings(), nil
}
func (m *mockSettings) GetDeviceSettings(context.Context) (models.DeviceSettings, error) {
	return m.dev, m.getErr
}
func (m *mockSettings) UpdateDeviceSettings(_ context.Context, s models.DeviceSettings) (models.DeviceSettings, error) {
	m.updatedDev = &s
	if m.updateErr != nil {
		return models.DeviceSettings{}, m.updateErr
	}
	return s, nil
}
func (m *mockSettings) ResetDeviceSettings(context.Context) (models.DeviceSettings, error) {
	m.resets++
	return models.DefaultDeviceSettings(), nil
}
func (m *mockSettings) TestDeviceConnection(_ context.Context, baseURL string) error {
	m.testedURL = baseURL
	return m.testErr
}

type mockHistory struct {
	events     []models.HistoryEvent
	sensors    []models.SensorHistoryEntry
	err        error
	lastFilter service.EventFilter
	cleared    []string
}

func (m *mockHistory) ListEvents(_ context.Context, f service.EventFilter) ([]models.HistoryEvent, error) {
	m.lastFilter = f
	return m.events, m.err
}
func (m *mockHistory) ClearEvents(context.Context) error {
	m.cleared = append(m.cleared, "automation")
	return m.err
}
func (m *mockHistory) ListSensors(context.Context) ([]models.SensorHistoryEntry, error) {
	return m.sensors, m.err
}
func (m *mockHistory) ClearSensors(context.Context) error {
	m.cleared = append(m.cleared, "sensors")
	return m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// serve runs one request through r with an optional JSON body and bearer token.
func serve(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
