package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/todo-reminder/internal/adapters/repository/memory"
	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/config"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/metrics"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

type recordingMailer struct {
	mu        sync.Mutex
	sent      []ports.OutgoingEmail
	resets    int
	sendErr   error
	verifyErr error
}

func (m *recordingMailer) Send(_ context.Context, e ports.OutgoingEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, e)
	return nil
}

func (m *recordingMailer) Verify(context.Context) error { return m.verifyErr }

func (m *recordingMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type testServer struct {
	srv       *Server
	container *Container
	mailer    *recordingMailer
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "todo-reminder", Version: "test"},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*"},
		Metrics:  config.MetricsConfig{Enabled: true},
		Mail:     config.MailConfig{Port: 587, Timeout: time.Second},
		Reminders: config.RemindersConfig{
			Interval:    time.Minute,
			SendTimeout: time.Second,
		},
		Auth: config.AuthConfig{Secret: "test-secret-of-sufficient-length", ExpiresIn: time.Hour, Issuer: "todo-reminder"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	mailer := &recordingMailer{}
	container := Assemble(cfg, logger.NewNop(), Components{
		Store:   memory.NewStore(),
		Metrics: metrics.New(),
		Mailer:  func(ports.SettingsSource) ports.Mailer { return mailer },
	})
	require.NoError(t, container.Projects.EnsureDefaults(context.Background()))

	srv, err := New(cfg, container, logger.NewNop())
	require.NoError(t, err)
	return &testServer{srv: srv, container: container, mailer: mailer}
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, _ := ts.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Contains(t, body, "timestamp")
	assert.Contains(t, body, "uptime")

	rec, env := ts.do(t, http.MethodGet, "/api/health/detailed", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = ts.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, env := ts.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Route not found", env.Error)
}

func TestProjectAndTaskFlow(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, env := ts.do(t, http.MethodPost, "/api/projects", `{"name":"Home"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var project entities.Project
	require.NoError(t, json.Unmarshal(env.Data, &project))
	assert.Equal(t, entities.ProjectKindUser, project.Kind)

	rec, env = ts.do(t, http.MethodGet, "/api/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []entities.Project
	require.NoError(t, json.Unmarshal(env.Data, &projects))
	require.Len(t, projects, 3)
	assert.Equal(t, "Inbox", projects[0].Name)

	for _, title := range []string{"a", "b", "c"} {
		rec, _ = ts.do(t, http.MethodPost, "/api/tasks", `{"title":"`+title+`","projectId":"`+project.ID+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/tasks?projectId="+project.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []entities.Task
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	require.Len(t, tasks, 3)

	rec, env = ts.do(t, http.MethodPatch, "/api/tasks/"+tasks[0].ID, `{"completed":true,"priority":"high"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated entities.Task
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.True(t, updated.Completed)
	assert.Equal(t, entities.PriorityHigh, updated.PriorityValue())

	rec, env = ts.do(t, http.MethodDelete, "/api/projects/"+project.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = ts.do(t, http.MethodGet, "/api/tasks?projectId="+project.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	rec, env = ts.do(t, http.MethodDelete, "/api/projects/"+project.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found", env.Error)
}

func TestInboxIsProtected(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, env := ts.do(t, http.MethodDelete, "/api/projects/"+entities.InboxProjectID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.Success)
}

func TestPatchRejectsWrongTypes(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, env := ts.do(t, http.MethodPost, "/api/tasks", `{"title":"t","projectId":"`+entities.WorkProjectID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var task entities.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))

	rec, env = ts.do(t, http.MethodPatch, "/api/tasks/"+task.ID, `{"title":"changed","reminderEnabled":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "reminderEnabled")

	rec, env = ts.do(t, http.MethodPatch, "/api/tasks/"+task.ID, `{"reminderTime":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "reminderTime")

	rec, env = ts.do(t, http.MethodGet, "/api/tasks/"+task.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "t", task.Title)

	rec, _ = ts.do(t, http.MethodPatch, "/api/tasks/missing", `{"completed":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTaskValidation(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, env := ts.do(t, http.MethodPost, "/api/tasks", `{"projectId":"`+entities.WorkProjectID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title: title is required", env.Error)

	rec, _ = ts.do(t, http.MethodPost, "/api/tasks", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	at := time.Now().Add(time.Hour).UnixMilli()

	body := `{"tasks":[
		{"id":"t1","title":"one","completed":false,"projectId":"work-default-id","createdAt":1,"order":0,"reminderEnabled":true,"reminderTime":` + jsonInt(at) + `},
		{"id":"t2","title":"two","completed":true,"projectId":"inbox-default-id","createdAt":2,"order":0,"reminderEnabled":true,"reminderTime":` + jsonInt(at) + `}
	]}`
	rec, env := ts.do(t, http.MethodPost, "/api/tasks/sync", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tasksCount":2,"remindersCount":1}`, string(env.Data))

	rec, env = ts.do(t, http.MethodPost, "/api/tasks/sync", `{"tasks":[{"id":"t1","projectId":"work-default-id"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, env = ts.do(t, http.MethodGet, "/api/reminders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reminders []entities.Reminder
	require.NoError(t, json.Unmarshal(env.Data, &reminders))
	require.Len(t, reminders, 1)
	assert.Equal(t, "t1", reminders[0].TaskID)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestSmtpSettingsInvalidUserIsRejected(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, env := ts.do(t, http.MethodPost, "/api/smtp/settings",
		`{"host":"smtp.example.com","port":587,"user":"not-an-email","pass":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "user")
	assert.Equal(t, 0, ts.mailer.resets)

	settings, err := ts.container.SettingsProvider.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, settings.Host)
}

func TestSmtpSettingsSaveDespiteFailedTest(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.mailer.verifyErr = &entities.TransportError{Op: "verify", Err: errors.New("dial tcp: connection refused")}

	rec, env := ts.do(t, http.MethodPost, "/api/settings",
		`{"host":"smtp.example.com","port":587,"user":"me@example.com","pass":"pw","toEmail":"me@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var result ports.SettingsUpdateResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Configured)
	assert.False(t, result.TestResult.Success)
	assert.Equal(t, 1, ts.mailer.resets)

	rec, env = ts.do(t, http.MethodGet, "/api/smtp/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, string(env.Data), `"pass"`)
	var view ports.SmtpSettingsView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "smtp.example.com", view.Host)
	assert.True(t, view.HasPassword)
}

func TestSendReminderNow(t *testing.T) {
	ts := newTestServer(t, testConfig())
	at := time.Now().Add(24 * time.Hour).UnixMilli()

	rec, env := ts.do(t, http.MethodPost, "/api/tasks", `{"title":"Pay rent","projectId":"work-default-id","reminderEnabled":true,"reminderTime":`+jsonInt(at)+`,"userEmail":"a@x.io"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var task entities.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))

	rec, env = ts.do(t, http.MethodPost, "/api/reminders/send/"+task.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reminder sent successfully", env.Message)
	require.Len(t, ts.mailer.sent, 1)
	assert.Equal(t, "a@x.io", ts.mailer.sent[0].To)

	rec, _ = ts.do(t, http.MethodPost, "/api/reminders/send/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.mailer.sendErr = &entities.TransportError{Op: "send", Err: errors.New("535 authentication failed")}
	rec, env = ts.do(t, http.MethodPost, "/api/reminders/send/"+task.ID, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "535 authentication failed", env.Error)
}

func TestTestEmailRequiresRecipient(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec, env := ts.do(t, http.MethodPost, "/api/smtp/test-email", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, env = ts.do(t, http.MethodPost, "/api/smtp/test-email", `{"email":"me@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestAuthRequiredWhenEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	ts := newTestServer(t, cfg)

	rec, _ := ts.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := ts.do(t, http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	token, _, err := ts.container.Tokens.IssueToken("tester", 0)
	require.NoError(t, err)

	rec, env = ts.do(t, http.MethodGet, "/api/projects", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = ts.do(t, http.MethodGet, "/api/projects", "", "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())

	ts.do(t, http.MethodGet, "/api/projects", "")
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
