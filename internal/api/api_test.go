package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ayala-Braverman/practicod3-1/internal/auth"
	"github.com/Ayala-Braverman/practicod3-1/internal/model"
	"github.com/Ayala-Braverman/practicod3-1/internal/service"
	"github.com/Ayala-Braverman/practicod3-1/internal/storage"
)

var tokenConfig = auth.TokenConfig{
	Key:      []byte("0123456789abcdef0123456789abcdef"),
	Issuer:   "todo-api",
	Audience: "todo-client",
	TTL:      time.Hour,
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newLoggedTestServer(t, io.Discard)
}

func newLoggedTestServer(t *testing.T, w io.Writer) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(w, nil))

	store, err := storage.Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	authSvc, err := service.NewAuthService(store, auth.NewTokenIssuer(tokenConfig), auth.NewPasswordHasher(bcrypt.MinCost), logger)
	require.NoError(t, err)
	taskSvc := service.NewTaskService(store, logger)

	h := NewHandler(authSvc, taskSvc, store, logger)
	return New(ServerConfig{AllowedOrigins: []string{"*"}}, h, authSvc, prometheus.NewRegistry(), logger)
}

func do(t *testing.T, e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, e *echo.Echo, name, password string) AuthResponseDTO {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/auth/register", "",
		`{"userName":"`+name+`","passwordHash":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res AuthResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func createTask(t *testing.T, e *echo.Echo, token, body string) model.Task {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/items", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func itemPath(id int64) string {
	return "/api/items/" + strconv.FormatInt(id, 10)
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestServer(t)

	res := register(t, e, "alice", "secret")
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice", res.User.UserName)

	rec := do(t, e, http.MethodPost, "/api/auth/register", "", `{"userName":"alice","passwordHash":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/auth/login", "", `{"userName":"alice","passwordHash":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login AuthResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, res.User, login.User)

	// password alias
	rec = do(t, e, http.MethodPost, "/api/auth/login", "", `{"userName":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	e := newTestServer(t)

	for _, body := range []string{
		`{"userName":"","passwordHash":"x"}`,
		`{"userName":"bob"}`,
		`{}`,
		`not json`,
	} {
		rec := do(t, e, http.MethodPost, "/api/auth/register", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestRegisterPasswordTooLong(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/auth/register", "",
		`{"userName":"alice","passwordHash":"`+strings.Repeat("p", 73)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestRegisterTrimsUserName(t *testing.T) {
	e := newTestServer(t)

	res := register(t, e, " alice ", "secret")
	assert.Equal(t, "alice", res.User.UserName)

	rec := do(t, e, http.MethodPost, "/api/auth/register", "", `{"userName":"alice ","passwordHash":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginFailuresAreIdentical(t *testing.T) {
	e := newTestServer(t)
	register(t, e, "alice", "secret")

	wrong := do(t, e, http.MethodPost, "/api/auth/login", "", `{"userName":"alice","passwordHash":"wrong"}`)
	missing := do(t, e, http.MethodPost, "/api/auth/login", "", `{"userName":"nonexistent","passwordHash":"anything"}`)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, missing.Code)
	assert.Equal(t, wrong.Body.String(), missing.Body.String())
}

func TestItemsRequireToken(t *testing.T) {
	e := newTestServer(t)

	expired, err := auth.NewTokenIssuer(tokenConfig, auth.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	})).Issue(1, "alice")
	require.NoError(t, err)

	for _, tt := range []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage", "Bearer garbage"},
		{"expired", "Bearer " + expired},
	} {
		for _, route := range []struct{ method, path, body string }{
			{http.MethodGet, "/api/items", ""},
			{http.MethodGet, "/api/items/1", ""},
			{http.MethodPost, "/api/items", `{"name":"x"}`},
			{http.MethodPut, "/api/items/1", `{"isComplete":true}`},
			{http.MethodDelete, "/api/items/1", ""},
		} {
			req := httptest.NewRequest(route.method, route.path, strings.NewReader(route.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s %s", tt.name, route.method, route.path)
		}
	}
}

func TestCreateTask(t *testing.T) {
	e := newTestServer(t)
	alice := register(t, e, "alice", "secret")

	rec := do(t, e, http.MethodPost, "/api/items", alice.Token, `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/items", alice.Token, `{"name":"Buy milk","isComplete":true,"userId":999}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))

	assert.Equal(t, "Buy milk", task.Name)
	assert.False(t, task.IsComplete)
	assert.Equal(t, alice.User.ID, task.UserID)
	assert.Equal(t, itemPath(task.ID), rec.Header().Get(echo.HeaderLocation))
}

func TestTaskRoundTrip(t *testing.T) {
	e := newTestServer(t)
	alice := register(t, e, "alice", "secret")
	task := createTask(t, e, alice.Token, `{"name":"Write report"}`)

	rec := do(t, e, http.MethodGet, itemPath(task.ID), alice.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, task, got)

	rec = do(t, e, http.MethodPut, itemPath(task.ID), alice.Token, `{"isComplete":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, itemPath(task.ID), alice.Token, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Write report", got.Name)
	assert.True(t, got.IsComplete)

	rec = do(t, e, http.MethodPut, itemPath(task.ID), alice.Token, `{"name":"Send report","isComplete":false}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/items", alice.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Send report", list[0].Name)
	assert.False(t, list[0].IsComplete)

	rec = do(t, e, http.MethodDelete, itemPath(task.ID), alice.Token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, itemPath(task.ID), alice.Token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyListIsArray(t *testing.T) {
	e := newTestServer(t)
	alice := register(t, e, "alice", "secret")

	rec := do(t, e, http.MethodGet, "/api/items", alice.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	e := newTestServer(t)
	bob := register(t, e, "bob", "pw1234")
	carol := register(t, e, "carol", "pw5678")
	task := createTask(t, e, bob.Token, `{"name":"Write report"}`)

	rec := do(t, e, http.MethodGet, "/api/items", carol.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	missing := do(t, e, http.MethodGet, itemPath(task.ID+100), carol.Token, "")
	for _, route := range []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPut, `{"name":"hijack","isComplete":true}`},
		{http.MethodDelete, ""},
	} {
		rec := do(t, e, route.method, itemPath(task.ID), carol.Token, route.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, route.method)
		assert.Equal(t, missing.Body.String(), rec.Body.String(), route.method)
	}

	rec = do(t, e, http.MethodGet, itemPath(task.ID), bob.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Write report", got.Name)
	assert.False(t, got.IsComplete)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	e := newTestServer(t)
	alice := register(t, e, "alice", "secret")

	rec := do(t, e, http.MethodGet, "/api/items/abc", alice.Token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRootHealthAndMetrics(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "todo_http_requests_total")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestErrorsAreLoggedAndCounted(t *testing.T) {
	var logs bytes.Buffer
	e := newLoggedTestServer(t, &logs)
	e.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := do(t, e, http.MethodGet, "/teapot", "", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	rec = do(t, e, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	out := logs.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "short and stout")
	assert.Contains(t, out, "status=404")

	metrics := do(t, e, http.MethodGet, "/metrics", "", "").Body.String()
	assert.Contains(t, metrics, `code="418",method="GET",route="/teapot"`)
	assert.Contains(t, metrics, `code="404"`)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}
