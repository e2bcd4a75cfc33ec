package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"downtimelog/auth"
	"downtimelog/db"
	"downtimelog/models"
	"downtimelog/store"
)

const testOrigin = "http://frontend.local"

var (
	testDB     *sql.DB
	testRouter *chi.Mux
)

func TestMain(m *testing.M) {
	dbPath := "./test_api.db"
	conn, err := db.Open(dbPath)
	if err != nil {
		panic(err)
	}
	testDB = conn

	users := store.NewUserStore(conn)
	entries := store.NewDowntimeStore(conn)
	api := NewAPI(auth.NewService(users), entries, zerolog.Nop())

	testRouter = chi.NewRouter()
	testRouter.Route("/api", func(r chi.Router) {
		r.Use(CORS(testOrigin))
		api.Routes(r)
	})

	code := m.Run()

	testDB.Close()
	os.Remove(dbPath)
	os.Exit(code)
}

func doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	w := doJSON(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]bool
	decodeBody(t, w, &body)
	assert.True(t, body["ok"])
}

func TestRegisterThenConflict(t *testing.T) {
	creds := map[string]string{"username": "reg_user", "password": "pw123456"}

	w := doJSON(t, http.MethodPost, "/api/register", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "User registered successfully", body["message"])

	w = doJSON(t, http.MethodPost, "/api/register", creds)
	require.Equal(t, http.StatusConflict, w.Code)
	decodeBody(t, w, &body)
	assert.Equal(t, "Username already exists", body["error"])
}

func TestLogin(t *testing.T) {
	register := map[string]string{"username": "login_user", "password": "pw123456"}
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, "/api/register", register).Code)

	w := doJSON(t, http.MethodPost, "/api/login", register)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "Login successful", body["message"])

	// Wrong password and unknown username fail identically.
	wrongPW := doJSON(t, http.MethodPost, "/api/login",
		map[string]string{"username": "login_user", "password": "nope"})
	unknown := doJSON(t, http.MethodPost, "/api/login",
		map[string]string{"username": "ghost", "password": "nope"})

	assert.Equal(t, http.StatusBadRequest, wrongPW.Code)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, wrongPW.Body.String(), unknown.Body.String())
}

func TestCreateAndListDowntime(t *testing.T) {
	payload := map[string]string{
		"username": "lister",
		"clockIn":  "2025-03-01T09:00:00Z",
		"clockOut": "2025-03-01T10:30:00Z",
		"notes":    "fiber cut",
	}
	w := doJSON(t, http.MethodPost, "/api/downtime", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.DowntimeEntry
	decodeBody(t, w, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "lister", created.Username)
	require.NotNil(t, created.Notes)
	assert.Equal(t, "fiber cut", *created.Notes)

	w = doJSON(t, http.MethodGet, "/api/downtime?username=lister", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.DowntimeEntry
	decodeBody(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, created.ID, entries[0].ID)

	// Another username does not see the entry.
	w = doJSON(t, http.MethodGet, "/api/downtime?username=someone_else", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &entries)
	assert.Empty(t, entries)
}

func TestCreateDowntimeAcceptsDatetimeLocal(t *testing.T) {
	payload := map[string]string{
		"username": "localtime",
		"clockIn":  "2025-03-01T09:00",
	}
	w := doJSON(t, http.MethodPost, "/api/downtime", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.DowntimeEntry
	decodeBody(t, w, &created)
	assert.Nil(t, created.ClockOut)
	assert.Equal(t, 9, created.ClockIn.Hour())
}

func TestCreateDowntimeMissingClockIn(t *testing.T) {
	w := doJSON(t, http.MethodPost, "/api/downtime", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateDowntime(t *testing.T) {
	create := map[string]string{
		"username": "updater",
		"clockIn":  "2025-03-02T08:00:00Z",
	}
	w := doJSON(t, http.MethodPost, "/api/downtime", create)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.DowntimeEntry
	decodeBody(t, w, &created)

	patch := map[string]string{"clockOut": "2025-03-02T09:15:00Z"}
	w = doJSON(t, http.MethodPut, "/api/downtime/"+itoa(created.ID), patch)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.DowntimeEntry
	decodeBody(t, w, &updated)
	require.NotNil(t, updated.ClockOut)
	assert.True(t, updated.ClockIn.Equal(created.ClockIn))
	assert.Equal(t, "updater", updated.Username)
}

func TestUpdateDowntimeNotFound(t *testing.T) {
	w := doJSON(t, http.MethodPut, "/api/downtime/999999", map[string]string{"notes": "x"})
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "Entry not found", body["error"])

	// Non-numeric ids behave like missing rows.
	w = doJSON(t, http.MethodPut, "/api/downtime/abc", map[string]string{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDowntime(t *testing.T) {
	create := map[string]string{
		"username": "deleter",
		"clockIn":  "2025-03-03T08:00:00Z",
	}
	w := doJSON(t, http.MethodPost, "/api/downtime", create)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.DowntimeEntry
	decodeBody(t, w, &created)

	w = doJSON(t, http.MethodDelete, "/api/downtime/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "Entry deleted", body["message"])

	w = doJSON(t, http.MethodDelete, "/api/downtime/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/downtime", nil)
	req.Header.Set("Origin", testOrigin)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))

	// An unexpected origin gets no CORS grant.
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func itoa(id int) string {
	return strconv.Itoa(id)
}
