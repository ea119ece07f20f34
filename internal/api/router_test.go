package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbtrap-lab/internal/api/handlers"
	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/services"
	"orbtrap-lab/pkg/logger"
)

const testAPIKey = "sk_test_123456789"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewDefault()

	cfg := config.Config{
		App:  config.AppConfig{Name: "orbtrap-lab", Version: "0.1.0"},
		Auth: config.AuthConfig{APIKey: testAPIKey},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "x-api-key"},
		},
		Callback: config.CallbackConfig{URL: "http://127.0.0.1:1/unused", Timeout: time.Second},
		Dialogue: config.DefaultDialogue(),
	}

	patterns := services.NewPatternDB()
	dispatcher := services.NewReportDispatcher(cfg.Callback, nil, nil, nil, log)
	engine := services.NewHoneypotEngine(
		services.NewSessionStore(config.SessionsConfig{ShardCount: 8}, log),
		services.NewIntentClassifier(patterns, config.DefaultDetection(), log),
		services.NewIntelligenceExtractor(patterns),
		services.NewDialogueEngine(cfg.Dialogue, log),
		dispatcher,
		nil,
		nil,
		cfg.Dialogue,
		log,
	)

	h := handlers.NewHandlers(cfg, engine, patterns, nil, log)
	return NewRouter(cfg, h, nil, log).Setup()
}

func postJSON(router http.Handler, path, apiKey, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMessageRequiresAPIKey(t *testing.T) {
	router := newTestRouter(t)

	body := `{"sessionId":"s1","message":{"sender":"scammer","text":"hello"}}`

	rec := postJSON(router, "/api/v1/honeypot/message", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Invalid API key or malformed request"}`, rec.Body.String())

	rec = postJSON(router, "/api/v1/honeypot/message", "wrong-key", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMessageHappyPath(t *testing.T) {
	router := newTestRouter(t)

	body := `{"sessionId":"s1","message":{"sender":"scammer","text":"Your account is blocked, verify now"}}`
	rec := postJSON(router, "/api/v1/honeypot/message", testAPIKey, body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"success"`)
	assert.Contains(t, rec.Body.String(), `"reply"`)
}

func TestMessageValidation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing sessionId", `{"message":{"sender":"scammer","text":"hi"}}`},
		{"missing message", `{"sessionId":"s1"}`},
		{"missing text", `{"sessionId":"s1","message":{"sender":"scammer"}}`},
		{"missing sender", `{"sessionId":"s1","message":{"text":"hi"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(router, "/api/v1/honeypot/message", testAPIKey, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"status":"error"`)
		})
	}
}

func TestSessionInspection(t *testing.T) {
	router := newTestRouter(t)

	body := `{"sessionId":"inspect-me","message":{"sender":"scammer","text":"verify your account"}}`
	require.Equal(t, http.StatusOK, postJSON(router, "/api/v1/honeypot/message", testAPIKey, body).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/honeypot/sessions/inspect-me", nil)
	req.Header.Set("x-api-key", testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessionId":"inspect-me"`)
	assert.Contains(t, rec.Body.String(), `"stage":"engaged"`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/honeypot/sessions/ghost", nil)
	req.Header.Set("x-api-key", testAPIKey)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatternsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/honeypot/patterns", nil)
	req.Header.Set("x-api-key", testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"urgency"`)
	assert.Contains(t, rec.Body.String(), `"impersonation"`)
}

func TestHealthIsPublic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"active_sessions"`)
}

func TestMessageRejectsNonJSONContentType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/honeypot/message",
		strings.NewReader(`sessionId=s1`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("x-api-key", testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/honeypot/stats", nil)
	req.Header.Set("x-api-key", testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_sessions"`)
}

func TestCallbackUnknownSession(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(router, "/api/v1/honeypot/callback", testAPIKey, `{"sessionId":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
