package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raphael-assistant/internal/common/auth"
	"raphael-assistant/internal/common/database"
	"raphael-assistant/internal/common/errors"
	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/pipeline"
	"raphael-assistant/internal/pipeline/classifier"
	"raphael-assistant/internal/pipeline/dispatcher"
	"raphael-assistant/internal/services/calendar"
	"raphael-assistant/internal/services/genai"
	"raphael-assistant/internal/services/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenVerifier map[string]string

func (v tokenVerifier) ValidateToken(_ context.Context, token string) (*auth.TokenInfo, error) {
	sub, ok := v[token]
	if !ok {
		return nil, errors.NewAuthenticationError("unknown token")
	}
	return &auth.TokenInfo{Active: true, Sub: sub}, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, store storage.Store, verifier auth.TokenVerifier, health map[string]database.Pinger) *gin.Engine {
	t.Helper()
	log := logger.NewTestLogger(t)
	repo := storage.NewRepository(store, nil)
	disp := dispatcher.New(repo, calendar.Unavailable{}, dispatcher.DefaultConfig(), log)
	p := pipeline.New(classifier.New(), disp, genai.Static{Text: "Here you go."}, log)
	svc := pipeline.NewService(p, repo, pipeline.DefaultServiceConfig(), log)

	return NewRouter(Deps{
		Service:        svc,
		Verifier:       verifier,
		Health:         health,
		Logger:         log,
		RequestTimeout: 5 * time.Second,
	})
}

func do(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, storage.NewMemoryStore(), auth.StaticVerifier{UserID: "test_user_123"}, nil)

	w := do(router, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestChat(t *testing.T) {
	router := newTestRouter(t, storage.NewMemoryStore(), auth.StaticVerifier{UserID: "test_user_123"}, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		wantIntent string
	}{
		{"calculation", `{"message":"2+2"}`, http.StatusOK, "", "calculate"},
		{"general", `{"message":"hello there"}`, http.StatusOK, "", "general"},
		{"empty message", `{"message":"   "}`, http.StatusBadRequest, "Message is required", ""},
		{"missing message", `{}`, http.StatusBadRequest, "Message is required", ""},
		{"wrong type", `{"message":42}`, http.StatusBadRequest, "Invalid request", ""},
		{"not json", `nope`, http.StatusBadRequest, "No request data provided", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/chat", tt.body, nil)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decode(t, w)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}
			assert.Equal(t, tt.wantIntent, body["intent"])
			assert.Equal(t, "test_user_123", body["user_id"])
		})
	}
}

func TestChat_ResponseText(t *testing.T) {
	router := newTestRouter(t, storage.NewMemoryStore(), auth.StaticVerifier{UserID: "test_user_123"}, nil)

	w := do(router, http.MethodPost, "/chat", `{"message":"What is 15% of 200?"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Here you go.\n🔢 The result is: 30", decode(t, w)["message"])
}

func TestChat_Authentication(t *testing.T) {
	router := newTestRouter(t, storage.NewMemoryStore(), tokenVerifier{"good": "user-7"}, nil)

	tests := []struct {
		name       string
		body       string
		headers    map[string]string
		wantStatus int
		wantUser   string
		wantError  string
	}{
		{"bearer header", `{"message":"hi"}`, map[string]string{"Authorization": "Bearer good"}, http.StatusOK, "user-7", ""},
		{"lowercase scheme", `{"message":"hi"}`, map[string]string{"Authorization": "bearer good"}, http.StatusOK, "user-7", ""},
		{"id token in body", `{"message":"hi","idToken":"good"}`, nil, http.StatusOK, "user-7", ""},
		{"no token", `{"message":"hi"}`, nil, http.StatusUnauthorized, "", "No ID token provided"},
		{"bad token", `{"message":"hi"}`, map[string]string{"Authorization": "Bearer bad"}, http.StatusUnauthorized, "", "Invalid ID token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/chat", tt.body, tt.headers)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decode(t, w)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}
			assert.Equal(t, tt.wantUser, body["user_id"])
		})
	}
}

func TestUserData(t *testing.T) {
	router := newTestRouter(t, storage.NewMemoryStore(), auth.StaticVerifier{UserID: "test_user_123"}, nil)

	w := do(router, http.MethodPost, "/chat", `{"message":"remember my name is Ada"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/user-data", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "test_user_123", body["user_id"])
	assert.Equal(t, float64(1), body["memories_count"])
	assert.Equal(t, []interface{}{"remember my name is Ada"}, body["recent_memories"])
	assert.Equal(t, "No budget information available", body["budget"])
}

type brokenStore struct{ storage.Store }

func (brokenStore) Query(context.Context, string, string, storage.QueryOptions) ([]storage.Record, error) {
	return nil, storage.ErrQueryFailed
}

func TestUserData_StorageFailure(t *testing.T) {
	router := newTestRouter(t, brokenStore{storage.NewMemoryStore()}, auth.StaticVerifier{UserID: "u"}, nil)

	w := do(router, http.MethodGet, "/user-data", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["error"])
}

func TestReady(t *testing.T) {
	healthy := newTestRouter(t, storage.NewMemoryStore(), auth.StaticVerifier{UserID: "u"},
		map[string]database.Pinger{"postgres": pinger{}, "redis": pinger{}})
	w := do(healthy, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	broken := newTestRouter(t, storage.NewMemoryStore(), auth.StaticVerifier{UserID: "u"},
		map[string]database.Pinger{"postgres": pinger{}, "redis": pinger{err: stderrors.New("connection refused")}})
	w = do(broken, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	components := decode(t, w)["components"].(map[string]interface{})
	assert.Equal(t, "ok", components["postgres"])
	assert.Equal(t, "connection refused", components["redis"])
}

func TestMetrics(t *testing.T) {
	router := newTestRouter(t, storage.NewMemoryStore(), auth.StaticVerifier{UserID: "u"}, nil)

	do(router, http.MethodPost, "/chat", `{"message":"2+2"}`, nil)
	w := do(router, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "assistant_turns_total")
}
