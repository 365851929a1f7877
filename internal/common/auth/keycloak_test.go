package auth

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raphael-assistant/internal/common/errors"
)

func introspectionServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realms/raphael/protocol/openid-connect/token/introspect", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "good-token", r.PostForm.Get("token"))
		assert.Equal(t, "assistant", r.PostForm.Get("client_id"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantSub   string
		wantErr   bool
		retryable bool
	}{
		{
			name:    "active token",
			status:  http.StatusOK,
			body:    `{"active":true,"sub":"user-42","username":"ada","aud":"account"}`,
			wantSub: "user-42",
		},
		{
			name:    "inactive token",
			status:  http.StatusOK,
			body:    `{"active":false}`,
			wantErr: true,
		},
		{
			name:    "missing subject",
			status:  http.StatusOK,
			body:    `{"active":true}`,
			wantErr: true,
		},
		{
			name:      "keycloak down",
			status:    http.StatusServiceUnavailable,
			body:      `unavailable`,
			wantErr:   true,
			retryable: true,
		},
		{
			name:    "garbage body",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := introspectionServer(t, tt.status, tt.body)
			client := NewKeycloakClient(srv.URL+"/", "raphael", "assistant", "secret")

			info, err := client.ValidateToken(context.Background(), "good-token")
			if tt.wantErr {
				require.Error(t, err)
				var stdErr *errors.StandardError
				require.True(t, stderrors.As(err, &stdErr))
				assert.Equal(t, errors.ErrCodeAuthenticationFailed, stdErr.Code)
				assert.Equal(t, tt.retryable, stdErr.Retryable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, info.Sub)
		})
	}
}

func TestValidateToken_Empty(t *testing.T) {
	client := NewKeycloakClient("http://127.0.0.1:1", "raphael", "assistant", "secret")
	_, err := client.ValidateToken(context.Background(), "")
	require.Error(t, err)
}

func TestStaticVerifier(t *testing.T) {
	info, err := StaticVerifier{UserID: "test_user_123"}.ValidateToken(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "test_user_123", info.Sub)
	assert.True(t, info.Active)
}
