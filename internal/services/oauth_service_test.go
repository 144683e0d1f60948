package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newGoogleTestServer(t *testing.T, userJSON string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(userJSON))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestGoogleProvider(server *httptest.Server) *GoogleProvider {
	provider := NewGoogleProvider("client-id", "client-secret", "http://api.example/")
	provider.config.Endpoint = oauth2.Endpoint{
		AuthURL:  server.URL + "/auth",
		TokenURL: server.URL + "/token",
	}
	provider.userInfoURL = server.URL + "/userinfo"
	return provider
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	provider := NewGoogleProvider("client-id", "client-secret", "http://api.example/")

	parsed, err := url.Parse(provider.AuthCodeURL("state-xyz"))
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "state-xyz", query.Get("state"))
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "http://api.example/api/auth/google/callback", query.Get("redirect_uri"))
}

func TestGoogleProvider_FetchUser(t *testing.T) {
	server := newGoogleTestServer(t, `{"id":"g-42","email":"sam@example.com","name":"Sam"}`)
	provider := newTestGoogleProvider(server)

	info, err := provider.FetchUser(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, &OAuthUserInfo{ID: "g-42", Email: "sam@example.com", Name: "Sam"}, info)

	_, err = provider.FetchUser(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestOAuthService_HandleCallback(t *testing.T) {
	server := newGoogleTestServer(t, `{"id":"g-42","email":"sam@example.com","name":"Sam"}`)
	auth := setupAuthService(t)
	svc := NewOAuthService(newTestGoogleProvider(server), auth)

	user, token, err := svc.HandleCallback(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", user.Email)
	assert.Equal(t, "Sam", user.Name)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	again, _, err := svc.HandleCallback(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	_, _, err = svc.HandleCallback(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrOAuthExchange)
}
