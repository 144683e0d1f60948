package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/coaching-plans-api/internal/dto"
	apierrors "github.com/yukikurage/coaching-plans-api/internal/errors"
	"github.com/yukikurage/coaching-plans-api/internal/services"
)

func TestAuthHandler_Signup(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "newuser@example.com",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	response := decode[dto.AuthResponse](t, w)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, "newuser@example.com", response.User.Email)
	assert.Equal(t, "newuser", response.User.Name)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "NewUser@example.com",
		"password": "supersecret",
	}, "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already in use", decode[apierrors.APIError](t, w).Message)
}

func TestAuthHandler_SignupValidation(t *testing.T) {
	env := setupTestEnv(t)

	cases := map[string]map[string]string{
		"missing email":  {"password": "supersecret"},
		"invalid email":  {"email": "nope", "password": "supersecret"},
		"short password": {"email": "a@example.com", "password": "short"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/auth/signup", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthHandler_LoginAndMe(t *testing.T) {
	env := setupTestEnv(t)
	env.signup(t, "existing@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[dto.AuthResponse](t, w)

	w = env.do(t, http.MethodGet, "/api/auth/me", nil, login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[dto.UserDTO](t, w)
	assert.Equal(t, login.User.ID, me.ID)

	w = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "wrong-password",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeInvalidCredentials, decode[apierrors.APIError](t, w).Code)

	w = env.do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/me", nil, login.Token+"tampered")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// fakeOAuthProvider accepts a single code.
type fakeOAuthProvider struct {
	code string
	info services.OAuthUserInfo
}

func (p *fakeOAuthProvider) Name() string { return "google" }

func (p *fakeOAuthProvider) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + url.QueryEscape(state)
}

func (p *fakeOAuthProvider) FetchUser(_ context.Context, code string) (*services.OAuthUserInfo, error) {
	if code != p.code {
		return nil, errors.New("invalid_grant")
	}
	info := p.info
	return &info, nil
}

func withFakeGoogle(deps *RouterDeps) {
	provider := &fakeOAuthProvider{
		code: "good-code",
		info: services.OAuthUserInfo{ID: "g-7", Email: "oauth@example.com", Name: "OAuth User"},
	}
	deps.OAuthService = services.NewOAuthService(provider, deps.AuthService)
}

// startGoogleLogin returns the issued state and the session cookies.
func startGoogleLogin(t *testing.T, env testEnv) (string, []*http.Cookie) {
	t.Helper()

	w := env.do(t, http.MethodGet, "/api/auth/google", nil, "")
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	return state, w.Result().Cookies()
}

func callback(env testEnv, query string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?"+query, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_GoogleCallback(t *testing.T) {
	env := setupTestEnv(t, withFakeGoogle)
	state, cookies := startGoogleLogin(t, env)

	w := callback(env, "state="+state+"&code=good-code", cookies)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "http://frontend.test/oauth-success?token="), location)

	redirect, err := url.Parse(location)
	require.NoError(t, err)
	claims, err := env.authService.ParseToken(redirect.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "oauth@example.com", claims.Email)
}

func TestAuthHandler_GoogleCallback_Failures(t *testing.T) {
	env := setupTestEnv(t, withFakeGoogle)

	t.Run("state mismatch", func(t *testing.T) {
		_, cookies := startGoogleLogin(t, env)
		w := callback(env, "state=forged&code=good-code", cookies)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no session", func(t *testing.T) {
		state, _ := startGoogleLogin(t, env)
		w := callback(env, "state="+state+"&code=good-code", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("exchange failure", func(t *testing.T) {
		state, cookies := startGoogleLogin(t, env)
		w := callback(env, "state="+state+"&code=bad-code", cookies)
		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, apierrors.ErrCodeUpstreamError, decode[apierrors.APIError](t, w).Code)
	})
}

func TestAuthHandler_GoogleNotConfigured(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/auth/google", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
