package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/coaching-plans-api/internal/database"
	"github.com/yukikurage/coaching-plans-api/internal/repository"
	"github.com/yukikurage/coaching-plans-api/internal/services"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	authService *services.AuthService
	planService *services.PlanService
}

func setupTestEnv(t *testing.T, configure ...func(*RouterDeps)) testEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		database.Close(db)
	})

	authService := services.NewAuthService(repository.NewUserRepository(db), "test-secret", time.Hour)
	planService := services.NewPlanService(repository.NewPlanRepository(db))

	deps := RouterDeps{
		DB:                db,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		SessionStore:      cookie.NewStore([]byte("test-session-secret")),
		AuthService:       authService,
		PlanService:       planService,
		FrontendURL:       "http://frontend.test",
		ChatRatePerMinute: 600,
	}
	for _, fn := range configure {
		fn(&deps)
	}

	return testEnv{
		db:          db,
		router:      SetupRouter(deps),
		authService: authService,
		planService: planService,
	}
}

func (env testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env testEnv) signup(t *testing.T, email string) string {
	t.Helper()

	_, token, err := env.authService.Signup(context.Background(), services.SignupInput{
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// stubModel answers prompts from a fixed script.
type stubModel struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (m *stubModel) Generate(_ context.Context, prompt string, _ services.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", services.ErrEmptyCompletion
	}
	next := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return next, nil
}

func withChatModel(model services.LanguageModel) func(*RouterDeps) {
	return func(deps *RouterDeps) {
		ai := services.NewAIService(model, services.RetryConfig{
			MaxAttempts:       1,
			InitialBackoff:    time.Millisecond,
			BackoffMultiplier: 1,
			Timeout:           time.Second,
		}, 1)
		deps.ChatService = services.NewChatService(services.NewKeywordClassifier(), ai, deps.PlanService)
	}
}

func withAuthRequired(deps *RouterDeps) {
	deps.AuthRequired = true
}
