package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/coaching-plans-api/internal/config"
	"github.com/yukikurage/coaching-plans-api/internal/database"
	"github.com/yukikurage/coaching-plans-api/internal/handlers"
	"github.com/yukikurage/coaching-plans-api/internal/middleware"
	"github.com/yukikurage/coaching-plans-api/internal/repository"
	"github.com/yukikurage/coaching-plans-api/internal/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", slog.String("error", err.Error()))
		}
	}()

	if err := database.Migrate(db); err != nil {
		return err
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}

	// Repositories and services
	planService := services.NewPlanService(repository.NewPlanRepository(db))
	authService := services.NewAuthService(repository.NewUserRepository(db), cfg.JWTSecret, cfg.JWTExpiry)

	var chatService *services.ChatService
	model, err := services.NewLanguageModel(cfg.LLMProvider, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.AnthropicAPIKey, cfg.AnthropicModel)
	if err != nil {
		return fmt.Errorf("failed to configure language model: %w", err)
	}
	if model != nil {
		retry := services.DefaultRetryConfig()
		retry.Timeout = cfg.LLMTimeout
		aiService := services.NewAIService(model, retry, cfg.LLMMaxConcurrent)
		chatService = services.NewChatService(services.NewKeywordClassifier(), aiService, planService)
	} else {
		logger.Warn("No language model API key configured, chat is disabled", slog.String("provider", cfg.LLMProvider))
	}

	var oauthService *services.OAuthService
	if cfg.GoogleOAuthEnabled() {
		provider := services.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthCallbackURL)
		oauthService = services.NewOAuthService(provider, authService)
	}

	if !cfg.AuthRequired {
		logger.Warn("AUTH_REQUIRED is false: anonymous callers share all plans without an owner")
	}

	router := handlers.SetupRouter(handlers.RouterDeps{
		DB:                db,
		Logger:            logger,
		SessionStore:      store,
		AuthService:       authService,
		PlanService:       planService,
		ChatService:       chatService,
		OAuthService:      oauthService,
		AuthRequired:      cfg.AuthRequired,
		FrontendURL:       cfg.FrontendURL,
		ChatRatePerMinute: cfg.ChatRatePerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.CORSOrigins)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Chat requests may spend several model attempts.
		WriteTimeout: 4*cfg.LLMTimeout + 10*time.Second,
		IdleTimeout:  time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr), slog.Bool("chat_enabled", chatService != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("Shutting down server", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	options := sessions.Options{
		Path:     "/",
		MaxAge:   600, // only carries the OAuth state
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	if addr := cfg.RedisAddr(); addr != "" {
		store, err := redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			addr,
			"", // username (empty for default user)
			"", // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store.Options(options)
		return store, nil
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(options)
	return store, nil
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
