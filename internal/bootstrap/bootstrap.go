package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	httpadapter "github.com/tesfayh/ulss9-assistant/internal/adapters/http"
	"github.com/tesfayh/ulss9-assistant/internal/config"
	"github.com/tesfayh/ulss9-assistant/internal/core/usecase"
	"github.com/tesfayh/ulss9-assistant/internal/infrastructure/llm/gemini"
	"github.com/tesfayh/ulss9-assistant/internal/infrastructure/registry/jsonfile"
	"github.com/tesfayh/ulss9-assistant/internal/infrastructure/resilience"
	"github.com/tesfayh/ulss9-assistant/internal/infrastructure/storage/localfs"
	"github.com/tesfayh/ulss9-assistant/internal/observability/logging"
	"github.com/tesfayh/ulss9-assistant/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	RegistryUC *usecase.RegistryUseCase
	SelectorUC *usecase.SelectStoresUseCase
	ChatUC     *usecase.ChatUseCase
	AdminUC    *usecase.StoreAdminUseCase

	Status  *gemini.StatusReporter
	Metrics *metrics.HTTPServerMetrics
}

func New(cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	descriptions, err := jsonfile.New(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("init store registry: %w", err)
	}
	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init upload staging: %w", err)
	}

	provider := gemini.NewProvider(gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, logger)
	generator := gemini.NewGenerator(provider)

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.RetryMaxAttempts = cfg.ResilienceRetryMaxAttempts
	resilienceCfg.BreakerEnabled = cfg.ResilienceBreakerEnabled
	executor := resilience.NewExecutor(resilienceCfg)

	stores := gemini.NewStoreManager(provider, cfg.StorePrefix, executor, logger)

	registryUC := usecase.NewRegistryUseCase(descriptions, logger)
	selectorUC := usecase.NewSelectStoresUseCase(registryUC, generator, logger)
	chatUC := usecase.NewChatUseCase(stores, generator, generator, cfg.AllowEnglish, logger)
	adminUC := usecase.NewStoreAdminUseCase(stores, descriptions, storage, logger)

	return &App{
		Config:     cfg,
		Logger:     logger,
		RegistryUC: registryUC,
		SelectorUC: selectorUC,
		ChatUC:     chatUC,
		AdminUC:    adminUC,
		Status:     gemini.NewStatusReporter(provider, logger),
		Metrics:    metrics.NewHTTPServerMetrics(service),
	}, nil
}

// AuthConfig assembles the admin credential set for the HTTP layer.
func (a *App) AuthConfig() httpadapter.AuthConfig {
	return httpadapter.AuthConfig{
		Username:     a.Config.AdminUsername,
		PasswordHash: a.Config.AdminPasswordHash,
		JWTSecret:    a.Config.JWTSecret,
		TokenTTL:     time.Duration(a.Config.JWTExpireHours) * time.Hour,
	}
}

func (a *App) TrafficConfig() httpadapter.TrafficConfig {
	return httpadapter.TrafficConfig{
		RateLimitRPS:   a.Config.RateLimitRPS,
		RateLimitBurst: a.Config.RateLimitBurst,
		MaxInFlight:    a.Config.MaxInFlight,
	}
}
