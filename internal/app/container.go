package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kapu/dmmymp-go/internal/config"
	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/server"
	"github.com/kapu/dmmymp-go/internal/service/ai"
	"github.com/kapu/dmmymp-go/internal/service/cache"
	"github.com/kapu/dmmymp-go/internal/service/database"
	"github.com/kapu/dmmymp-go/internal/service/drafting"
	"github.com/kapu/dmmymp-go/internal/service/engagement"
	"github.com/kapu/dmmymp-go/internal/service/letters"
	"github.com/kapu/dmmymp-go/internal/service/postcode"
	"github.com/kapu/dmmymp-go/internal/service/recaptcha"
	"github.com/kapu/dmmymp-go/internal/service/representative"
	"github.com/kapu/dmmymp-go/internal/service/stats"
	"github.com/kapu/dmmymp-go/internal/service/twfy"
	"github.com/kapu/dmmymp-go/internal/service/warmup"
	"go.uber.org/zap"
)

// Container bundles the assembled services.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Cache           *cache.CacheService
	Postgres        *database.PostgresService
	TWFY            *twfy.Client
	Representatives *representative.Resolver
	Profiles        *stats.Service
	Letters         *letters.Repository
	Models          *ai.ModelManager
	Warmer          *warmup.Warmer

	limiter server.Limiter
	captcha *recaptcha.Verifier
	tidy    *drafting.TidyService
	suggest *drafting.SuggestionService

	closers []func()
}

// Build assembles all infrastructure services. On error everything opened so
// far is closed again.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	// Cache
	var profileStore stats.Store
	var repStore representative.Store
	if cfg.Redis.Enabled {
		cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		c.closers = append(c.closers, func() { _ = cacheSvc.Close() })
		c.Cache = cacheSvc
		c.limiter = cacheSvc
		profileStore = cacheSvc
		repStore = cacheSvc
	} else {
		logger.Warn("Redis disabled; using in-process caches and rate limits")
		c.limiter = cache.NewMemoryWindow(10_000, cfg.RateLimit.Window)
	}

	// Database
	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres service: %w", err)
	}
	c.closers = append(c.closers, func() { _ = postgresSvc.Close() })
	c.Postgres = postgresSvc

	c.Letters = letters.NewRepository(postgresSvc.Gorm(), logger)
	if err := c.Letters.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate letters: %w", err)
	}

	// Parliamentary data
	c.TWFY = twfy.NewClient(&http.Client{Timeout: cfg.TWFY.Timeout}, cfg.TWFY.BaseURL, cfg.TWFY.APIKey, logger)
	postcodes := postcode.NewClient(&http.Client{}, cfg.Postcodes.BaseURL, cfg.Postcodes.Timeout, logger)
	c.Representatives = representative.NewResolver(postcodes, c.TWFY, repStore, logger)

	engine := engagement.NewEngine(c.TWFY, logger)
	c.Profiles = stats.NewService(engine, profileStore, stats.Options{
		TTL:       cfg.Cache.ProfileTTL,
		LocalSize: cfg.Cache.LocalSize,
		LocalTTL:  cfg.Cache.LocalTTL,
	}, logger)

	// AI stack
	c.Models, err = ai.NewModelManager(ctx, ai.ModelManagerConfig{
		MistralAPIKey:  cfg.Mistral.APIKey,
		MistralBaseURL: cfg.Mistral.BaseURL,
		MistralModel:   cfg.Mistral.Model,
		GeminiAPIKey:   cfg.Gemini.APIKey,
		GeminiModel:    cfg.Gemini.Model,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}
	c.tidy = drafting.NewTidyService(c.Models, logger)
	c.suggest = drafting.NewSuggestionService(c.Models, logger)

	c.captcha = recaptcha.NewVerifier(&http.Client{Timeout: constants.APIConfig.RecaptchaTimeout},
		constants.APIConfig.RecaptchaURL, cfg.Recaptcha.Secret, cfg.Recaptcha.MinScore, logger)
	if !c.captcha.Enabled() {
		logger.Warn("reCAPTCHA disabled (RECAPTCHA_SECRET_KEY not set)")
	}

	c.Warmer = warmup.NewWarmer(c.Letters, c.Representatives, c.Profiles, cfg.Warmup.TopN, logger)

	logger.Info("Application services assembled",
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("ai", c.Models.Enabled()),
		zap.Bool("recaptcha", c.captcha.Enabled()),
	)
	return c, nil
}

// Router builds the HTTP handler over the container's services.
func (c *Container) Router() (*gin.Engine, error) {
	pingers := map[string]server.Pinger{"postgres": c.Postgres}
	if c.Cache != nil {
		pingers["redis"] = c.Cache
	}

	return server.NewRouter(server.Services{
		Representatives: c.Representatives,
		Profiles:        c.Profiles,
		Tidy:            c.tidy,
		Suggestions:     c.suggest,
		Letters:         c.Letters,
		Captcha:         c.captcha,
		Limiter:         c.limiter,
		Pingers:         pingers,
	}, server.Options{
		RepresentativeLimit: c.Config.RateLimit.Representative,
		TidyLimit:           c.Config.RateLimit.Tidy,
		Window:              c.Config.RateLimit.Window,
		TrustedProxies:      c.Config.Server.TrustedProxies,
	}, c.Logger)
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
