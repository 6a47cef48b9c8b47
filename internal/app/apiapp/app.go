package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/havihaviplants/gnom-backend/internal/config"
	"github.com/havihaviplants/gnom-backend/internal/infra/openai"
	pgrepo "github.com/havihaviplants/gnom-backend/internal/repo/postgres"
	redrepo "github.com/havihaviplants/gnom-backend/internal/repo/redis"
	analyzesvc "github.com/havihaviplants/gnom-backend/internal/services/analyze"
	iapsvc "github.com/havihaviplants/gnom-backend/internal/services/iap"
	licensesvc "github.com/havihaviplants/gnom-backend/internal/services/license"
	promptsvc "github.com/havihaviplants/gnom-backend/internal/services/prompts"
	ratesvc "github.com/havihaviplants/gnom-backend/internal/services/rate"
	rewardsvc "github.com/havihaviplants/gnom-backend/internal/services/reward"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	redis      *goredis.Client
	postgres   *pgxpool.Pool
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	licenseRepo := redrepo.NewLicenseRepo(redisClient)
	dailyRepo := redrepo.NewDailyRepo(redisClient)
	shareRepo := redrepo.NewShareRepo(redisClient)

	var pool *pgxpool.Pool
	if cfg.Postgres.DSN != "" {
		if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
			log.Warn("postgres init failed, continuing without purchase audit", zap.Error(err))
		} else {
			pool = p
		}
	}

	licenseService := licensesvc.NewService(licenseRepo, licensesvc.Config{
		FreeCredits: cfg.License.FreeCredits,
	})
	rewardService := rewardsvc.NewService(shareRepo, dailyRepo, licenseService, rewardsvc.Config{
		DailyLimit:   cfg.Share.DailyLimit,
		RewardAmount: cfg.Share.RewardAmount,
		TokenTTL:     cfg.Share.TokenTTL,
		BaseURL:      cfg.Share.BaseURL,
		StoreURL:     cfg.Share.StoreURL,
	})
	rateLimiter := ratesvc.NewLimiter(dailyRepo, ratesvc.Config{
		DailyLimit: cfg.Analyze.DailyLimit,
		Enabled:    cfg.Analyze.LimitEnabled,
	})
	iapService := iapsvc.NewService(licenseService, iapsvc.Config{
		PassDays: cfg.License.PassDays,
	})
	if pool != nil {
		iapService.AttachAudit(pgrepo.NewPurchaseRepo(pool))
	}

	promptLoader := promptsvc.NewLoader(cfg.Prompts.Dir)
	generator := openai.NewClient(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		BaseURL:     cfg.OpenAI.BaseURL,
		Timeout:     cfg.OpenAI.Timeout,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	}, promptLoader)
	analyzeService := analyzesvc.NewService(generator, rateLimiter)

	RegisterRoutes(r, Dependencies{
		AnalyzeService: analyzeService,
		LicenseService: licenseService,
		RewardService:  rewardService,
		IAPService:     iapService,
		Logger:         log,
		Config:         cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		redis:      redisClient,
		postgres:   pool,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
