package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"resume-agent/internal/config"
	"resume-agent/internal/db"
	"resume-agent/internal/document"
	apihttp "resume-agent/internal/http"
	"resume-agent/internal/llm"
	"resume-agent/internal/logging"
	"resume-agent/internal/repository"
	"resume-agent/internal/service"
	"resume-agent/internal/storage"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.Debug, cfg.LogFile)
	defer logger.Sync()

	if cfg.AnthropicAPIKey == "" {
		logger.Warn("ANTHROPIC_API_KEY not configured; LLM calls will fail")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	sessionRepo, closeRepo, err := newSessionRepository(ctx, cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("session store init", zap.String("backend", cfg.SessionBackend), zap.Error(err))
	}
	defer closeRepo()

	var archive service.UploadArchiver
	if cfg.ArchiveEndpoint != "" {
		minioArchive, err := storage.NewMinIOArchive(ctx, cfg)
		if err != nil {
			logger.Warn("upload archive disabled", zap.Error(err))
		} else {
			archive = minioArchive
		}
	}

	llmClient := llm.NewAnthropicClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.LLMModel, cfg.MaxTokens, cfg.LLMTimeout, logger)
	agent := service.NewResumeAgent(llmClient)
	sessionSvc := service.NewResumeSessionService(sessionRepo, document.FileExtractor{}, agent, service.NewPhraseDetector(), archive, logger)

	var jwtSvc *service.JWTService
	if cfg.APIJWTSecret != "" {
		jwtSvc = service.NewJWTService(cfg.APIJWTSecret, 0)
	}

	var limiter service.RateLimiter
	if cfg.RateLimitRPM > 0 {
		limiter = service.NewMemoryRateLimiter(time.Minute, cfg.RateLimitRPM)
		if redisClient != nil {
			limiter = service.NewRedisRateLimiter(redisClient, time.Minute, cfg.RateLimitRPM)
		}
	}

	resumeHandler := apihttp.NewResumeHandler(logger, sessionSvc, cfg.MaxUploadBytes)
	router := apihttp.NewRouter(logger, resumeHandler, jwtSvc, limiter, cfg.CORSOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("session_backend", cfg.SessionBackend),
			zap.String("model", cfg.LLMModel),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newSessionRepository elige el store segun SESSION_BACKEND y devuelve su funcion de cierre.
func newSessionRepository(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (repository.ResumeSessionRepository, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			return nil, nil, err
		}
		return repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL), func() {}, nil

	case config.SessionBackendPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewPgSessionRepository(pool), pool.Close, nil

	default:
		if cfg.SessionTTL == 0 && cfg.SessionMax == 0 {
			logger.Info("in-memory session store without ttl or capacity limit")
		}
		return repository.NewMemorySessionRepository(cfg.SessionTTL, cfg.SessionMax), func() {}, nil
	}
}
