package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"factory-erp/internal/account"
	"factory-erp/internal/audit"
	"factory-erp/internal/auth"
	"factory-erp/internal/config"
	"factory-erp/internal/httpapi"
	"factory-erp/internal/users"
	"factory-erp/pkg/logger"
	"factory-erp/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
	})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := users.EnsureSchema(rootCtx, db); err != nil {
		log.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Audit sink: Kafka when brokers are configured, the process log otherwise.
	var auditRepo audit.Repository = audit.NewLogRepo(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kr := audit.NewKafkaRepo(audit.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic))
		defer func() {
			if err := kr.Close(); err != nil {
				log.Error("kafka writer close failed", "err", err)
			}
		}()
		auditRepo = kr
		log.Info("audit events published to kafka", "topic", cfg.Kafka.AuditTopic)
	}

	userRepo := users.NewPostgresRepo(db)
	sessions := auth.NewRedisSessionStore(rdb)
	accounts := account.NewService(userRepo, tokens, sessions,
		account.WithLimiter(account.NewRedisLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.AttemptWindow)),
		account.WithAudit(audit.NewService(auditRepo)),
	)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/healthz"))

	registerRoutes(r, routeDeps{
		handlers: httpapi.Handlers{
			Account:       accounts,
			Tokens:        tokens,
			SecureCookies: cfg.Auth.SecureCookies,
			Checks: map[string]func(context.Context) error{
				"postgres": func(ctx context.Context) error { return utils.HealthCheck(ctx, db, time.Second) },
				"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			},
		},
		tokens:   tokens,
		sessions: sessions,
		users:    userRepo,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
