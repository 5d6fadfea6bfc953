package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"contacts_backend/internal/app/di"
	"contacts_backend/internal/app/router"
	"contacts_backend/internal/config"
	authhandler "contacts_backend/internal/feature/auth/transport/handler"
	authusecase "contacts_backend/internal/feature/auth/usecase"
	contactadapters "contacts_backend/internal/feature/contacts/adapters"
	contacthandler "contacts_backend/internal/feature/contacts/transport/handler"
	contactusecase "contacts_backend/internal/feature/contacts/usecase"
	usershandler "contacts_backend/internal/feature/users/transport/handler"
	usersusecase "contacts_backend/internal/feature/users/usecase"
	infradb "contacts_backend/internal/platform/db"
	"contacts_backend/internal/platform/gravatar"
	jwtmw "contacts_backend/internal/platform/jwt"
	"contacts_backend/internal/platform/logger"
	"contacts_backend/internal/platform/mail"
	"contacts_backend/internal/platform/metrics"
	"contacts_backend/internal/platform/migrate"
	"contacts_backend/internal/platform/password"
	"contacts_backend/internal/platform/ratelimit"
	infraredis "contacts_backend/internal/platform/redis"
	"contacts_backend/internal/platform/tasks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(logger.Options{Service: "contacts-api", Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.OpenDB(cfg.DB)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()
	if cfg.App.RunMigrations {
		if err := migrate.Run(ctx, sqlDB, "up"); err != nil {
			return err
		}
	}

	// Redis
	var rdb *redis.Client
	if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
		slog.Warn("Redis unavailable, running without cache and rate limits", "error", err)
	} else if tmp != nil {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// services
	m := metrics.New()
	tokens, err := jwtmw.NewService(jwtmw.Config{
		Secret:     cfg.JWT.Secret,
		Algorithm:  cfg.JWT.Algorithm,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		EmailTTL:   cfg.JWT.EmailTTL,
	})
	if err != nil {
		return err
	}
	queue := tasks.NewQueue(tasks.Options{Workers: cfg.Tasks.Workers, Size: cfg.Tasks.QueueSize, Timeout: cfg.Tasks.Timeout})
	sender, err := di.NewMailSender(cfg.Mail)
	if err != nil {
		return err
	}
	notifier, err := mail.NewDispatcher(sender, tokens, queue, m)
	if err != nil {
		return err
	}
	avatars, err := di.NewAvatarStore(ctx, cfg.S3)
	if err != nil {
		return err
	}

	// Repository
	// Redisキャッシュでラップ
	userRepo := di.NewUserRepository(rdb, db, cfg.Redis.UserTTL)
	contactRepo := contactadapters.NewContactGorm(db)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, tokens, password.NewHasher(0), notifier, gravatar.URL)
	contactUC := contactusecase.NewContactUsecase(contactRepo, contactusecase.EmailPolicy(cfg.Contacts.EmailUniqueness))
	userUC := usersusecase.NewUserUsecase(userRepo, avatars)

	// Handler・ルータ生成
	engine := router.NewRouter(router.Handlers{
		Auth:     authhandler.NewAuthHandler(authUC, cfg.App.BaseURL),
		Contacts: contacthandler.NewContactHandler(contactUC),
		Users:    usershandler.NewUserHandler(userUC),
	}, router.Options{
		CORSOrigins:   cfg.App.CORSOrigins,
		Authenticator: authUC,
		Limiter:       ratelimit.New(rdb, m),
		ListPolicy:    ratelimit.Policy{Name: "list_contacts", Limit: int64(cfg.RateLimit.ListLimit), Window: cfg.RateLimit.ListWindow},
		CreatePolicy:  ratelimit.Policy{Name: "create_contact", Limit: int64(cfg.RateLimit.CreateLimit), Window: cfg.RateLimit.CreateWindow},
		Metrics:       m,
		DB:            db,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// グレースフルシャットダウン（実行中のメール送信タスクも待つ）
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		slog.Error("task queue drain failed", "error", err)
	}
	return nil
}
