package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"anoa.com/akademika/internal/bootstrap"
	"anoa.com/akademika/internal/config"
	"anoa.com/akademika/internal/modules/ai/provider"
	"anoa.com/akademika/internal/scheduler"
	"anoa.com/akademika/internal/server"
	"anoa.com/akademika/internal/session"
	"anoa.com/akademika/pkg/database"
	"anoa.com/akademika/pkg/logger"
	"anoa.com/akademika/pkg/mailer"
	"anoa.com/akademika/pkg/search"
	"anoa.com/akademika/pkg/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		DatabaseURL: cfg.DatabaseURL,
		Host:        cfg.DBHost,
		User:        cfg.DBUser,
		Password:    cfg.DBPassword,
		Name:        cfg.DBName,
		Port:        cfg.DBPort,

		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.IsDevelopment() && cfg.SeedAdminPassword != "" {
		if err := bootstrap.SeedAdminUser(db, cfg.SeedAdminPassword); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	var (
		redisClient *redis.Client
		store       session.Store = session.NewMemoryStore()
	)
	if cfg.RedisURL != "" {
		redisClient, err = database.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
		store = session.NewRedisStore(redisClient)
	} else {
		slog.Warn("REDIS_URL not set, sessions are kept in memory and live notifications are disabled")
	}

	sessions := session.NewManager(store, session.Options{
		Secret:  cfg.JWTSecret,
		IdleTTL: cfg.SessionTTL,
		MaxAge:  cfg.SessionMaxAge,
	})

	deps := server.Deps{
		Config:   cfg,
		DB:       db,
		Redis:    redisClient,
		Sessions: sessions,
		Mailer:   mailer.NewLogMailer(),
	}

	if cfg.SMTPHost != "" {
		deps.Mailer = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	if cfg.MeiliSearchHost != "" {
		deps.CourseIndex = search.NewMeiliCourseIndex(cfg.MeiliSearchHost, cfg.MeiliMasterKey)
	}

	fileStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryUploadFolder)
	if err != nil {
		slog.Warn("file storage disabled", "error", err)
	} else {
		deps.Storage = fileStorage
	}

	if cfg.GeminiAPIKey != "" {
		llm, err := provider.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Warn("AI provider disabled", "error", err)
		} else {
			defer llm.Close()
			deps.LLM = llm
		}
	} else {
		slog.Info("GEMINI_API_KEY not set, AI features are disabled")
	}

	srv := server.NewServer(deps)

	sched := scheduler.New()
	jobs := []scheduler.Job{
		scheduler.NewFuncJob("session_sweep", cfg.SessionSweepSchedule, func(ctx context.Context) error {
			n, err := sessions.Sweep(ctx)
			if err == nil && n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
			return err
		}),
		scheduler.NewFuncJob("password_reset_purge", "@hourly", func(ctx context.Context) error {
			_, err := srv.AuthService.PurgeExpiredResets(ctx)
			return err
		}),
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			log.Fatalf("failed to register job: %v", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	addr := ":" + cfg.Port
	slog.Info("server starting", "addr", addr, "env", cfg.AppEnv)
	if err := srv.Run(ctx, addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server shut down")
}
