package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"timebudget/internal/bot"
	"timebudget/internal/config"
	"timebudget/internal/logging"
	"timebudget/internal/model"
	"timebudget/internal/repository"
	"timebudget/internal/service"
)

func main() {
	// .env is optional outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	if err != nil {
		slog.Error("logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db", "error", err, "dsn", cfg.DatabaseURL)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)

	preferencesSvc := service.NewPreferencesService(
		repository.NewPreferencesRepository(db),
		model.DayWindow{Start: cfg.DefaultDayStart, End: cfg.DefaultDayEnd},
	)
	allocationSvc := service.NewAllocationService(allocationRepo)
	summarySvc := service.NewSummaryService(allocationRepo, preferencesSvc)

	telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
		Users:       userRepo,
		Allocations: allocationSvc,
		Preferences: preferencesSvc,
		Summaries:   summarySvc,
		Templates:   service.NewTemplateService(repository.NewTemplateRepository(db), allocationRepo),
		Categories:  service.NewCategoryService(),
		Reminders:   service.NewReminderService(allocationSvc, summarySvc),
	})
	if err != nil {
		logger.Error("bot", "error", err)
		os.Exit(1)
	}

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.DigestTime != "" {
		id, err := scheduler.ScheduleDaily(cfg.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("daily digest", "error", err)
			}
		})
		if err != nil {
			logger.Error("schedule digest", "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("daily digest scheduled", "at", cfg.DigestTime, "next", scheduler.Next(id))
	} else {
		logger.Info("daily digest disabled")
	}

	logger.Info("time budget bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
