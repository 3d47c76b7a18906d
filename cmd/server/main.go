package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tyhsiao/bookline/internal/app"
	"github.com/tyhsiao/bookline/internal/cache"
	"github.com/tyhsiao/bookline/internal/calendar"
	"github.com/tyhsiao/bookline/internal/config"
	"github.com/tyhsiao/bookline/internal/controller"
	"github.com/tyhsiao/bookline/internal/notify"
	"github.com/tyhsiao/bookline/internal/repository"
	"github.com/tyhsiao/bookline/internal/repository/base"
	"github.com/tyhsiao/bookline/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Sugar().Infow("Starting booking engine",
		"environment", cfg.Environment,
		"addr", cfg.HTTPAddr,
	)

	caches := cache.NewService(time.Now)
	handles := base.NewHandleProvider(cfg.DBDSN, cfg.HandleCacheTTL, caches.Store)
	defer handles.Close()

	pool, err := handles.Pool(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to store", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, "migrations")
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	loc := cfg.Location()
	tuning := calendar.Tuning{
		AvgDailyEvents:    cfg.AvgDailyEvents,
		BufferMultiplier:  cfg.BufferMultiplier,
		MaxEstimationDays: cfg.MaxEstimationDays,
		BasePageSize:      cfg.BasePageSize,
		MinPageSize:       cfg.MinPageSize,
		MaxPageSize:       cfg.MaxPageSize,
	}

	source, err := calendar.NewGoogleSource(ctx, cfg.GoogleCredentialsFile, cfg.GoogleAPIKey, loc, tuning, logger)
	if err != nil {
		logger.Fatal("Failed to create calendar source", zap.Error(err))
	}
	writer, err := calendar.NewGoogleWriter(ctx, cfg.GoogleCredentialsFile, cfg.BookingCalendarID, loc, cfg.SlotDurationHours)
	if err != nil {
		logger.Fatal("Failed to create calendar writer", zap.Error(err))
	}

	bookingRepo := repository.NewBookingRepository(handles)
	customerRepo := repository.NewCustomerRepository(handles)
	settingsRepo := repository.NewSettingsRepository(handles, caches.Config, cfg.ConfigCacheTTL)

	availability := service.NewAvailabilityService(source, service.AvailabilitySettings{
		SourceCalendarID:  cfg.SourceCalendarID,
		BookingCalendarID: cfg.BookingCalendarID,
		SlotDurationHours: cfg.SlotDurationHours,
		BusinessOpenHour:  cfg.BusinessOpenHour,
		BusinessCloseHour: cfg.BusinessCloseHour,
		MaxRangeDays:      cfg.MaxRangeDays,
		Location:          loc,
	}, logger)

	var notifier service.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" && cfg.TelegramAdminChat != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramAdminChat, logger)
		if err != nil {
			logger.Warn("Telegram notifier disabled", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	bookings := service.NewBookingService(
		availability,
		bookingRepo,
		customerRepo,
		caches,
		writer,
		notifier,
		cfg.LockWait,
		logger,
	)
	lookup := service.NewLookupService(bookingRepo, customerRepo, caches, cfg.IndexCacheTTL, logger)

	janitor := app.NewJanitor(caches, time.Minute, logger)
	janitor.Start(ctx)
	defer janitor.Stop()

	server := controller.NewServer(availability, bookings, lookup, settingsRepo, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Listening", zap.String("addr", cfg.HTTPAddr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
