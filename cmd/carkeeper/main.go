package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carkeeper/internal/bot"
	"carkeeper/internal/config"
	"carkeeper/internal/enrichment"
	"carkeeper/internal/events"
	"carkeeper/internal/metrics"
	"carkeeper/internal/repository"
	"carkeeper/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	metrics.RegisterDefault()
	if cfg.MetricsAddr != "" {
		srv := metrics.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	publishers := events.Multi{events.LogPublisher{}}
	if cfg.RedisURL != "" {
		redisPub, err := events.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisPub.Close()
		publishers = append(publishers, redisPub)
	}

	dispatcher := events.NewDispatcher(publishers, cfg.DispatchWorkers, 256, 30*time.Second)
	defer dispatcher.Close()
	go func() {
		for err := range dispatcher.Errors() {
			log.Printf("[warn] side effect failed: %v", err)
		}
	}()

	var enricher service.Enricher
	if cfg.EnrichmentURL != "" {
		enricher = enrichment.NewClient(cfg.EnrichmentURL, cfg.EnrichmentRPS)
	}

	userRepo := repository.NewUserRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)

	coordinator := service.NewCoordinator(catalog, reminderRepo, vehicleRepo, enricher, dispatcher, nil)
	provisioningSvc := service.NewProvisioningService(reminderRepo, dispatcher, nil)
	vehicleSvc := service.NewVehicleService(vehicleRepo, provisioningSvc)

	telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
		Users:       userRepo,
		Vehicles:    vehicleSvc,
		Maintenance: service.NewMaintenanceService(maintenanceRepo, vehicleSvc, coordinator, nil),
		Reminders:   service.NewReminderService(reminderRepo, vehicleRepo, catalog, dispatcher, nil),
		Digest:      service.NewDigestService(reminderRepo, vehicleRepo),
		Categories:  service.NewCategoryService(catalog),
	}, cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := service.NewSchedulerService(cfg.Location)
	entry, err := scheduler.ScheduleDigest(cfg.DigestTime, cfg.ReportInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("digest: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("schedule digest: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("[info] next digest at %s", scheduler.Next(entry).Format(time.RFC3339))

	log.Println("Carkeeper bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
