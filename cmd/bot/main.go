package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/telebot.v3"

	"github.com/xxSohoxx/scheduler-bot/internal/app"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/birthday"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/event"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/rowstore"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/config"
	idb "github.com/xxSohoxx/scheduler-bot/internal/infra/database"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/health"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/logger"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/memory"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/scheduler"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/sheets"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/telegram"
	"github.com/xxSohoxx/scheduler-bot/internal/infra/weather"
)

func main() {
	fmt.Println("Scheduler bot starting...")

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithField("backend", cfg.StoreBackend).WithField("chat_id", cfg.ChatID).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, birthdays, closeStores, err := buildStores(ctx, cfg)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not initialise the row store")
	}
	defer closeStores()
	mainLogger.Info("Row stores initialized")

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	gateway := telegram.NewTelebotAdapter(bot, cfg.ChatID, cfg.SendRatePerSecond)

	monitor := app.NewHealthMonitor()
	jobTimeout := 3 * cfg.StoreTimeout
	monitor.Register(app.LoopEventPoller, time.Duration(cfg.PollHaltAfter)*(cfg.PollBackoffInterval+3*cfg.StoreTimeout))
	monitor.Register(scheduler.LoopDailyScheduler, 3*cfg.SchedulerTick+2*jobTimeout)

	birthdayService := app.NewBirthdayService(birthdays, gateway, logger.Component("birthdays"))
	weatherService := app.NewWeatherService(
		weather.NewOpenMeteoClient(cfg.WeatherLatitude, cfg.WeatherLongitude, cfg.WeatherTimezone),
		gateway,
		logger.Component("weather"),
	)
	commandService := app.NewCommandService(events, birthdayService, cfg.ChatID, logger.Component("commands"))

	// Event poller
	poller := app.NewEventPoller(events, gateway, app.PollerConfig{
		Interval:        cfg.PollInterval,
		BackoffInterval: cfg.PollBackoffInterval,
		AlertAfter:      cfg.PollAlertAfter,
		HaltAfter:       cfg.PollHaltAfter,
		CallTimeout:     cfg.StoreTimeout,
	}, logger.Component(app.LoopEventPoller), monitor)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := poller.Run(ctx)
		switch {
		case errors.Is(err, app.ErrPollerHalted):
			mainLogger.WithError(err).Error("Event poller halted, reminders are off until restart")
		case err != nil && ctx.Err() == nil:
			mainLogger.WithError(err).Error("Event poller stopped unexpectedly")
		}
	}()

	// Daily jobs
	jobs := scheduler.NewDailyJobScheduler(cfg.SchedulerTick, logger.Component("scheduler"), monitor)
	if cfg.WeatherTime != "" {
		if err := jobs.AddJob("weather_digest", cfg.WeatherTime, jobTimeout, weatherService.SendDigest); err != nil {
			mainLogger.WithError(err).Fatal("Could not add weather job")
		}
	}
	if cfg.BirthdayTime != "" {
		if err := jobs.AddJob("birthday_digest", cfg.BirthdayTime, jobTimeout, birthdayService.SendDigest); err != nil {
			mainLogger.WithError(err).Fatal("Could not add birthday job")
		}
	}
	jobs.Start(ctx)

	// Chat commands
	router := telegram.NewRouter(telegram.ChatGuard(cfg.ChatID), logger.Component("telegram"))
	telegram.NewBotCommands(commandService, weatherService, jobTimeout, logger.Component("telegram")).Routes(router)
	router.Register(bot)
	go bot.Start()
	mainLogger.WithField("commands", router.Commands()).Info("Command handlers registered")

	// Liveness
	var healthServer *health.Server
	if cfg.HealthAddr != "" {
		healthServer = health.NewServer(cfg.HealthAddr, monitor, logger.Component("health"))
		healthServer.Start()
	}
	notifier := health.NewSystemdNotifier(monitor, logger.Component("systemd"))
	notifier.Ready()
	go notifier.Run(ctx)

	mainLogger.Info("Application setup complete. Bot, poller and scheduler are running.")
	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	notifier.Stopping()
	jobs.Stop()
	bot.Stop()
	if healthServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("Health server shutdown failed")
		}
		cancel()
	}
	wg.Wait()
	mainLogger.Info("Application shut down gracefully.")
}

// buildStores opens the event and birthday sheets on the configured backend.
func buildStores(ctx context.Context, cfg *config.AppConfig) (rowstore.Store, rowstore.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendSheets:
		srv, err := sheets.NewService(ctx, cfg.SheetsCredentials)
		if err != nil {
			return nil, nil, nil, err
		}
		return sheets.NewRowStore(srv, cfg.SpreadsheetID, cfg.EventSheetName),
			sheets.NewRowStore(srv, cfg.SpreadsheetID, cfg.BirthdaySheetName),
			func() {}, nil

	case config.BackendPostgres:
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := idb.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return idb.NewPostgresRowStore(db, cfg.EventSheetName),
			idb.NewPostgresRowStore(db, cfg.BirthdaySheetName),
			func() { db.Close() }, nil

	case config.BackendMemory:
		return memory.NewRowStore(event.Header), memory.NewRowStore(birthday.Header), func() {}, nil

	default:
		return nil, nil, nil, errors.Newf("unknown store backend %q", cfg.StoreBackend)
	}
}
