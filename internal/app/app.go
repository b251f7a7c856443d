// Package app assembles the application: gateway clients, repositories,
// services, handlers, the bot and the scheduler. Construction order follows
// the dependencies.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"licensebot/internal/bot"
	"licensebot/internal/config"
	"licensebot/internal/db/proxy"
	"licensebot/internal/features/admin"
	"licensebot/internal/features/broadcast"
	"licensebot/internal/features/cleanup"
	"licensebot/internal/features/credentials"
	"licensebot/internal/features/orders"
	"licensebot/internal/features/points"
	"licensebot/internal/features/state"
	"licensebot/internal/features/users"
	"licensebot/internal/jobs"
	"licensebot/internal/payment"
	"licensebot/internal/telegram"
)

// App holds the running components.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	BotAPI    *tgbotapi.BotAPI
}

// New builds the application from configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Gateways ===
	db := proxy.New(cfg.ProxyURL, cfg.ProxyAPIKey)
	gateway := payment.New(cfg.PaymentBaseURL, cfg.PaymentAPIKey)

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("creating telegram api: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("authorized as @%s", botAPI.Self.UserName)

	sender := telegram.NewSender(botAPI)

	// === 3. Repositories ===
	stateRepo := state.NewRepository(db)
	pointsRepo := points.NewRepository(db)
	credsRepo := credentials.NewRepository(db)
	ordersRepo := orders.NewRepository(db)
	cleanupRepo := cleanup.NewRepository(db)
	usersRepo := users.NewRepository(db)
	broadcastRepo := broadcast.NewRepository(db)

	// === 4. Services ===
	stateService := state.NewService(stateRepo)
	pointsService := points.NewService(pointsRepo, int64(cfg.RedeemPointsPerDay))
	credsService := credentials.NewService(credsRepo)
	ordersService := orders.NewService(ordersRepo, gateway, credsService, pointsService, orders.Options{
		Prefix:        cfg.OrderPrefix,
		Timeout:       cfg.OrderTimeout,
		CheckInterval: cfg.PaymentCheckInterval,
		MerchantCode:  cfg.MerchantCode,
		Prices:        cfg.Prices,
	})
	usersService := users.NewService(usersRepo)
	adminService := admin.NewService(cfg)
	broadcastService := broadcast.NewService(broadcastRepo, usersService, sender)

	// === 5. Handlers ===
	ordersHandler := orders.NewHandler(ordersService, stateService, pointsService, sender, cfg.AdminIDs)
	adminHandler := admin.NewHandler(adminService, usersService, sender)
	broadcastHandler := broadcast.NewHandler(broadcastService, adminService, sender)

	// The cleanup service closes the loop: it drives order outcomes that the
	// orders handler renders.
	cleanupService := cleanup.NewService(cleanupRepo, ordersService, sender, ordersHandler)

	// === 6. Bot and scheduler ===
	b := bot.New(
		botAPI, cfg, sender,
		cleanupService, stateService, usersService,
		ordersHandler, adminHandler, broadcastHandler,
	)
	scheduler := jobs.NewScheduler(cfg, cleanupService)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		BotAPI:    botAPI,
	}, nil
}
