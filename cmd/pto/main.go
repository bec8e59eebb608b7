package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pto-tracker/internal/bot"
	"pto-tracker/internal/config"
	"pto-tracker/internal/directory"
	"pto-tracker/internal/handler"
	"pto-tracker/internal/repository"
	"pto-tracker/internal/service"
	"pto-tracker/pkg/mailer"
	"pto-tracker/pkg/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetConfig()
	logrus.SetLevel(cfg.LogLevel)
	logrus.Info("Config initialized...")

	db, err := repository.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	store, err := repository.NewStore(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create repositories")
	}

	var (
		lookup   service.Directory
		loginDir directory.Directory
	)
	if cfg.LDAP.Enabled() {
		cache, err := directory.NewCache(cfg.Cache)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create directory cache")
		}
		cached := directory.NewCached(directory.NewLDAPDirectory(cfg.LDAP), cache)
		lookup, loginDir = cached, cached
		logrus.Infof("Using LDAP directory at %s", cfg.LDAP.URL)
	} else {
		lookup = directory.NewStatic()
		logrus.Info("LDAP not configured, using local passwords")
	}

	var notifier service.Notifier
	var client *telegram.Client
	if cfg.TelegramToken != "" {
		client, err = telegram.NewClient(cfg.TelegramToken, false)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create Telegram client")
		}
		logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)
		if cfg.TelegramHRChatID != 0 {
			notifier = telegram.NewChatNotifier(client, cfg.TelegramHRChatID)
		}
	}

	smtp := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)

	userService := service.NewUserService(store)
	calendarService := service.NewCalendarService(store, userService, cfg)
	ledgerService := service.NewLedgerService(store)

	h := handler.NewHandler(handler.Services{
		Auth:          service.NewAuthService(store, userService, loginDir, cfg),
		Users:         userService,
		Entries:       service.NewEntryService(store, lookup, cfg),
		Notifications: service.NewNotificationService(store, lookup, smtp, notifier, cfg),
		Ledger:        ledgerService,
		Calendar:      calendarService,
		Accrual:       service.NewAccrualService(cfg),
	}, cfg)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	if client != nil {
		botHandler := bot.NewHandler(client, calendarService, ledgerService, cfg.TelegramHRChatID)
		updates := client.Bot.GetUpdatesChan(client.UpdateConfig)
		go botHandler.HandleUpdates(updates)
		logrus.Info("Bot started")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Infof("Error shutting down HTTP server: %v", err)
	}
	if client != nil {
		client.Bot.StopReceivingUpdates()
	}
	if err := store.Close(); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}

	logrus.Info("Stopped gracefully")
}
