package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blocpool/payoutd/internal/config"
	"github.com/blocpool/payoutd/internal/infra"
	"github.com/blocpool/payoutd/internal/ledger"
	"github.com/blocpool/payoutd/internal/logging"
	"github.com/blocpool/payoutd/internal/notification"
	"github.com/blocpool/payoutd/internal/payout"
	"github.com/blocpool/payoutd/internal/server"
	"github.com/blocpool/payoutd/internal/walletrpc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	wallet, err := walletrpc.NewHTTPClient(cfg.WalletRPCURL, cfg.WalletRPCTimeout, cfg.WalletAuthFile)
	if err != nil {
		logger.Error("build wallet client", "error", err)
		os.Exit(1)
	}

	store := ledger.NewPostgresStore(db)

	notifiers := []notification.Notifier{notification.NewLoggerNotifier(logger)}
	if cfg.SMTPHost != "" {
		notifiers = append(notifiers, notification.NewMailer(notification.MailerConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUser,
			Password:   cfg.SMTPPassword,
			From:       cfg.EmailFrom,
			AdminEmail: cfg.AdminEmail,
		}, logger))
	}
	if cfg.TelegramBotKey != "" {
		notifiers = append(notifiers, notification.NewTelegram(cfg.TelegramBotKey, cfg.TelegramChatID, logger))
	}
	notifier := notification.NewFanout(logger, notifiers...)

	breaker := payout.NewBreaker(logger, func(reason, detail string) {
		msg := notification.Message{
			Kind:        notification.KindOperatorAlert,
			Destination: cfg.AdminEmail,
			Subject:     "Payments stopped: " + reason,
			Body:        detail + "\n\nNo further payments will be made until the service is restarted or the breaker is reset.",
		}
		if err := notifier.Send(context.Background(), msg); err != nil {
			logger.Error("operator alert delivery failed", "error", err)
		}
	})

	serializer := payout.NewSerializer(wallet, breaker, payout.DefaultWaits(cfg.RetryInterval), logger)
	watermark := payout.NewWatermark(cache, logger)
	serializer.OnDrain(func() { watermark.MarkCycle(ctx) })

	recorder := payout.NewRecorder(store, breaker, notifier, payout.RecorderConfig{
		Mixin:        cfg.Mixin,
		CoinUnits:    cfg.CoinUnits,
		ProofURLBase: cfg.ProofURLBase,
	}, logger)
	executor := payout.NewExecutor(payout.ExecutorConfig{
		Mixin:               cfg.Mixin,
		Priority:            cfg.Priority,
		TransferFee:         cfg.TransferFee,
		MaxBulkDestinations: cfg.MaxBulkDestinations,
	}, serializer, recorder, logger)
	planner := payout.NewPlanner(payout.PlannerConfig{
		Curve: payout.FeeCurve{
			BaseFee:   cfg.BaseFee,
			MinPayout: cfg.MinPayout,
			SlewEnd:   cfg.FeeSlewEnd,
		},
		FeeAddress:        cfg.FeeAddress,
		FeeReserve:        cfg.FeeReserve,
		ExchangeMin:       cfg.ExchangeMin,
		Denomination:      cfg.Denomination,
		DefaultThreshold:  cfg.DefaultThreshold,
		IntegratedAddrLen: cfg.IntegratedAddrLen,
	}, logger)
	engine := payout.NewEngine(payout.EngineConfig{
		PayoutEvery: cfg.PayoutEvery,
		MinPayout:   cfg.MinPayout,
	}, store, wallet, planner, executor, serializer, breaker, nil, logger)

	go serializer.Run(ctx)
	go engine.Run(ctx)

	srv := server.New(server.Deps{
		Cfg:        cfg,
		Breaker:    breaker,
		Serializer: serializer,
		Watermark:  watermark,
		Logger:     logger,
	})

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	logger.Info("payout daemon started",
		"payout_interval", cfg.PayoutEvery.String(), "min_payout", cfg.MinPayout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("payout daemon exited cleanly")
}
