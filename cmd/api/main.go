package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"rebirth/internal/config"
	"rebirth/internal/handler"
	"rebirth/internal/infra/asset"
	"rebirth/internal/infra/db"
	"rebirth/internal/infra/memory"
	"rebirth/internal/infra/notify"
	infraRepo "rebirth/internal/infra/repository"
	"rebirth/internal/logging"
	"rebirth/internal/metrics"
	repo "rebirth/internal/repository"
	"rebirth/internal/server"
	"rebirth/internal/usecase"
	"rebirth/internal/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run())
}

// deferを通すため終了コードを返す
func run() int {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Error("load config")
		return 1
	}

	logger := logging.New(cfg.LogLevel, cfg.LogJSON)

	protected, err := cfg.ProtectedStatuses()
	if err != nil {
		logger.WithError(err).Error("protected statuses")
		return 1
	}

	//ストア（postgres / memory）
	repos, tx, err := openStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("open store")
		return 1
	}

	notifier, err := openNotifier(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("open notifier")
		return 1
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.WithError(err).Warn("close notifier")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(tx, usecase.NewShippingGuard(protected), notifier, logger).WithMetrics(m)
	itemUC := usecase.NewItemUsecase(tx, repos.Items(), asset.NewFSWriter(cfg.AssetsDir, cfg.PublicBaseURL), logger)
	addressUC := usecase.NewAddressUsecase(repos.Addresses(), logger)
	auditUC := usecase.NewAuditLogUsecase(repos.AuditLogs(), logger)
	authUC := usecase.NewAuthUsecase(cfg.JWTSecret, cfg.AccessTokenTTL, repos.Users(), validator.NewAuthValidator(repos.Users()), logger)

	//Handler生成
	handlers := server.Handlers{
		Auth:      handler.NewAuthHandler(authUC),
		AdminUser: handler.NewAdminUserHandler(authUC),
		Orders:    handler.NewOrderHandler(orderUC),
		Items:     handler.NewItemHandler(itemUC),
		Addresses: handler.NewAddressHandler(addressUC),
		AuditLogs: handler.NewAdminAuditLogHandler(auditUC),
	}
	e := server.New(server.Options{
		FEURL:     cfg.FEURL,
		AssetsDir: cfg.AssetsDir,
		Logger:    logger,
		Metrics:   m,
	}, handlers, server.NewGuards(cfg.JWTSecret, repos.Users()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}
	logger.WithFields(logrus.Fields{
		"store":     cfg.StoreDriver,
		"notify":    cfg.NotifyDriver,
		"protected": protected.List(),
	}).Info("starting api")

	if err := server.Run(ctx, e, addr, logger); err != nil {
		logger.WithError(err).Error("server stopped")
		return 1
	}
	return 0
}

func openStore(cfg config.Config, logger *logrus.Logger) (repo.TxRepos, repo.TransactionManager, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		st := memory.NewStore()
		return st.Repos(), st, nil
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, nil, err
	}
	return infraRepo.NewGormRepos(gormDB), infraRepo.NewTxManagerGorm(gormDB), nil
}

func openNotifier(cfg config.Config, logger *logrus.Logger) (notify.Notifier, error) {
	switch cfg.NotifyDriver {
	case config.NotifyDriverKafka:
		return notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.NotifyDriverRabbitMQ:
		return notify.NewRabbitMQNotifier(cfg.RabbitMQURL, cfg.RabbitMQQueue)
	default:
		return notify.NewLogNotifier(logger), nil
	}
}
