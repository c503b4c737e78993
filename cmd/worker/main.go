package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/admux/ad-gateway/internal/config"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/internal/worker"
	"github.com/admux/ad-gateway/pkg/logger"
	"github.com/admux/ad-gateway/pkg/pg"
	"github.com/admux/ad-gateway/pkg/prom"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
	}
	if config.Get().AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
	}

	deliveryRepo := repository.NewDeliveryRepository(db)
	adRepo := repository.NewAdRepository(db)
	planRepo := repository.NewPlanRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	quotaService := quota.NewService(planRepo, usageRepo)

	w := worker.NewWorker(db, deliveryRepo, config.Get().WorkerBatchSize)
	p := worker.NewPromoter(db, adRepo, quotaService)
	runner := worker.NewRunner(w, p, config.Get().WorkerPollInterval, config.Get().WorkerPollJitter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("shutdown signal received")
		cancel()
	}()

	// first pass right away, then on the ticker
	runner.Trigger()
	runner.Run(ctx)
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
