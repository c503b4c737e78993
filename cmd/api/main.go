package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/admux/ad-gateway/internal/config"
	"github.com/admux/ad-gateway/internal/handlers"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/ratelimit"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/internal/services"
	"github.com/admux/ad-gateway/internal/worker"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/admux/ad-gateway/pkg/logger"
	"github.com/admux/ad-gateway/pkg/pg"
	"github.com/admux/ad-gateway/pkg/prom"
	"github.com/admux/ad-gateway/pkg/redis"
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

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

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

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
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
	campaignRepo := repository.NewCampaignRepository(db)
	contactRepo := repository.NewContactRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	linkRepo := repository.NewShortLinkRepository(db)
	adRepo := repository.NewAdRepository(db)
	planRepo := repository.NewPlanRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	metricRepo := repository.NewMetricEventRepository(db)

	quotaService := quota.NewService(planRepo, usageRepo)

	// services
	deliveryService := services.NewDeliveryService(db, deliveryRepo, campaignRepo, quotaService)
	adService := services.NewAdService(db, adRepo, campaignRepo, quotaService)
	templateService := services.NewTemplateService(db, templateRepo, quotaService)
	linkService := services.NewShortLinkService(db, linkRepo, quotaService, metricRepo)
	automationService := services.NewAutomationService(segmentRepo, templateRepo, deliveryService)
	metricsService := services.NewMetricsService(metricRepo, adRepo, campaignRepo, deliveryRepo, linkRepo)

	// in-process worker passes, exposed as admin job endpoints
	deliveryWorker := worker.NewWorker(db, deliveryRepo, config.Get().WorkerBatchSize)
	promoter := worker.NewPromoter(db, adRepo, quotaService)

	limiter := ratelimit.NewLimiter(redisAdap, config.Get().RateLimitPerMinute)
	tenant := handlers.TenantMiddleware(limiter)
	adminKey := config.Get().AdminKey

	// v1 handlers
	deliveryHandler := handlers.NewDeliveryHandler(deliveryService)
	adHandler := handlers.NewAdHandler(adService)
	campaignHandler := handlers.NewCampaignHandler(campaignRepo)
	contactHandler := handlers.NewContactHandler(contactRepo)
	segmentHandler := handlers.NewSegmentHandler(segmentRepo, automationService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	linkHandler := handlers.NewShortLinkHandler(linkService)
	saasHandler := handlers.NewSaasHandler(quotaService, planRepo)
	jobsHandler := handlers.NewJobsHandler(deliveryWorker, promoter)
	healthHandler := handlers.NewHealthHandler()
	metricsHandler := handlers.NewMetricsHandler(metricsService, splitOrigins(config.Get().PixelAllowedOrigins))

	g := s.Router.Group("/api/v1")
	handlers.RegisterDeliveryRoutes(g, deliveryHandler, tenant)
	handlers.RegisterAdRoutes(g, adHandler, tenant)
	handlers.RegisterCampaignRoutes(g, campaignHandler, tenant)
	handlers.RegisterContactRoutes(g, contactHandler, tenant)
	handlers.RegisterSegmentRoutes(g, segmentHandler, tenant)
	handlers.RegisterTemplateRoutes(g, templateHandler, tenant)
	handlers.RegisterShortLinkRoutes(g, linkHandler, tenant)
	handlers.RegisterSaasRoutes(g, saasHandler, tenant, adminKey)
	handlers.RegisterJobRoutes(g, jobsHandler, adminKey)
	handlers.RegisterMetricsRoutes(g, metricsHandler, tenant)
	handlers.RegisterHealthRoutes(g, healthHandler)
	handlers.RegisterRedirectRoute(s.Router, linkHandler)
	handlers.RegisterTrackingRoutes(s.Router, metricsHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
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
