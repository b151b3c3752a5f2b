package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/vasan12sp/distributedRateLimiter/internal/config"
	"github.com/vasan12sp/distributedRateLimiter/internal/obs"
	"github.com/vasan12sp/distributedRateLimiter/internal/server"
	"github.com/vasan12sp/distributedRateLimiter/pkg/limiter"
	"github.com/vasan12sp/distributedRateLimiter/pkg/rules"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obs.SetupLogger(cfg.Observability.LogLevel)

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store, err := limiter.NewRedisStore(client,
		limiter.WithPrefix(cfg.Redis.Prefix),
		limiter.WithTimeout(cfg.Redis.Timeout()),
		limiter.WithRecorder(metrics),
	)
	if err != nil {
		log.Fatalf("connect rate limit store: %v", err)
	}

	source := rules.NewStaticSource(tenantsFrom(cfg), rulesFrom(cfg))
	resolver := rules.NewResolver(source, tiersFrom(cfg), rules.DefaultRule)

	policy := limiter.FailOpen
	if cfg.Limits.FailurePolicy == "closed" {
		policy = limiter.FailClosed
	}

	engine := limiter.NewEngine(limiter.EngineConfig{
		Identity: source,
		Rules:    resolver,
		Store:    store,
		Policy:   policy,
		Logger:   logger,
		Recorder: metrics,
	})

	handler := server.NewHandler(engine, resolver, cfg.Limits.AuthHeader, cfg.Limits.AdminToken)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Routes(handler, logger, reg, cfg.Observability.PrometheusPath),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout(),
		WriteTimeout:      cfg.Server.WriteTimeout(),
		IdleTimeout:       cfg.Server.IdleTimeout(),
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("redis", cfg.Redis.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	_ = client.Close()
	logger.Info().Msg("bye")
}

func tenantsFrom(cfg *config.Root) map[string]limiter.Tenant {
	tenants := make(map[string]limiter.Tenant, len(cfg.Limits.Keys))
	for _, k := range cfg.Limits.Keys {
		if k.Key == "" || k.Tenant == "" {
			continue
		}
		tenants[k.Key] = limiter.Tenant{ID: k.Tenant, Tier: k.Tier}
	}
	return tenants
}

func rulesFrom(cfg *config.Root) map[string][]limiter.Rule {
	ruleSets := make(map[string][]limiter.Rule, len(cfg.Limits.Rules))
	for tenant, rs := range cfg.Limits.Rules {
		for _, r := range rs {
			method := r.Method
			if method == "" {
				method = "*"
			}
			ruleSets[tenant] = append(ruleSets[tenant], limiter.Rule{
				MaxEvents:       r.MaxEvents,
				WindowSeconds:   r.WindowSeconds,
				EndpointPattern: r.Endpoint,
				HTTPMethod:      method,
			})
		}
	}
	return ruleSets
}

func tiersFrom(cfg *config.Root) map[string]limiter.Rule {
	if len(cfg.Limits.Tiers) == 0 {
		return nil
	}
	tiers := rules.DefaultTiers()
	for _, t := range cfg.Limits.Tiers {
		tiers[t.Name] = limiter.Rule{
			MaxEvents:       t.MaxEvents,
			WindowSeconds:   t.WindowSeconds,
			EndpointPattern: "*",
			HTTPMethod:      "*",
		}
	}
	return tiers
}
