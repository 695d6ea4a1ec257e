package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"flexliving_reviews/internal/adapters/backend"
	server "flexliving_reviews/internal/adapters/http_server"
	"flexliving_reviews/internal/adapters/observability"
	redisad "flexliving_reviews/internal/adapters/redis"
	"flexliving_reviews/internal/app"
	"flexliving_reviews/internal/domain"
	"flexliving_reviews/internal/shared"
	mysqlrepo "flexliving_reviews/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	api, err := backend.New(cfg.APIBase, cfg.APIRPS, cfg.APITimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize reviews API client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// optional deps; keep the interfaces nil when disabled
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, caching disabled")
		} else {
			cache = rc
			defer rc.Close()
		}
	}

	var audit domain.AuditLog
	if cfg.MySQLDSN != "" {
		if _, err := mysqlrepo.NormalizeDSN(cfg.MySQLDSN); err != nil {
			log.Fatal().Err(err).Msg("invalid MYSQL_DSN")
		}
		if db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN); err != nil {
			log.Warn().Err(err).Msg("mysql unreachable, approval audit disabled")
		} else {
			log.Info().Msg("database connection ok")
			defer db.Close()
			audit = mysqlrepo.New(db)
		}
	}

	q := app.NewQueryService(api, cache, cfg.CacheTTL)
	m := app.NewModerationService(api, cache, audit)

	// http
	srv := server.New(cfg.CORSOrigins)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, M: m, Sessions: app.NewSessions(cfg.SessionTTL)})

	log.Info().Str("addr", cfg.HTTPAddr).Str("api", cfg.APIBase).Msg("dashboard listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
