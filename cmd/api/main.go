package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	server "lightbnb/internal/adapters/http_server"
	"lightbnb/internal/adapters/observability"
	redisad "lightbnb/internal/adapters/redis"
	"lightbnb/internal/app"
	"lightbnb/internal/domain"
	"lightbnb/internal/shared"
	"lightbnb/internal/storage/memory"
	"lightbnb/internal/storage/sqlstore"
)

func main() {
	ctx := context.Background()
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.App.Env)

	reg := observability.InitRegistry()
	observability.Serve(cfg.Metrics.Addr, reg)

	// db
	db, dialect, err := sqlstore.Open(ctx, cfg.DB, cfg.App.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	defer db.Close()
	repo := sqlstore.New(db, dialect)

	// search cache is optional
	var cache domain.Cache
	if cfg.Redis.Addr != "" {
		rc := redisad.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rc.Close()
		cache = rc
	}

	props := memory.NewPropertyStore()
	if cfg.Memory.Fixture != "" {
		f, err := os.Open(cfg.Memory.Fixture)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Memory.Fixture).Msg("open property fixture failed")
		}
		n, err := props.LoadFixture(f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Memory.Fixture).Msg("load property fixture failed")
		}
		log.Info().Int("properties", n).Msg("in-memory property store seeded")
	}

	q := app.NewQueryService(repo, repo, repo, cache, cfg.Cache.TTL)
	c := app.NewCommandService(repo, props)

	// http
	srv := server.New(server.Options{RPS: cfg.HTTP.RPS, Burst: cfg.HTTP.Burst})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, C: c})

	log.Info().Str("addr", cfg.HTTP.Addr).Str("driver", dialect.String()).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTP.Addr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
