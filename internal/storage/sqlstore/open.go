package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"lightbnb/internal/adapters/observability"
	"lightbnb/internal/shared"
	"lightbnb/internal/storage/query"
)

const pingTimeout = 10 * time.Second

// Open creates the process-wide connection pool for cfg and checks it with a ping.
// Postgres statements are traced to the logger in dev.
func Open(ctx context.Context, cfg shared.DBConfig, appEnv string) (*sql.DB, query.Dialect, error) {
	d, err := query.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, 0, err
	}

	var db *sql.DB
	switch d {
	case query.Postgres:
		cc, err := pgx.ParseConfig(cfg.DSN())
		if err != nil {
			return nil, 0, fmt.Errorf("parse postgres config: %w", err)
		}
		if observability.IsDev(appEnv) {
			cc.Tracer = observability.NewQueryTracer(log.Logger)
		}
		db = stdlib.OpenDB(*cc)
	case query.MySQL:
		db, err = sql.Open("mysql", cfg.DSN())
		if err != nil {
			return nil, 0, fmt.Errorf("sql.Open mysql: %w", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, 0, fmt.Errorf("ping %s: %w", d, err)
	}
	log.Info().Str("driver", d.String()).Str("host", cfg.Host).Str("database", cfg.Database).Msg("database connection ok")
	return db, d, nil
}
