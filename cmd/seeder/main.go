package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"lightbnb/internal/adapters/observability"
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

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.App.Env)

	log.Info().
		Str("file", cfg.Seed.File).
		Int("workers", cfg.Seed.Workers).
		Msg("seeder starting")

	raw, err := os.ReadFile(cfg.Seed.File)
	if err != nil {
		log.Fatal().Err(err).Msg("read seed file failed")
	}
	var users []domain.NewUser
	if err := json.Unmarshal(raw, &users); err != nil {
		log.Fatal().Err(err).Msg("decode seed file failed")
	}

	db, dialect, err := sqlstore.Open(ctx, cfg.DB, cfg.App.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	defer db.Close()

	cmd := app.NewCommandService(sqlstore.New(db, dialect), memory.NewPropertyStore())
	sem := semaphore.NewWeighted(int64(cfg.Seed.Workers))
	var (
		wg                 sync.WaitGroup
		added, dup, failed atomic.Int64
	)

	for _, u := range users {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(u domain.NewUser) {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := cmd.AddUser(ctx, u); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					dup.Add(1)
					log.Info().Str("email", u.Email).Msg("user exists, skipped")
					return
				}
				failed.Add(1)
				log.Warn().Str("email", u.Email).Err(err).Msg("seed failed")
				return
			}
			added.Add(1)
		}(u)
	}

	wg.Wait()
	log.Info().
		Int64("added", added.Load()).
		Int64("skipped", dup.Load()).
		Int64("failed", failed.Load()).
		Msg("seeding completed")
}
