package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"porchlight/internal/adapters/observability"
	"porchlight/internal/app"
	"porchlight/internal/shared"
	mysqlrepo "porchlight/internal/storage/mysql"
)

// backfill recomputes the numeric sort/filter columns from the display
// strings. Run it after bulk imports that only populate the display fields.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("workers", cfg.Workers).
		Msg("backfill starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	rows, err := repo.ListDisplayFields(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("listing display fields failed")
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, row := range rows {
		row := row

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(f mysqlrepo.DisplayFields) {
			defer wg.Done()
			defer sem.Release(int64(1))

			err := repo.UpdateNumericFields(ctx, f.ID,
				app.ParseNum(f.Price),
				app.ParseNum(f.Beds),
				app.ParseNum(f.Baths),
				app.ParseNum(f.Sqft),
			)
			if err != nil {
				log.Warn().Int64("id", f.ID).Err(err).Msg("backfill failed")
				return
			}
			log.Info().Int64("id", f.ID).Msg("backfill ok")
		}(row)
	}

	wg.Wait()
	log.Info().Int("listings", len(rows)).Msg("backfill completed")
}
