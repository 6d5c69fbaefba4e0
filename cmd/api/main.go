package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "porchlight/internal/adapters/http_server"
	"porchlight/internal/adapters/observability"
	redisad "porchlight/internal/adapters/redis"
	"porchlight/internal/adapters/streetview"
	"porchlight/internal/adapters/valuation"
	"porchlight/internal/app"
	"porchlight/internal/shared"
	mysqlrepo "porchlight/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	search := app.NewSearchService(repo, repo, cache, cfg.ZipGeoTTL, cfg.DefaultCity)

	avm, err := valuation.New(cfg.AVMBase, cfg.AVMKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("valuation client init failed")
	}
	valuations := app.NewValuationService(avm, repo, cache, cfg.FreeLimit, cfg.CacheTTL)
	inquiries := app.NewInquiryService(repo)

	sv, err := streetview.New("", cfg.StreetViewKey)
	if err != nil {
		log.Fatal().Err(err).Msg("streetview source init failed")
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Search:     search,
		Valuations: valuations,
		Inquiries:  inquiries,
		StreetView: sv,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
