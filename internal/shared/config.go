package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	AVMBase       string
	AVMKey        string
	StreetViewKey string
	DefaultCity   string
	Workers       int
	FreeLimit     int
	CacheTTL      time.Duration
	ZipGeoTTL     time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/porchlight?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		AVMBase:       env("AVM_BASE_URL", "https://api.rentcast.io/v1"),
		AVMKey:        env("AVM_API_KEY", ""),
		StreetViewKey: env("STREETVIEW_API_KEY", ""),
		DefaultCity:   env("DEFAULT_CITY", "Denver"),
		Workers:       atoi("BACKFILL_WORKERS", 8),
		FreeLimit:     atoi("VALUATION_FREE_LIMIT", 3),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		ZipGeoTTL:     time.Duration(atoi("ZIP_GEO_TTL_SECONDS", 86400)) * time.Second,
	}
	if c.AVMKey == "" {
		log.Warn().Msg("AVM_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
