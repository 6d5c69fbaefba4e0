//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "porchlight/internal/adapters/http_server"
	redisad "porchlight/internal/adapters/redis"
	"porchlight/internal/app"
	"porchlight/internal/domain"
	mysqlrepo "porchlight/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=porchlight",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/porchlight?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

type searchBody struct {
	Listings []struct {
		ID      int64  `json:"id"`
		Address string `json:"address"`
		Zip     string `json:"zip"`
	} `json:"listings"`
	NextPageCursor *string              `json:"nextPageCursor"`
	ZipFallback    *domain.FallbackInfo `json:"zipFallback"`
}

func TestHTTP_EndToEnd_SearchWithZipFallback(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// All inventory sits in 80203; 80202 is a known zip with no listings.
	seed := []domain.Listing{
		{Address: "100 Grant St", City: "Denver", County: "Denver County", Zip: "80203",
			Price: "$500,000", PriceNum: 500000, BedsNum: 3, BathsNum: 2},
		{Address: "200 Logan St", City: "Denver", County: "Denver County", Zip: "80203",
			Price: "$650,000", PriceNum: 650000, BedsNum: 4, BathsNum: 3},
	}
	for _, l := range seed {
		if err := repo.UpsertListing(ctx, l); err != nil {
			t.Fatalf("UpsertListing: %v", err)
		}
	}
	zips := []domain.ZipGeoEntry{
		{Zip: "80202", Lat: 39.7525, Lng: -105.0008, City: "Denver", CountyNames: "Denver County"},
		{Zip: "80203", Lat: 39.7346, Lng: -104.9844, City: "Denver", CountyNames: "Denver County|Arapahoe County"},
	}
	for _, z := range zips {
		if err := repo.UpsertZipGeo(ctx, z); err != nil {
			t.Fatalf("UpsertZipGeo: %v", err)
		}
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	search := app.NewSearchService(repo, repo, cache, 0, "Denver")

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Search: search})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	get := func(path string) searchBody {
		t.Helper()
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, res.StatusCode)
		}
		var body searchBody
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body
	}

	// Direct hit in a populated zip: no fallback reported.
	direct := get("/v1/listings/search?zip=80203&orderField=price&orderDirection=asc")
	if len(direct.Listings) != 2 {
		t.Fatalf("direct: got %d listings, want 2", len(direct.Listings))
	}
	if direct.Listings[0].Address != "100 Grant St" {
		t.Fatalf("direct: wrong order, first = %s", direct.Listings[0].Address)
	}
	if direct.ZipFallback != nil {
		t.Fatalf("direct: unexpected fallback %+v", direct.ZipFallback)
	}

	// Empty zip falls forward to the nearest populated one.
	fb := get("/v1/listings/search?zip=80202&orderField=price&orderDirection=asc")
	if len(fb.Listings) != 2 {
		t.Fatalf("fallback: got %d listings, want 2", len(fb.Listings))
	}
	if fb.ZipFallback == nil {
		t.Fatal("fallback: zipFallback missing")
	}
	if fb.ZipFallback.OriginZip != "80202" || fb.ZipFallback.FallbackZip != "80203" {
		t.Fatalf("fallback: %+v", fb.ZipFallback)
	}
	if fb.ZipFallback.FallbackCounty != "Denver County" {
		t.Fatalf("fallback county: %q", fb.ZipFallback.FallbackCounty)
	}
	if fb.ZipFallback.DistanceMiles <= 0 {
		t.Fatalf("fallback distance: %v", fb.ZipFallback.DistanceMiles)
	}
}

func TestHTTP_EndToEnd_SortedPagination(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		l := domain.Listing{
			Address:  fmt.Sprintf("%d Pearl St", i*100),
			City:     "Denver", County: "Denver County", Zip: "80210",
			PriceNum: float64(300000 + i*50000),
		}
		if err := repo.UpsertListing(ctx, l); err != nil {
			t.Fatalf("UpsertListing: %v", err)
		}
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	search := app.NewSearchService(repo, repo, cache, 0, "Denver")

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Search: search})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	var seen []string
	cursor := ""
	for page := 0; page < 4; page++ {
		u := ts.URL + "/v1/listings/search?zip=80210&orderField=price&orderDirection=desc&pageSize=2"
		if cursor != "" {
			u += "&cursor=" + cursor
		}
		res, err := http.Get(u)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		var body searchBody
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status %d", res.StatusCode)
		}
		for _, l := range body.Listings {
			seen = append(seen, l.Address)
		}
		if body.NextPageCursor == nil {
			break
		}
		cursor = *body.NextPageCursor
	}

	if len(seen) != 5 {
		t.Fatalf("walked %d listings, want 5: %v", len(seen), seen)
	}
	want := []string{"500 Pearl St", "400 Pearl St", "300 Pearl St", "200 Pearl St", "100 Pearl St"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v want %v", i, seen, want)
		}
	}
}
