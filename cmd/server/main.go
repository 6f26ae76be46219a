package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"vehicle-scheduling-service/internal/adapters/cache"
	"vehicle-scheduling-service/internal/adapters/instancefile"
	"vehicle-scheduling-service/internal/adapters/repositories"
	"vehicle-scheduling-service/internal/api"
	"vehicle-scheduling-service/internal/config"
	"vehicle-scheduling-service/internal/platform/db"
	"vehicle-scheduling-service/internal/ports"
	"vehicle-scheduling-service/internal/services"
)

const solutionCacheTTL = 24 * time.Hour

// main is the application composition root.
// It wires concrete adapters (instance files, Postgres, Redis) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load(config.Get("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}
	boundary, err := cfg.BoundaryPolicy()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// Runs are kept in memory unless a database is configured.
	var (
		runs      ports.RunRepository = repositories.NewMemoryRunRepository()
		solutions ports.SolutionCache
	)
	if cfg.DatabaseURL != "" {
		conn, err := openRunsDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()
		runs = repositories.NewSQLRunRepository(conn)
		solutions = cache.NewSQLSolutionCache(conn)
	}

	source := instancefile.NewFileInstanceSource(cfg.InstanceDir, boundary)
	solver := &services.Solver{Source: source, Runs: runs, Cache: solutions}

	// Redis takes precedence over the Postgres cache table.
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisSolutionCacheFromURL(ctx, cfg.RedisURL, solutionCacheTTL)
		if err != nil {
			log.Fatal(err)
		}
		defer redisCache.Close()
		solver.Cache = redisCache
	}

	var limiter *rate.Limiter
	if cfg.SolveRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.SolveRate), cfg.SolveBurst)
	}

	router := api.NewRouter(source, runs, solver, limiter)

	// Large instances take tens of seconds to solve; WriteTimeout covers that.
	log.Printf("Server listening addr=:%s instances=%s boundary=%s", cfg.Port, cfg.InstanceDir, boundary)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openRunsDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := repositories.InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
