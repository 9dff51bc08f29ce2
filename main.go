package main

import (
	"log"

	"sweffect/adapters/excel"
	"sweffect/adapters/fit"
	"sweffect/adapters/fit/mcmc"
	"sweffect/adapters/memory"
	"sweffect/adapters/postgres"
	"sweffect/app"
	"sweffect/internal/api"
	"sweffect/internal/config"
	"sweffect/internal/estimation"
	"sweffect/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var repo ports.EstimateRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(db); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}
		repo = postgres.NewEstimateRepository(db)
	} else {
		log.Println("DATABASE_URL not set, keeping estimates in memory")
		repo = memory.NewEstimateRepository()
	}

	engine := estimation.NewEngine(fit.Factory(fit.Config{
		Sampler:      samplerConfig(cfg),
		SplineLambda: cfg.Spline.Lambda,
	}))

	service := app.NewEstimationService(excel.NewDataReader(), repo, engine)
	server := api.NewServer(service)
	if err := server.ListenAndServe(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func samplerConfig(cfg *config.Config) mcmc.Config {
	return mcmc.Config{
		Chains:      cfg.Sampler.Chains,
		Iterations:  cfg.Sampler.Iterations,
		Warmup:      cfg.Sampler.Warmup,
		Thin:        cfg.Sampler.Thin,
		MaxParallel: cfg.Sampler.MaxParallel,
		StepSize:    cfg.Sampler.StepSize,
		Seed:        cfg.Sampler.Seed,
	}
}
