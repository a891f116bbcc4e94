package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/voxtel/cdrpipeline/internal/aggregate"
	"github.com/voxtel/cdrpipeline/internal/api"
	"github.com/voxtel/cdrpipeline/internal/dedup"
	"github.com/voxtel/cdrpipeline/internal/logging"
	"github.com/voxtel/cdrpipeline/internal/pipeline"
	"github.com/voxtel/cdrpipeline/internal/rating"
	"github.com/voxtel/cdrpipeline/internal/repository"
)

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	if err := logging.Initialize(logging.Config{
		Level:  envDefault("LOG_LEVEL", "info"),
		Format: envDefault("LOG_FORMAT", "console"),
	}); err != nil {
		logging.Sugar.Fatalf("init logging: %v", err)
	}
	defer logging.Sync()

	port := envDefault("PORT", "8080")
	dbPath := envDefault("DB_PATH", "cdrs.db")
	ratePath := envDefault("RATE_TABLE_PATH", "rate_tables.json")

	logging.Sugar.Infof("[server] Initializing database at %s", dbPath)
	db, err := repository.InitDB(dbPath)
	if err != nil {
		logging.Sugar.Fatalf("[server] Failed to init DB: %v", err)
	}
	defer db.Close()

	// Rate configuration errors are fatal: no record may be priced against
	// an incomplete table.
	rates, err := rating.NewReloader(ratePath)
	if err != nil {
		logging.Sugar.Fatalf("[server] Failed to load rate table: %v", err)
	}

	cdrRepo := repository.NewCDRRepo(db)
	dedupIdx := dedup.NewIndex()
	agg := aggregate.NewEngine()
	pipe := pipeline.New(cdrRepo, rates, dedupIdx, agg)

	// Aggregates live in memory; rebuild them from the durable store.
	if _, err := pipe.Rebuild(context.Background()); err != nil {
		logging.Sugar.Fatalf("[server] Failed to rebuild aggregates: %v", err)
	}

	router := api.NewRouter(pipe, cdrRepo, agg, rates)

	logging.Sugar.Infof("[server] CDR Processing Pipeline")
	logging.Sugar.Infof("[server] Listening on http://localhost:%s", port)
	logging.Sugar.Infof("[server] Endpoints:")
	logging.Sugar.Infof("  POST   /cdr")
	logging.Sugar.Infof("  POST   /cdr/batch")
	logging.Sugar.Infof("  POST   /cdr/import")
	logging.Sugar.Infof("  GET    /cdr")
	logging.Sugar.Infof("  GET    /cdr/{call_id}")
	logging.Sugar.Infof("  DELETE /cdr/{call_id}")
	logging.Sugar.Infof("  GET    /analytics/{summary,costs,carriers,geographic,traffic}")
	logging.Sugar.Infof("  GET    /rates/carriers")
	logging.Sugar.Infof("  POST   /rates/reload")
	logging.Sugar.Infof("  GET    /export")
	logging.Sugar.Infof("  GET    /health")
	logging.Sugar.Infof("  GET    /stats")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		logging.Sugar.Fatalf("[server] Server failed: %v", err)
	}
}
