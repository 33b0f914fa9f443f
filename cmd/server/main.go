package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"vizboard/internal/api"
	"vizboard/internal/catalog"
	"vizboard/internal/dashboard"
	"vizboard/internal/engine"
	"vizboard/internal/store"
)

// Config is the server's runtime configuration, assembled from defaults plus
// environment overrides.
type Config struct {
	Port     string
	DataFile string
	StoreDSN string
}

func loadConfig() Config {
	cfg := Config{
		Port:     "8080",
		DataFile: "sales.csv",
		StoreDSN: "file:vizboard.db?cache=shared",
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATA_FILE"); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv("STORE_DSN"); v != "" {
		cfg.StoreDSN = v
	}
	return cfg
}

func main() {
	cfg := loadConfig()

	// 1. Initialize Echo (starts instantly)
	e := echo.New()
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// 2. Open the snapshot store. The dashboard still works without it;
	// save/load endpoints report 503.
	var st *store.Store
	if cfg.StoreDSN != "" {
		opened, closeFn, err := store.Open(context.Background(), cfg.StoreDSN)
		if err != nil {
			log.Printf("WARNING: snapshot store unavailable: %v", err)
		} else {
			st = opened
			defer closeFn()
		}
	}

	// 3. Wire the session and register routes against an empty table store.
	// The API is live immediately; data endpoints return 503 until the
	// background load finishes.
	tables := engine.NewTableStore()
	session := dashboard.NewSession("Untitled dashboard", tables)
	h := api.NewHandler(session, catalog.New(), tables, st)
	h.RegisterRoutes(e)

	// 4. Ingest the data file in the background.
	go func() {
		log.Printf("BACKGROUND: loading %s...", cfg.DataFile)
		t0 := time.Now()

		name := strings.TrimSuffix(filepath.Base(cfg.DataFile), filepath.Ext(cfg.DataFile))
		table, err := engine.LoadTable(cfg.DataFile, name)
		if err != nil {
			log.Printf("BACKGROUND: load failed: %v", err)
			return
		}
		tables.Add(table)

		log.Printf("BACKGROUND: load complete in %v. API is fully ready.", time.Since(t0))
	}()

	// 5. Start the server
	log.Printf("Server ready on port %s (data loading in background...)", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
