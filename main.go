package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/valve.report/internal/api"
	"github.com/banshee-data/valve.report/internal/config"
	"github.com/banshee-data/valve.report/internal/geometry"
	"github.com/banshee-data/valve.report/internal/ingest"
	"github.com/banshee-data/valve.report/internal/store"
	"github.com/banshee-data/valve.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8000", "Listen address")
	dbFile     = flag.String("db", "valve_measurement.db", "SQLite database path")
	tuningFile = flag.String("tuning", "", "Optional engine tuning config (JSON)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	st, err := store.NewStore(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	// Subcommands run against the opened store and exit.
	if flag.Arg(0) == "migrate" {
		runMigrateCommand(st, flag.Args()[1:])
		return
	}

	cfg := geometry.DefaultConfig()
	if *tuningFile != "" {
		tuning, err := config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		cfg = tuning.Apply(cfg)
		log.Printf("[Main] tuning config applied from %s", *tuningFile)
	}
	engine := geometry.NewEngine(cfg)

	hub := ingest.NewHub()
	lidarHandler := ingest.NewHandler(engine, st, hub, version.Version)
	apiServer := api.NewServer(st, engine, hub.Count, version.Version)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		mux.Handle("/ws/lidar", lidarHandler)
		mux.Handle("/", apiServer.ServeMux())

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("[Main] listening on %s (version %s)", *listen, version.Version)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

func runMigrateCommand(st *store.Store, args []string) {
	if len(args) < 1 {
		printMigrateHelp()
		os.Exit(1)
	}

	switch args[0] {
	case "up":
		log.Printf("Running migrations...")
		if err := st.MigrateUp(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("All migrations applied")

	case "down":
		if err := st.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("Rolled back one migration")

	case "status":
		v, dirty, err := st.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		log.Printf("Schema version: %d (dirty=%v)", v, dirty)

	case "force":
		if len(args) < 2 {
			log.Fatal("Usage: migrate force <version>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid version %q: %v", args[1], err)
		}
		if err := st.MigrateForce(v); err != nil {
			log.Fatalf("Migration force failed: %v", err)
		}
		log.Printf("Schema version forced to %d", v)

	case "help":
		printMigrateHelp()

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", args[0])
		printMigrateHelp()
		os.Exit(1)
	}
}

func printMigrateHelp() {
	fmt.Println(`Usage: valve-report migrate <action>

Actions:
  up       Apply all pending migrations
  down     Roll back the most recent migration
  status   Show the current schema version
  force N  Mark the schema as version N without running migrations
  help     Show this help`)
}
