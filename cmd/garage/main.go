// Command garage runs the parking garage gate controller: it polls the
// entrance and exit IR sensors, cycles the gate servos, keeps the
// free-space count and shows it on the display. A status API and an event
// journal run alongside the control loop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/garage.gate/internal/api"
	"github.com/banshee-data/garage.gate/internal/config"
	"github.com/banshee-data/garage.gate/internal/db"
	"github.com/banshee-data/garage.gate/internal/garage"
	"github.com/banshee-data/garage.gate/internal/version"
)

var (
	configPath   = flag.String("config", config.DefaultConfigPath, "Path to the JSON config file")
	dbPath       = flag.String("db-path", "garage.db", "Event journal database (empty disables the journal)")
	listen       = flag.String("listen", ":8080", "Status API listen address (empty disables the API)")
	devMode      = flag.Bool("dev", false, "Run without hardware: replay fixtures, log servo and display output")
	fixtures     = flag.String("fixtures", "config/garage.fixtures.txt", "Sensor script replayed in dev mode")
	loopFixtures = flag.Bool("loop-fixtures", false, "Restart the fixture script when it runs out")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: garage [flags]
       garage [flags] migrate <up|down|status|force|help>
       garage status [-addr URL] [-events N]
       garage [-db-path PATH] backup [-out FILE]

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println("garage", version.String())
		return
	}

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "migrate":
			if err := db.RunMigrateCommand(args[1:], *dbPath); err != nil {
				log.Fatalf("migrate: %v", err)
			}
		case "backup":
			if err := runBackup(os.Stdout, *dbPath, args[1:], time.Now()); err != nil {
				log.Fatalf("backup: %v", err)
			}
		case "status":
			if err := runStatus(context.Background(), os.Stdout, http.DefaultClient, args[1:]); err != nil {
				log.Fatalf("status: %v", err)
			}
		default:
			usage()
			os.Exit(2)
		}
		return
	}

	if err := run(); err != nil {
		log.Fatalf("garage stopped: %v", err)
	}
}

// loadConfig reads the config file. A missing file at the default path is
// not an error: every setting has a built-in default.
func loadConfig(path string) (*config.GarageConfig, error) {
	if path == "" {
		return config.EmptyGarageConfig(), nil
	}
	cfg, err := config.LoadGarageConfig(path)
	if err != nil {
		if path == config.DefaultConfigPath && errors.Is(err, os.ErrNotExist) {
			log.Printf("no config at %s, using built-in defaults", path)
			return config.EmptyGarageConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// run wires the platform, journal and API around the controller and blocks
// until a signal arrives or the control loop reports a fault.
func run() error {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	settings := cfg.Settings()

	var plat *platform
	if *devMode {
		plat, err = openDevPlatform(cfg, *fixtures, *loopFixtures)
	} else {
		plat, err = openHardwarePlatform(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to open platform: %w", err)
	}
	defer func() {
		if err := plat.Close(); err != nil {
			log.Printf("platform close: %v", err)
		}
	}()

	board := garage.NewStatusBoard()
	opts := []garage.Option{garage.WithObserver(board)}

	var journal *db.DB
	if *dbPath != "" {
		journal, err = db.NewDB(*dbPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer journal.Close()

		rec, err := startRun(journal, settings, displayName(cfg, *devMode), time.Now())
		if err != nil {
			return err
		}
		opts = append(opts, garage.WithObserver(rec))
	}

	ctrl, err := garage.NewController(settings, plat.input, plat.gates, plat.display, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		runErr   error
		startErr error
	)

	// control loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
			log.Printf("control loop halted: %v", err)
			return
		}
		log.Print("control loop stopped")
	}()

	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveHTTP(ctx, *listen, board, journal, cfg); err != nil {
				startErr = err
				cancel()
			}
		}()
	}

	wg.Wait()
	log.Printf("shutdown complete, %d free of %d", ctrl.FreeSpaces(), settings.TotalSpaces)
	return errors.Join(runErr, startErr)
}

// startRun records the run's settings and returns the journal observer.
func startRun(journal *db.DB, s garage.Settings, display string, now time.Time) (*db.Recorder, error) {
	run := db.Run{
		ID:           db.NewRunID(),
		TotalSpaces:  s.TotalSpaces,
		PollInterval: s.PollInterval,
		GateHold:     s.GateHold,
		Display:      display,
		Version:      version.Version,
		StartedAt:    now,
	}
	if err := journal.RecordRun(run); err != nil {
		return nil, err
	}
	log.Printf("journal run %s", run.ID)
	return db.NewRecorder(journal, run.ID), nil
}

// newMux mounts the status API and, when the journal is enabled, the
// tsweb debug pages.
func newMux(board *garage.StatusBoard, journal *db.DB, cfg *config.GarageConfig) (*http.ServeMux, error) {
	srv := api.NewServer(board, journal, cfg)
	mux := srv.ServeMux()
	if journal != nil {
		debug, err := journal.AttachAdminRoutes(mux)
		if err != nil {
			return nil, err
		}
		srv.AttachDebugRoutes(debug)
	}
	return mux, nil
}

func serveHTTP(ctx context.Context, addr string, board *garage.StatusBoard, journal *db.DB, cfg *config.GarageConfig) error {
	mux, err := newMux(board, journal, cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	log.Printf("status API listening on %s", addr)

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("HTTP server routine stopped")
	return nil
}
