package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/admin"
	"github.com/Wizbisy/anonpoll/crypto/confidential/elgamal"
	"github.com/Wizbisy/anonpoll/crypto/ecc/bn254"
	"github.com/Wizbisy/anonpoll/crypto/ecc/curves"
	"github.com/Wizbisy/anonpoll/db"
	"github.com/Wizbisy/anonpoll/db/metadb"
	"github.com/Wizbisy/anonpoll/ledger"
	"github.com/Wizbisy/anonpoll/log"
	"github.com/Wizbisy/anonpoll/service"
	"github.com/Wizbisy/anonpoll/storage"
)

// Services holds all the running services
type Services struct {
	Storage   *storage.Storage
	Ledger    *ledger.Ledger
	Admin     *admin.Admin
	API       *service.APIService
	Finalizer *service.FinalizerService
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Output)
	log.Infow("starting anonpoll-node", "version", Version)

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := setupServices(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to setup services: %v", err)
	}
	defer shutdownServices(services)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("received signal, shutting down", "signal", sig.String())
}

// setupServices initializes and starts all required services
func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	services := &Services{}

	// Initialize storage database
	log.Infow("initializing storage", "datadir", cfg.Datadir, "type", db.TypePebble)
	database, err := metadb.New(db.TypePebble, cfg.Datadir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	services.Storage = storage.New(database)

	// The encryption scheme reads per-poll keys from storage
	scheme := elgamal.NewScheme(curves.New(bn254.CurveType), services.Storage)

	services.Ledger = ledger.New(services.Storage, scheme, ledger.Config{
		RevealProfile: ledger.RevealProfile(cfg.Reveal.Profile),
		MaxVoteWeight: cfg.MaxWeight,
	})
	services.Admin = admin.New(services.Storage)

	// Bootstrap the owner when provided; harmless if already set to the
	// same address
	if cfg.Owner != "" {
		if err := services.Admin.InitOwner(common.HexToAddress(cfg.Owner)); err != nil {
			return nil, fmt.Errorf("failed to set node owner: %w", err)
		}
	}

	// Start finalizer service when the node drives the reveals itself
	if ledger.RevealProfile(cfg.Reveal.Profile) == ledger.RevealProfileFinalizer {
		log.Infow("starting finalizer service", "monitorInterval", cfg.Reveal.MonitorInterval)
		services.Finalizer = service.NewFinalizer(services.Ledger, scheme)
		if err := services.Finalizer.Start(ctx, cfg.Reveal.MonitorInterval); err != nil {
			return nil, fmt.Errorf("failed to start finalizer service: %w", err)
		}
	}

	// Start API service
	log.Infow("starting API service", "host", cfg.API.Host, "port", cfg.API.Port)
	services.API = service.NewAPI(services.Ledger, services.Admin, cfg.API.Host, cfg.API.Port, false)
	if err := services.API.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start API service: %w", err)
	}

	log.Info("anonpoll-node is running, ready to take votes!")
	return services, nil
}

// shutdownServices gracefully shuts down all services
func shutdownServices(services *Services) {
	if services == nil {
		return
	}

	// Stop services in reverse order of startup
	if services.API != nil {
		services.API.Stop()
	}
	if services.Finalizer != nil {
		services.Finalizer.Stop()
	}
	if services.Storage != nil {
		services.Storage.Close()
	}
}
