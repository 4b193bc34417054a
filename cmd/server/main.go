package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lariat-iot/audiogate/internal/ingest"
	"github.com/lariat-iot/audiogate/internal/logging"
	"github.com/lariat-iot/audiogate/internal/registry"
	"github.com/lariat-iot/audiogate/internal/storage"
	"github.com/lariat-iot/audiogate/internal/transport"
	"github.com/lariat-iot/audiogate/pkg/config"
)

func main() {
	log.Println("Starting audiogate ingest service...")

	cfg := config.Load()
	logger := logging.Default{}

	var reg *registry.SessionRegistry
	if cfg.RegistryEnabled {
		var err error
		reg, err = registry.New(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePass, logger)
		if err != nil {
			log.Fatalf("Failed to initialize session registry: %v", err)
		}
		defer reg.Close()
	} else {
		log.Println("SessionRegistry disabled (REGISTRY_ENABLED=false); registry writes are no-ops")
	}

	uploadCfg := storage.Config{
		Enabled:        cfg.UploadEnabled,
		UploadBin:      cfg.UploadBin,
		UploadWav:      cfg.UploadWav,
		Prefix:         cfg.UploadPrefix,
		Bucket:         cfg.UploadBucket,
		Region:         cfg.UploadRegion,
		ServiceURL:     cfg.UploadServiceURL,
		ForcePathStyle: cfg.UploadPathStyle,
	}
	if cfg.UploadProvider == "s3compatible" {
		uploadCfg.Provider = storage.ProviderS3Compatible
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uploader, err := storage.New(ctx, uploadCfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize object uploader: %v", err)
	}

	depsFactory := func() ingest.SessionDeps {
		return ingest.SessionDeps{
			Clock:      ingest.SystemClock(),
			FileSystem: ingest.OSFileSystem(),
			Uploader:   uploader,
			Registry:   reg,
			Config: ingest.Config{
				BaseDir:          cfg.ReceivedDir,
				Prefix:           cfg.UploadPrefix,
				RotationInterval: time.Duration(cfg.RotationIntervalSecs * float64(time.Second)),
			},
			Logger: logger,
		}
	}

	mux := transport.NewServeMux(depsFactory, logger)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("=== audiogate is running on %s ===", cfg.ListenAddr)
		log.Printf("Received files root: %s", cfg.ReceivedDir)
		log.Printf("Upload enabled: %v, provider: %s, bucket: %s", cfg.UploadEnabled, cfg.UploadProvider, cfg.UploadBucket)
		log.Printf("Session registry enabled: %v", cfg.RegistryEnabled)
		log.Println("Press Ctrl+C to exit...")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Shutdown complete. Goodbye!")
}
