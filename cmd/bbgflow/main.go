package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bbgflow/archive"
	"bbgflow/config"
	"bbgflow/dlrest"
	"bbgflow/logger"
	"bbgflow/models"
	"bbgflow/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	downloadOnly := flag.Bool("download-only", false, "Download the artifact but skip the relational load step")
	schema := flag.String("schema", "", "Override the store schema name")
	table := flag.String("table", "", "Override the store table name")
	timeoutMinutes := flag.Int("timeout", 0, "Poll timeout in minutes")
	identifiersFile := flag.String("identifiers", "", "Override the identifiers file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		return 1
	}

	if *schema != "" {
		cfg.Store.Schema = *schema
	}
	if *table != "" {
		cfg.Store.Table = *table
	}
	if *timeoutMinutes > 0 {
		cfg.Poll.TimeoutMinutes = *timeoutMinutes
	}
	if *identifiersFile != "" {
		cfg.Paths.IdentifiersFile = *identifiersFile
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		return 1
	}

	log.WithFields(logger.Fields{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	}).Info("starting bloomberg data fetch")

	if cfg.Archive.S3.Enabled || os.Getenv("AWS_REGION") != "" {
		logger.InitCloudWatch(cfg.Archive.S3.Region, cfg.App.Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel)

	identifiers, err := models.LoadIdentifiers(cfg.Paths.IdentifiersFile)
	if err != nil {
		log.WithError(err).Error("Failed to load identifiers")
		return 1
	}
	log.WithFields(logger.Fields{"count": len(identifiers)}).Info("loaded identifiers")

	client, err := dlrest.NewClient(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to initialize API client")
		return 1
	}

	if _, err := client.ResolveScheduledCatalog(ctx); err != nil {
		log.WithError(err).Error("Failed to resolve scheduled catalog")
		return 1
	}

	requestName, requestID, err := client.Submit(ctx, identifiers, nil)
	if err != nil {
		log.WithError(err).Error("Failed to submit data request")
		return 1
	}

	timeout := time.Duration(cfg.Poll.TimeoutMinutes) * time.Minute
	key, ok, err := client.Poll(ctx, requestName, requestID, timeout)
	if err != nil {
		log.WithError(err).Error("Polling for the response failed")
		return 1
	}
	if !ok {
		log.WithFields(logger.Fields{"timeout_minutes": cfg.Poll.TimeoutMinutes}).Error("Response not received within timeout")
		return 1
	}

	path, err := client.Download(ctx, key)
	if err != nil {
		log.WithError(err).Error("Failed to download result")
		return 1
	}
	log.WithFields(logger.Fields{"path": path}).Info("result downloaded")

	if cfg.Archive.S3.Enabled {
		archiveArtifact(ctx, cfg, path)
	}

	if *downloadOnly {
		log.Info("download-only flag set, skipping load step")
		return 0
	}

	if !cfg.StoreConfigured() {
		log.WithFields(logger.Fields{"missing": cfg.MissingStoreKeys()}).Warn("store not configured, skipping load step")
		return 0
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		log.WithError(err).Error("Failed to connect to store")
		return 1
	}
	defer st.Close()

	inserted, err := st.Load(ctx, cfg.Store.Schema, cfg.Store.Table, path)
	if err != nil {
		log.WithError(err).Error("Load step failed")
		return 1
	}

	log.WithFields(logger.Fields{
		"inserted": inserted,
		"schema":   cfg.Store.Schema,
		"table":    cfg.Store.Table,
	}).Info("bloomberg data fetch completed successfully")
	return 0
}

// archiveArtifact uploads the downloaded file to S3. Archiving is
// best-effort: failures are logged and the run continues.
func archiveArtifact(ctx context.Context, cfg *config.Config, path string) {
	log := logger.GetLogger()

	uploader, err := archive.NewUploader(ctx, cfg.Archive.S3)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize S3 uploader, skipping archive step")
		return
	}
	if _, err := uploader.Upload(ctx, path); err != nil {
		log.WithError(err).Warn("Failed to archive artifact")
	}
}

func handleShutdown(cancel context.CancelFunc) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
	cancel()
}
