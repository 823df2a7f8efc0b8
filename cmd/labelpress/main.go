package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"labelpress/internal/audit"
	"labelpress/internal/auth"
	"labelpress/internal/config"
	"labelpress/internal/constants"
	"labelpress/internal/database"
	"labelpress/internal/logger"
	"labelpress/internal/progress"
	"labelpress/internal/server"
	"labelpress/internal/upload"
	"labelpress/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Printf("%s %s\n", constants.AppDisplayName, version.Version)
		os.Exit(0)
	}

	log := logger.NewLogger(constants.DefaultLogLevel)
	log.Info("%s version %s starting", constants.AppDisplayName, version.Version)

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.SetLevel(cfg.LogLevel)

	if cfg.UploadRoot == "" {
		log.Error("No upload root configured — set upload_root in %s or the %s environment variable",
			config.GetConfigPath(), constants.EnvUploadRoot)
		os.Exit(1)
	}

	internalDir := filepath.Join(cfg.UploadRoot, constants.InternalDir)
	if err := os.MkdirAll(internalDir, constants.DirPermissions); err != nil {
		log.Error("Failed to initialize upload root %s: %v", cfg.UploadRoot, err)
		os.Exit(1)
	}
	log.Info("Upload root: %s", cfg.UploadRoot)

	db, err := database.Init(filepath.Join(internalDir, constants.ServiceDB))
	if err != nil {
		log.Error("Failed to open service database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	auditLogger := audit.NewLogger(db, cfg.Audit.MaxLogSizeBytes, cfg.Audit.PurgePercentage)
	log.Debug("Audit logger initialized")

	keys := auth.NewStore(db)
	bootstrap, err := auth.Bootstrap(keys, log)
	if err != nil {
		log.Error("Auth bootstrap failed: %v", err)
		os.Exit(1)
	}
	if bootstrap != nil {
		fmt.Println("╔══════════════════════════════════════════════════════════════╗")
		fmt.Println("║              INITIAL ADMIN API KEY                           ║")
		fmt.Println("║  Save this now — it will NOT be shown again.                 ║")
		fmt.Println("╠══════════════════════════════════════════════════════════════╣")
		fmt.Printf("║  Name    : %-49s ║\n", bootstrap.Name)
		fmt.Printf("║  API Key : %-49s ║\n", bootstrap.APIKey)
		fmt.Println("╚══════════════════════════════════════════════════════════════╝")
		auditLogger.Log(constants.AuditActionKeyCreated, "localhost", "system", audit.KeyCreatedDetails{
			Name:        bootstrap.Name,
			Permissions: []string{constants.PermissionAdmin},
		})
	}

	log.SetWorkDir(cfg.UploadRoot)
	log.Info("File logging enabled in %s", cfg.UploadRoot)
	defer log.Close()

	uploads := upload.NewService(cfg.UploadRoot, log)
	broker := progress.NewBroker()

	srv := server.NewServer(cfg, log, uploads, broker, auditLogger, keys)
	log.Info("Starting %s server on port %d", constants.AppDisplayName, cfg.Port)
	if err := srv.Start(); err != nil {
		log.Error("Server error: %v", err)
		os.Exit(1)
	}
}
