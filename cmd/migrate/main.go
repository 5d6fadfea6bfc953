package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"contacts_backend/internal/config"
	infradb "contacts_backend/internal/platform/db"
	"contacts_backend/internal/platform/logger"
	"contacts_backend/internal/platform/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status")
	flag.Parse()

	if err := run(*cmd); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s failed: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(logger.Options{Service: "migrate", Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})

	db, err := infradb.OpenDB(cfg.DB)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	return migrate.Run(context.Background(), sqlDB, cmd)
}
