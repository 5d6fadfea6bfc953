// Package migrate applies the embedded goose SQL migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

// ErrUnknownCommand is returned by Run for commands other than up, down and status.
var ErrUnknownCommand = errors.New("unknown migrate command")

// Migrations returns the embedded migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewProvider returns a goose provider for the embedded Postgres migrations.
func NewProvider(db *sql.DB) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, Migrations())
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Run executes up, down or status.
func Run(ctx context.Context, db *sql.DB, command string) error {
	p, err := NewProvider(db)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := p.Up(ctx)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		for _, r := range results {
			slog.Info("migration applied", "version", r.Source.Version, "duration", r.Duration)
		}
		if len(results) == 0 {
			slog.Info("migrations up to date")
		}
	case "down":
		r, err := p.Down(ctx)
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		slog.Info("migration rolled back", "version", r.Source.Version)
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, s := range statuses {
			slog.Info("migration status", "version", s.Source.Version, "path", s.Source.Path, "state", s.State, "applied_at", s.AppliedAt)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	return nil
}
