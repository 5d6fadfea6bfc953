// Package db はPostgresのコネクションプールを開きます。
package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"contacts_backend/internal/config"
)

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// Opener はDSNからgormの接続を開きます。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN はDB_URLが設定されていればそのまま返し、未設定ならPG_*の設定から
// libpq形式のkey/value DSNを組み立てます。
func BuildDSN(cfg config.DBConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		quote(cfg.Host), quote(cfg.User), quote(cfg.Password), quote(cfg.Name), cfg.Port, quote(cfg.SSLMode))
}

// ConnectWithRetry は成功するかtimeoutを過ぎるまでopenを呼び続けます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// OpenDB はPostgresに接続してコネクションプールを設定し、
// 疎通を確認します。
func OpenDB(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := ConnectWithRetry(BuildDSN(cfg), cfg.ConnectTimeout, openPostgres)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	slog.Info("database connected", "host", cfg.Host, "name", cfg.Name)
	return db, nil
}

func openPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// quote は空文字、または空白・引用符・バックスラッシュを含むDSNの値を
// シングルクォートで囲みます。
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
