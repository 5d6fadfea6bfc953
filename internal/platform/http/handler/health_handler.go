// Package handler はプラットフォーム共通のHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"contacts_backend/internal/api"
)

// Health は /healthz の死活監視エンドポイントを処理します。
// どのメソッドにも応答し、キャッシュさせません。
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case "HEAD":
		c.Status(200)
	case "OPTIONS":
		c.Status(204)
	default:
		c.JSON(200, gin.H{"status": "ok"})
	}
}

// Root は GET / を処理します。
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Hello World"})
}

// DBHealth は /api/healthchecker のハンドラーを返します。
// db に対して SELECT 1 を実行します。
func DBHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		var one int
		err := db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
		if err != nil || one != 1 {
			slog.Error("database health check failed", "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "Error connecting to the database"})
			return
		}
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Welcome to the Contacts API!"})
	}
}
