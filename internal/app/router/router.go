// Package router はginエンジンを組み立てます。
package router

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authhandler "contacts_backend/internal/feature/auth/transport/handler"
	contacthandler "contacts_backend/internal/feature/contacts/transport/handler"
	usershandler "contacts_backend/internal/feature/users/transport/handler"
	platformhandler "contacts_backend/internal/platform/http/handler"
	"contacts_backend/internal/platform/http/middleware"
	jwtmw "contacts_backend/internal/platform/jwt"
	"contacts_backend/internal/platform/metrics"
	"contacts_backend/internal/platform/ratelimit"
)

// Handlers は /api 配下にマウントする各フィーチャーのハンドラーです。
type Handlers struct {
	Auth     *authhandler.AuthHandler
	Contacts *contacthandler.ContactHandler
	Users    *usershandler.UserHandler
}

// Options はルーター全体で使う横断的な依存関係を保持します。
type Options struct {
	CORSOrigins   []string
	Authenticator jwtmw.Authenticator
	Limiter       *ratelimit.Limiter
	ListPolicy    ratelimit.Policy
	CreatePolicy  ratelimit.Policy
	Metrics       *metrics.Metrics
	DB            *gorm.DB
}

// NewRouter は共通ミドルウェア、ヘルスチェック、/metrics と各フィーチャーの
// ルートを登録したginエンジンを返します。
// /api/contacts と /api/users は認証必須で、連絡先の一覧と作成にはレート制限がかかります。
func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), opts.Metrics.Middleware())
	if origins := corsOrigins(opts.CORSOrigins); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.New(nil, nil)
	}
	authRequired := jwtmw.AuthRequired(opts.Authenticator)

	// 認証不要
	r.GET("/", platformhandler.Root)
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	if opts.DB != nil {
		r.GET("/api/healthchecker", platformhandler.DBHealth(opts.DB))
	}
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.GET("/refresh_token", h.Auth.RefreshToken)
		auth.GET("/confirmed_email/:token", h.Auth.ConfirmedEmail)
		auth.POST("/request_email", h.Auth.RequestEmail)
		auth.POST("/forget_password", h.Auth.ForgetPassword)
		auth.POST("/reset_password/:token", h.Auth.ResetPassword)
		auth.POST("/logout", authRequired, h.Auth.Logout)
	}

	contacts := api.Group("/contacts", authRequired)
	{
		contacts.GET("", limiter.Middleware(opts.ListPolicy), h.Contacts.List)
		contacts.POST("", limiter.Middleware(opts.CreatePolicy), h.Contacts.Create)
		contacts.GET("/birthday/:days", h.Contacts.Birthdays)
		contacts.GET("/:id", h.Contacts.Get)
		contacts.PUT("/:id", h.Contacts.Update)
		contacts.PATCH("/:id", h.Contacts.PatchStatus)
		contacts.DELETE("/:id", h.Contacts.Delete)
	}

	users := api.Group("/users", authRequired)
	{
		users.GET("/me", h.Users.Me)
		users.PATCH("/avatar", h.Users.UpdateAvatar)
	}

	return r
}

// corsOrigins はCORSミドルウェアが受け付けないスキームなしのオリジンと
// 重複を取り除きます。
func corsOrigins(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			slog.Warn("ignoring CORS origin without scheme", "origin", o)
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
