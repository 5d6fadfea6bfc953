package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SECRET_KEY_JWT", "secret")
	t.Setenv("PG_DB", "contacts")
	t.Setenv("PG_USER", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.App.Port)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.EmailTTL)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, EmailUniqueOwner, cfg.Contacts.EmailUniqueness)
	assert.Equal(t, 10, cfg.RateLimit.ListLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.ListWindow)
	assert.Equal(t, 2, cfg.RateLimit.CreateLimit)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.CreateWindow)
	assert.Equal(t, []string{"http://localhost:3000", "localhost:3000"}, cfg.App.CORSOrigins)
	assert.Empty(t, cfg.Redis.Addr())
	assert.False(t, cfg.S3.Enabled())
	assert.False(t, cfg.Mail.Enabled())
	assert.Equal(t, "http://localhost:8000/", cfg.App.BaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ALGORITHM", "hs512")
	t.Setenv("REDIS_DOMAIN", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CONTACT_EMAIL_UNIQUENESS", "global")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "HS512", cfg.JWT.Algorithm)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr())
	assert.Equal(t, EmailUniqueGlobal, cfg.Contacts.EmailUniqueness)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"SECRET_KEY_JWT": ""}},
		{"asymmetric algorithm", map[string]string{"ALGORITHM": "RS256"}},
		{"unknown email policy", map[string]string{"CONTACT_EMAIL_UNIQUENESS": "sometimes"}},
		{"no database", map[string]string{"PG_DB": "", "DB_URL": ""}},
		{"zero access ttl", map[string]string{"ACCESS_TOKEN_TTL": "0s"}},
		{"empty base url", map[string]string{"APP_BASE_URL": " "}},
		{"relative base url", map[string]string{"APP_BASE_URL": "contacts.example.com"}},
		{"base url with query", map[string]string{"APP_BASE_URL": "https://contacts.example.com/?next=x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://contacts.example.com", "https://contacts.example.com/"},
		{"https://contacts.example.com//", "https://contacts.example.com/"},
		{"http://localhost:8000/app/", "http://localhost:8000/app/"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
