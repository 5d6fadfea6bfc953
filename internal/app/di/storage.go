package di

import (
	"context"
	"log/slog"

	"contacts_backend/internal/config"
	usersusecase "contacts_backend/internal/feature/users/usecase"
	"contacts_backend/internal/platform/storage"
)

// NewAvatarStore returns the S3 avatar store, or a store that rejects
// uploads when no bucket is configured.
func NewAvatarStore(ctx context.Context, cfg config.S3Config) (usersusecase.AvatarStore, error) {
	if !cfg.Enabled() {
		slog.Warn("S3_BUCKET not set, avatar uploads disabled")
		return storage.DisabledStore{}, nil
	}
	sc := storage.Config{
		Bucket:     cfg.Bucket,
		Region:     cfg.Region,
		Endpoint:   cfg.Endpoint,
		AccessKey:  cfg.AccessKey,
		SecretKey:  cfg.SecretKey,
		PublicBase: cfg.PublicBase,
		PathStyle:  cfg.PathStyle,
	}
	client, err := storage.NewS3Client(ctx, sc)
	if err != nil {
		return nil, err
	}
	return storage.NewAvatarStore(client, sc), nil
}
