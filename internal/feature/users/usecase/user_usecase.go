// Package usecase はログイン中ユーザーのプロフィール操作を実装します。
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"contacts_backend/internal/feature/auth/domain/entity"
)

// MaxAvatarBytes はアップロードできるアバターの最大サイズです。
const MaxAvatarBytes = 5 << 20

// UserRepository はこのフィーチャーが書き込むユーザーリポジトリの操作です。
type UserRepository interface {
	UpdateAvatar(ctx context.Context, email, url string) (*entity.User, error)
}

// AvatarStore はアバター画像をアップロードし、公開URLを返します。
type AvatarStore interface {
	Upload(ctx context.Context, userID uint, data []byte, contentType string) (string, error)
}

type userUsecase struct {
	users  UserRepository
	avatar AvatarStore
}

// NewUserUsecase はuserUsecaseの新しいインスタンスを生成します。
func NewUserUsecase(users UserRepository, avatar AvatarStore) *userUsecase {
	return &userUsecase{users: users, avatar: avatar}
}

// Me は認証済みユーザーをそのまま返します。
func (u *userUsecase) Me(_ context.Context, user *entity.User) *entity.User {
	return user
}

// UpdateAvatar はdataをユーザーのアバターとして保存し、更新後のユーザーを返します。
func (u *userUsecase) UpdateAvatar(ctx context.Context, user *entity.User, data []byte) (*entity.User, error) {
	if len(data) > MaxAvatarBytes {
		return nil, ErrAvatarTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrUnsupportedImage, mt.String())
	}

	url, err := u.avatar.Upload(ctx, user.ID, data, mt.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAvatarUpload, err)
	}
	return u.users.UpdateAvatar(ctx, user.Email, url)
}
