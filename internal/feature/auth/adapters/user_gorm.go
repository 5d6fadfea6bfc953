// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"contacts_backend/internal/feature/auth/domain/entity"
	"contacts_backend/internal/feature/auth/usecase"
)

// pgUniqueViolation は unique_violation を表すPostgresのSQLSTATEです。
const pgUniqueViolation = "23505"

// userGorm は UserRepository インターフェースのgorm実装です。
type userGorm struct {
	db *gorm.DB
}

// userGorm が UserRepository を実装していることをコンパイル時に確認します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm はuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーを挿入します。メールアドレスが重複する場合は usecase.ErrEmailAlreadyExists を返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user must not be nil")
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if IsDuplicateKey(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// FindByEmail は一致するユーザーがいない場合 usecase.ErrUserNotFound を返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmailUncached は FindByEmail と同じです。このストアの前段にキャッシュはありません。
func (r *userGorm) FindByEmailUncached(ctx context.Context, email string) (*entity.User, error) {
	return r.FindByEmail(ctx, email)
}

// UpdateRefreshToken はトークン（または NULL）をユーザー行と u に保存します。
func (r *userGorm) UpdateRefreshToken(ctx context.Context, u *entity.User, token *string) error {
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", u.ID).Update("refresh_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	u.RefreshToken = token
	return nil
}

// MarkConfirmed は confirmed=true にします。false に戻すことはありません。
func (r *userGorm) MarkConfirmed(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("email = ?", email).Update("confirmed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// UpdatePassword は保存済みのハッシュを置き換えます。
func (r *userGorm) UpdatePassword(ctx context.Context, email, hash string) (*entity.User, error) {
	return r.updateColumn(ctx, email, "password", hash)
}

// UpdateAvatar はアバターURLを置き換えます。
func (r *userGorm) UpdateAvatar(ctx context.Context, email, url string) (*entity.User, error) {
	return r.updateColumn(ctx, email, "avatar", url)
}

func (r *userGorm) updateColumn(ctx context.Context, email, column string, value any) (*entity.User, error) {
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("email = ?", email).Update(column, value)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, usecase.ErrUserNotFound
	}
	return r.FindByEmail(ctx, email)
}

// IsDuplicateKey は err が一意制約違反かどうかを返します。
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
