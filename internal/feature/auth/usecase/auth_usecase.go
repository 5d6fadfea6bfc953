// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"

	"contacts_backend/internal/feature/auth/domain/entity"
)

// MaxPasswordBytes はbcryptが受け付けるパスワードの最大バイト数です。
// リクエスト検証は文字数で数えるため、マルチバイトのパスワードはここで再チェックします。
const MaxPasswordBytes = 72

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーを永続化します。メールアドレスが重複する場合は ErrEmailAlreadyExists を返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail はメールアドレスに一致するユーザーを取得し、存在しない場合は ErrUserNotFound を返します。
	// 結果はキャッシュから返ることがあり、パスワードハッシュとリフレッシュトークンを含まない場合があります。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByEmailUncached はキャッシュを通さずに保存済みの行を読み取ります。
	// パスワードとリフレッシュトークンの照合は必ずこちらを使います。
	FindByEmailUncached(ctx context.Context, email string) (*entity.User, error)

	// UpdateRefreshToken はユーザーにトークンを保存します。nil はログアウトを意味します。
	UpdateRefreshToken(ctx context.Context, user *entity.User, token *string) error

	// MarkConfirmed は confirmed を true にします。
	MarkConfirmed(ctx context.Context, email string) error

	// UpdatePassword はパスワードハッシュを置き換え、更新後のユーザーを返します。
	UpdatePassword(ctx context.Context, email, hash string) (*entity.User, error)
}

// TokenService は署名済みトークンの発行と検証を行います。
type TokenService interface {
	IssueAccess(email string) (string, error)
	IssueRefresh(email string) (string, error)
	VerifyAccess(token string) (string, error)
	VerifyRefresh(token string) (string, error)
	ExtractEmailAction(token string) (string, error)
}

// PasswordHasher はパスワードのハッシュ化と照合を行います。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// Notifier はトランザクションメールの送信を予約します。
// 呼び出し元をブロックせず、失敗を返すこともありません。
type Notifier interface {
	Notify(n entity.Notification)
}

// AvatarFunc は新規アカウントの初期アバターURLを返します。
type AvatarFunc func(email string) string

// authUsecase は認証とセッションのライフサイクルを実装します。
type authUsecase struct {
	users    UserRepository
	tokens   TokenService
	hasher   PasswordHasher
	notifier Notifier
	avatar   AvatarFunc
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。avatar は nil でも構いません。
func NewAuthUsecase(users UserRepository, tokens TokenService, hasher PasswordHasher, notifier Notifier, avatar AvatarFunc) *authUsecase {
	return &authUsecase{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		avatar:   avatar,
	}
}

// Signup は未確認のユーザーを登録し、確認メールを予約します。
func (u *authUsecase) Signup(ctx context.Context, username, email, password, baseURL string) (*entity.User, error) {
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{Username: username, Email: email, Password: hashed}
	if u.avatar != nil {
		if url := u.avatar(email); url != "" {
			user.Avatar = &url
		}
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}

	u.notifier.Notify(entity.Notification{
		Kind: entity.NotifyConfirm, Email: user.Email, Username: user.Username, BaseURL: baseURL,
	})
	return user, nil
}

// Login は確認済みユーザーの資格情報を検証し、トークンペアを発行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (*entity.TokenPair, error) {
	user, err := u.users.FindByEmailUncached(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if !user.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	ok, err := u.hasher.Verify(password, user.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	return u.issuePair(ctx, user)
}

// Refresh はトークンペアをローテーションします。
// 保存済みのトークンと一致しない場合はユーザーをログアウトさせます。
func (u *authUsecase) Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	email, err := u.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmailUncached(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		if err := u.users.UpdateRefreshToken(ctx, user, nil); err != nil {
			return nil, err
		}
		return nil, ErrInvalidRefreshToken
	}

	return u.issuePair(ctx, user)
}

// ConfirmEmail はメールのトークンが示すアカウントを確認済みにします。
// 既に確認済みだった場合は true を返します。
func (u *authUsecase) ConfirmEmail(ctx context.Context, token string) (bool, error) {
	email, err := u.tokens.ExtractEmailAction(token)
	if err != nil {
		return false, err
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, ErrVerification
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}

	if err := u.users.MarkConfirmed(ctx, email); err != nil {
		return false, err
	}
	return false, nil
}

// RequestConfirmation は確認メールを再送します。既に確認済みなら true を返します。
// 未登録のメールアドレスはエラーにしません。
func (u *authUsecase) RequestConfirmation(ctx context.Context, email, baseURL string) (bool, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}

	u.notifier.Notify(entity.Notification{
		Kind: entity.NotifyConfirm, Email: user.Email, Username: user.Username, BaseURL: baseURL,
	})
	return false, nil
}

// ForgetPassword はアカウントが存在する場合にリセットメールを予約します。
// 存在の有無にかかわらず呼び出し元には同じ結果を返します。
func (u *authUsecase) ForgetPassword(ctx context.Context, email, baseURL string) error {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	u.notifier.Notify(entity.Notification{
		Kind: entity.NotifyReset, Email: user.Email, Username: user.Username, BaseURL: baseURL,
	})
	return nil
}

// ResetPassword はメールのトークンが示すアカウントに新しいパスワードを設定します。
func (u *authUsecase) ResetPassword(ctx context.Context, token, newPassword, baseURL string) (*entity.User, error) {
	if len(newPassword) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	email, err := u.tokens.ExtractEmailAction(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResetToken, err)
	}

	if _, err := u.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	}

	hashed, err := u.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	user, err := u.users.UpdatePassword(ctx, email, hashed)
	if err != nil {
		return nil, err
	}

	u.notifier.Notify(entity.Notification{
		Kind: entity.NotifyPasswordChanged, Email: user.Email, Username: user.Username, BaseURL: baseURL,
	})
	return user, nil
}

// Authenticate はアクセストークンからユーザーを解決します。
func (u *authUsecase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	email, err := u.tokens.VerifyAccess(token)
	if err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// Logout は保存済みのリフレッシュトークンを削除します。
func (u *authUsecase) Logout(ctx context.Context, user *entity.User) error {
	return u.users.UpdateRefreshToken(ctx, user, nil)
}

func (u *authUsecase) issuePair(ctx context.Context, user *entity.User) (*entity.TokenPair, error) {
	access, err := u.tokens.IssueAccess(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := u.tokens.IssueRefresh(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	if err := u.users.UpdateRefreshToken(ctx, user, &refresh); err != nil {
		return nil, err
	}
	return &entity.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
