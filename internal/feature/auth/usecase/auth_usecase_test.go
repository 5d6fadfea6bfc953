package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contacts_backend/internal/feature/auth/domain/entity"
)

// mockUserRepository is a func-field mock of UserRepository. When a func is
// nil it falls back to an in-memory store keyed by email.
type mockUserRepository struct {
	CreateFunc             func(ctx context.Context, user *entity.User) error
	FindByEmailFunc        func(ctx context.Context, email string) (*entity.User, error)
	UpdateRefreshTokenFunc func(ctx context.Context, user *entity.User, token *string) error

	mu            sync.Mutex
	users         map[string]*entity.User
	nextID        uint
	uncachedCalls int
}

func newMockUserRepository(seed ...*entity.User) *mockUserRepository {
	m := &mockUserRepository{users: map[string]*entity.User{}}
	for _, u := range seed {
		m.nextID++
		u.ID = m.nextID
		m.users[u.Email] = u
	}
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return ErrEmailAlreadyExists
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// FindByEmailUncached always reads the in-memory store, ignoring FindByEmailFunc.
func (m *mockUserRepository) FindByEmailUncached(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uncachedCalls++
	u, ok := m.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepository) UpdateRefreshToken(ctx context.Context, user *entity.User, token *string) error {
	if m.UpdateRefreshTokenFunc != nil {
		return m.UpdateRefreshTokenFunc(ctx, user, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[user.Email]; ok {
		u.RefreshToken = token
	}
	user.RefreshToken = token
	return nil
}

func (m *mockUserRepository) MarkConfirmed(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return ErrUserNotFound
	}
	u.Confirmed = true
	return nil
}

func (m *mockUserRepository) UpdatePassword(_ context.Context, email, hash string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Password = hash
	cp := *u
	return &cp, nil
}

func (m *mockUserRepository) stored(email string) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[email]
}

// fakeTokens issues readable tokens of the form "<scope>|<email>|<n>".
type fakeTokens struct {
	mu  sync.Mutex
	seq int
}

func (f *fakeTokens) issue(scope, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s|%s|%d", scope, email, f.seq), nil
}

func (f *fakeTokens) decode(token string) (scope, email string, err error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 {
		return "", "", ErrInvalidToken
	}
	return parts[0], parts[1], nil
}

func (f *fakeTokens) IssueAccess(email string) (string, error)  { return f.issue("access", email) }
func (f *fakeTokens) IssueRefresh(email string) (string, error) { return f.issue("refresh", email) }
func (f *fakeTokens) IssueEmailAction(email string) (string, error) {
	return f.issue("", email)
}

func (f *fakeTokens) VerifyAccess(token string) (string, error) {
	scope, email, err := f.decode(token)
	if err != nil {
		return "", err
	}
	if scope != "access" {
		return "", ErrInvalidScope
	}
	return email, nil
}

func (f *fakeTokens) VerifyRefresh(token string) (string, error) {
	scope, email, err := f.decode(token)
	if err != nil {
		return "", err
	}
	if scope != "refresh" {
		return "", ErrInvalidScope
	}
	return email, nil
}

func (f *fakeTokens) ExtractEmailAction(token string) (string, error) {
	_, email, err := f.decode(token)
	if err != nil {
		return "", ErrUnprocessableToken
	}
	return email, nil
}

// plainHasher prefixes the password so hashes are distinguishable from input.
type plainHasher struct{ err error }

func (h plainHasher) Hash(p string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + p, nil
}

func (h plainHasher) Verify(p, hash string) (bool, error) {
	if !strings.HasPrefix(hash, "hashed:") {
		return false, errors.New("malformed hash")
	}
	return hash == "hashed:"+p, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (r *recordingNotifier) Notify(n entity.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Notification(nil), r.sent...)
}

func newTestUsecase(repo *mockUserRepository) (*authUsecase, *recordingNotifier) {
	n := &recordingNotifier{}
	avatar := func(email string) string { return "https://avatar.test/" + email }
	return NewAuthUsecase(repo, &fakeTokens{}, plainHasher{}, n, avatar), n
}

func confirmedUser(email string) *entity.User {
	return &entity.User{Username: "agent", Email: email, Password: "hashed:12345678", Confirmed: true}
}

func TestAuthUsecase_Signup(t *testing.T) {
	t.Parallel()

	t.Run("successful signup", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository()
		uc, notifier := newTestUsecase(repo)

		user, err := uc.Signup(context.Background(), "agent007", "agent007@gmail.com", "12345678", "http://localhost:8000/")

		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "agent007@gmail.com", user.Email)
		assert.NotEqual(t, "12345678", user.Password)
		assert.False(t, user.Confirmed)
		require.NotNil(t, user.Avatar)
		assert.Equal(t, "https://avatar.test/agent007@gmail.com", *user.Avatar)

		sent := notifier.all()
		require.Len(t, sent, 1)
		assert.Equal(t, entity.NotifyConfirm, sent[0].Kind)
		assert.Equal(t, "agent007@gmail.com", sent[0].Email)
		assert.Equal(t, "agent007", sent[0].Username)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository(confirmedUser("taken@example.com"))
		uc, notifier := newTestUsecase(repo)

		_, err := uc.Signup(context.Background(), "someone", "taken@example.com", "12345678", "")

		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
		assert.Empty(t, notifier.all())
	})

	t.Run("duplicate detected by insert", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository()
		repo.CreateFunc = func(context.Context, *entity.User) error { return ErrEmailAlreadyExists }
		uc, notifier := newTestUsecase(repo)

		_, err := uc.Signup(context.Background(), "someone", "race@example.com", "12345678", "")

		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
		assert.Empty(t, notifier.all())
	})

	t.Run("lookup failure", func(t *testing.T) {
		t.Parallel()
		dbErr := errors.New("database error")
		repo := newMockUserRepository()
		repo.FindByEmailFunc = func(context.Context, string) (*entity.User, error) { return nil, dbErr }
		uc, _ := newTestUsecase(repo)

		_, err := uc.Signup(context.Background(), "someone", "x@example.com", "12345678", "")

		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("password over 72 bytes", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository()
		uc, notifier := newTestUsecase(repo)

		_, err := uc.Signup(context.Background(), "someone", "x@example.com", strings.Repeat("é", 40), "")

		assert.ErrorIs(t, err, ErrPasswordTooLong)
		assert.Nil(t, repo.stored("x@example.com"))
		assert.Empty(t, notifier.all())
	})

	t.Run("hash failure", func(t *testing.T) {
		t.Parallel()
		hashErr := errors.New("too long")
		uc := NewAuthUsecase(newMockUserRepository(), &fakeTokens{}, plainHasher{err: hashErr}, &recordingNotifier{}, nil)

		_, err := uc.Signup(context.Background(), "someone", "x@example.com", "12345678", "")

		assert.ErrorIs(t, err, hashErr)
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"success", "ok@example.com", "12345678", nil},
		{"unknown email", "nobody@example.com", "12345678", ErrInvalidEmail},
		{"not confirmed", "new@example.com", "12345678", ErrEmailNotConfirmed},
		{"wrong password", "ok@example.com", "wrong", ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := newMockUserRepository(
				confirmedUser("ok@example.com"),
				&entity.User{Username: "agent", Email: "new@example.com", Password: "hashed:12345678"},
			)
			uc, _ := newTestUsecase(repo)

			pair, err := uc.Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pair)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken)
			assert.NotEmpty(t, pair.RefreshToken)
			stored := repo.stored(tt.email)
			require.NotNil(t, stored.RefreshToken)
			assert.Equal(t, pair.RefreshToken, *stored.RefreshToken)
		})
	}

	t.Run("stale cached hash is not used after a password change", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository(confirmedUser("ok@example.com"))
		stale := *repo.stored("ok@example.com")
		repo.FindByEmailFunc = func(context.Context, string) (*entity.User, error) {
			cp := stale
			return &cp, nil
		}
		uc, _ := newTestUsecase(repo)
		_, err := repo.UpdatePassword(context.Background(), "ok@example.com", "hashed:newpass")
		require.NoError(t, err)

		_, err = uc.Login(context.Background(), "ok@example.com", "12345678")
		assert.ErrorIs(t, err, ErrInvalidPassword)
		assert.Equal(t, 1, repo.uncachedCalls)
	})

	t.Run("malformed stored hash", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository(&entity.User{Username: "agent", Email: "broken@example.com", Password: "garbage", Confirmed: true})
		uc, _ := newTestUsecase(repo)

		_, err := uc.Login(context.Background(), "broken@example.com", "12345678")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidPassword)
	})
}

func TestAuthUsecase_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("rotation invalidates the old token", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository(confirmedUser("ok@example.com"))
		uc, _ := newTestUsecase(repo)
		ctx := context.Background()

		first, err := uc.Login(ctx, "ok@example.com", "12345678")
		require.NoError(t, err)

		second, err := uc.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
		assert.Equal(t, second.RefreshToken, *repo.stored("ok@example.com").RefreshToken)

		_, err = uc.Refresh(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		assert.Nil(t, repo.stored("ok@example.com").RefreshToken, "replay must log the user out")

		_, err = uc.Refresh(ctx, second.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken, "the current token is gone after a replay")
	})

	t.Run("wrong scope", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository(confirmedUser("ok@example.com"))
		uc, _ := newTestUsecase(repo)

		pair, err := uc.Login(context.Background(), "ok@example.com", "12345678")
		require.NoError(t, err)

		_, err = uc.Refresh(context.Background(), pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidScope)
	})

	t.Run("undecodable token", func(t *testing.T) {
		t.Parallel()
		uc, _ := newTestUsecase(newMockUserRepository())

		_, err := uc.Refresh(context.Background(), "garbage")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("user vanished", func(t *testing.T) {
		t.Parallel()
		uc, _ := newTestUsecase(newMockUserRepository())

		_, err := uc.Refresh(context.Background(), "refresh|ghost@example.com|1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("stale cached read does not revive a rotated token", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository(confirmedUser("ok@example.com"))
		uc, _ := newTestUsecase(repo)
		ctx := context.Background()

		first, err := uc.Login(ctx, "ok@example.com", "12345678")
		require.NoError(t, err)
		stale := *repo.stored("ok@example.com")
		repo.FindByEmailFunc = func(context.Context, string) (*entity.User, error) {
			cp := stale
			return &cp, nil
		}

		_, err = uc.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)

		_, err = uc.Refresh(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		assert.Nil(t, repo.stored("ok@example.com").RefreshToken)
	})

	t.Run("logged out user", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository(confirmedUser("ok@example.com"))
		uc, _ := newTestUsecase(repo)

		_, err := uc.Refresh(context.Background(), "refresh|ok@example.com|1")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestAuthUsecase_ConfirmEmail(t *testing.T) {
	t.Parallel()

	repo := newMockUserRepository(&entity.User{Username: "agent", Email: "new@example.com", Password: "hashed:x"})
	uc, _ := newTestUsecase(repo)
	ctx := context.Background()
	token := "|new@example.com|1"

	already, err := uc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, already)
	assert.True(t, repo.stored("new@example.com").Confirmed)

	already, err = uc.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, already)
	assert.True(t, repo.stored("new@example.com").Confirmed)

	_, err = uc.ConfirmEmail(ctx, "|ghost@example.com|2")
	assert.ErrorIs(t, err, ErrVerification)

	_, err = uc.ConfirmEmail(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnprocessableToken)
}

func TestAuthUsecase_RequestConfirmation(t *testing.T) {
	t.Parallel()

	repo := newMockUserRepository(
		confirmedUser("done@example.com"),
		&entity.User{Username: "pending", Email: "pending@example.com", Password: "hashed:x"},
	)
	uc, notifier := newTestUsecase(repo)
	ctx := context.Background()

	already, err := uc.RequestConfirmation(ctx, "done@example.com", "http://h/")
	require.NoError(t, err)
	assert.True(t, already)

	already, err = uc.RequestConfirmation(ctx, "nobody@example.com", "http://h/")
	require.NoError(t, err)
	assert.False(t, already)

	already, err = uc.RequestConfirmation(ctx, "pending@example.com", "http://h/")
	require.NoError(t, err)
	assert.False(t, already)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "pending@example.com", sent[0].Email)
	assert.Equal(t, entity.NotifyConfirm, sent[0].Kind)
	assert.Equal(t, "http://h/", sent[0].BaseURL)
}

func TestAuthUsecase_ForgetPassword(t *testing.T) {
	t.Parallel()

	repo := newMockUserRepository(confirmedUser("ok@example.com"))
	uc, notifier := newTestUsecase(repo)
	ctx := context.Background()

	assert.NoError(t, uc.ForgetPassword(ctx, "ok@example.com", "http://h/"))
	assert.NoError(t, uc.ForgetPassword(ctx, "nobody@example.com", "http://h/"))

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, entity.NotifyReset, sent[0].Kind)
	assert.Equal(t, "ok@example.com", sent[0].Email)
}

func TestAuthUsecase_ResetPassword(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository(confirmedUser("ok@example.com"))
		uc, notifier := newTestUsecase(repo)

		user, err := uc.ResetPassword(context.Background(), "|ok@example.com|1", "newpassword", "http://h/")

		require.NoError(t, err)
		assert.Equal(t, "ok@example.com", user.Email)
		assert.Equal(t, "hashed:newpassword", repo.stored("ok@example.com").Password)

		sent := notifier.all()
		require.Len(t, sent, 1)
		assert.Equal(t, entity.NotifyPasswordChanged, sent[0].Kind)

		_, err = uc.Login(context.Background(), "ok@example.com", "newpassword")
		assert.NoError(t, err)
	})

	t.Run("invalid token", func(t *testing.T) {
		t.Parallel()
		uc, notifier := newTestUsecase(newMockUserRepository())

		_, err := uc.ResetPassword(context.Background(), "garbage", "newpassword", "")

		assert.ErrorIs(t, err, ErrInvalidResetToken)
		assert.Empty(t, notifier.all())
	})

	t.Run("password over 72 bytes", func(t *testing.T) {
		t.Parallel()
		repo := newMockUserRepository(confirmedUser("ok@example.com"))
		uc, notifier := newTestUsecase(repo)

		_, err := uc.ResetPassword(context.Background(), "|ok@example.com|1", strings.Repeat("é", 40), "")

		assert.ErrorIs(t, err, ErrPasswordTooLong)
		assert.Equal(t, "hashed:12345678", repo.stored("ok@example.com").Password)
		assert.Empty(t, notifier.all())
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		uc, notifier := newTestUsecase(newMockUserRepository())

		_, err := uc.ResetPassword(context.Background(), "|ghost@example.com|1", "newpassword", "")

		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Empty(t, notifier.all())
	})
}

func TestAuthUsecase_Authenticate(t *testing.T) {
	t.Parallel()

	repo := newMockUserRepository(confirmedUser("ok@example.com"))
	uc, _ := newTestUsecase(repo)
	ctx := context.Background()

	user, err := uc.Authenticate(ctx, "access|ok@example.com|1")
	require.NoError(t, err)
	assert.Equal(t, "ok@example.com", user.Email)

	_, err = uc.Authenticate(ctx, "refresh|ok@example.com|1")
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = uc.Authenticate(ctx, "access|ghost@example.com|1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = uc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthUsecase_Logout(t *testing.T) {
	t.Parallel()

	repo := newMockUserRepository(confirmedUser("ok@example.com"))
	uc, _ := newTestUsecase(repo)
	ctx := context.Background()

	pair, err := uc.Login(ctx, "ok@example.com", "12345678")
	require.NoError(t, err)

	user, err := uc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, uc.Logout(ctx, user))

	assert.Nil(t, repo.stored("ok@example.com").RefreshToken)
	_, err = uc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
