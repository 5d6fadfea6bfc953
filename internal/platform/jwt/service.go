package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"contacts_backend/internal/feature/auth/usecase"
)

// Token scopes. Email-action tokens carry no scope.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
)

// Config holds the key material and lifetimes for the token service.
type Config struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	EmailTTL   time.Duration
}

// Claims is the claim set of every token issued by Service.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and verifies HMAC-signed JWTs for access, refresh and
// email-action purposes. All three share one secret and algorithm.
type Service struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
	now        func() time.Time
}

// NewService validates cfg and returns a Service. Only HS256, HS384 and
// HS512 are accepted.
func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.EmailTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &Service{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		emailTTL:   cfg.EmailTTL,
		now:        time.Now,
	}, nil
}

// IssueAccess returns a short-lived access token for email.
func (s *Service) IssueAccess(email string) (string, error) {
	return s.issue(email, ScopeAccess, s.accessTTL)
}

// IssueRefresh returns a refresh token for email.
func (s *Service) IssueRefresh(email string) (string, error) {
	return s.issue(email, ScopeRefresh, s.refreshTTL)
}

// IssueEmailAction returns a scope-less token for confirmation and reset links.
func (s *Service) IssueEmailAction(email string) (string, error) {
	return s.issue(email, "", s.emailTTL)
}

// VerifyAccess returns the subject of a valid access token.
func (s *Service) VerifyAccess(token string) (string, error) {
	return s.verifyScoped(token, ScopeAccess)
}

// VerifyRefresh returns the subject of a valid refresh token.
func (s *Service) VerifyRefresh(token string) (string, error) {
	return s.verifyScoped(token, ScopeRefresh)
}

// ExtractEmailAction returns the subject of an emailed action token. The
// scope is not checked. Any decode failure is usecase.ErrUnprocessableToken.
func (s *Service) ExtractEmailAction(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", usecase.ErrUnprocessableToken, err)
	}
	return claims.Subject, nil
}

func (s *Service) issue(email, scope string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) verifyScoped(token, scope string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", usecase.ErrInvalidToken, err)
	}
	if claims.Scope != scope {
		return "", usecase.ErrInvalidScope
	}
	return claims.Subject, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
