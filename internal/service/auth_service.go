package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/questroom/progress-service/internal/domain"
	"github.com/questroom/progress-service/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type AuthResult struct {
	User        *domain.User
	AccessToken string
}

type AuthService struct {
	users      UserStore
	jwt        *security.JWTSigner
	passPolicy security.BcryptConfig
	now        func() time.Time
}

func NewAuthService(users UserStore, jwt *security.JWTSigner, passPolicy security.BcryptConfig, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:      users,
		jwt:        jwt,
		passPolicy: passPolicy,
		now:        now,
	}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	hash, err := security.HashPassword(password, &s.passPolicy)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleStudent,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.jwt.SignAccessToken(u.ID, u.Role, s.now())
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &AuthResult{User: u, AccessToken: token}, nil
}

// Login authenticates by username+password and issues an access token.
// Unknown user and bad password read the same to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		slog.Debug("login password mismatch", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.SignAccessToken(u.ID, u.Role, s.now())
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &AuthResult{User: u, AccessToken: token}, nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

// ClaimsFromToken parses an access token into (userID, role).
func (s *AuthService) ClaimsFromToken(token string) (int64, domain.Role, error) {
	claims, err := s.jwt.ParseAndValidate(token)
	if err != nil {
		return 0, "", err
	}
	id, err := security.SubjectAsUserID(claims)
	if err != nil {
		return 0, "", err
	}
	return id, domain.Role(claims.Role), nil
}
