// Package service implements account registration and credential checks.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"callcenter_backend/internal/auth/password"
	"callcenter_backend/internal/auth/repository"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/config"
	"callcenter_backend/platform/logger"
)

const (
	accessTokenType = "access"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
}

func New(repo *repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// Register creates a new account with the default role and signs it in.
func (s *Service) Register(ctx context.Context, name, email, plainPassword string) (string, repository.User, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return "", repository.User{}, apperr.Internal("failed to hash password")
	}

	user, err := s.repo.Create(ctx, strings.TrimSpace(name), normalizeEmail(email), hash, RoleUser)
	if err != nil {
		s.log.AuthEvent("register", email, false, err.Error())
		return "", repository.User{}, err
	}

	token, err := s.signJWT(user)
	if err != nil {
		return "", repository.User{}, err
	}

	s.log.AuthEvent("register", user.Email, true, "")
	return token, user, nil
}

// Login verifies credentials and issues an access token. Lookup and compare
// failures collapse into the same error so the endpoint does not leak which
// emails exist.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (string, repository.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		s.log.AuthEvent("login", email, false, "unknown email")
		return "", repository.User{}, apperr.Validation("invalid credentials")
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("login", email, false, "wrong password")
		return "", repository.User{}, apperr.Validation("invalid credentials")
	}

	token, err := s.signJWT(user)
	if err != nil {
		return "", repository.User{}, err
	}

	s.log.AuthEvent("login", user.Email, true, "")
	return token, user, nil
}

// Me returns the account for the authenticated user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ListUsers returns every account. Admin only, enforced at the route.
func (s *Service) ListUsers(ctx context.Context) ([]repository.User, error) {
	return s.repo.List(ctx)
}

// ChangePassword verifies the current password before replacing it.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := password.Compare(user.PasswordHash, current); err != nil {
		return apperr.Validation("current password is incorrect")
	}

	hash, err := password.Hash(next)
	if err != nil {
		return apperr.Internal("failed to hash password")
	}
	return s.repo.UpdatePassword(ctx, userID, hash)
}

// SetRole updates another account's role.
func (s *Service) SetRole(ctx context.Context, userID uuid.UUID, role string) error {
	return s.repo.SetRole(ctx, userID, role)
}

func (s *Service) signJWT(user repository.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"type":  accessTokenType,
		"roles": []string{user.Role},
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   now.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return "", apperr.Internal("failed to sign access token")
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
