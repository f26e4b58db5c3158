package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/typingmaster/backend/internal/auth"
	"github.com/typingmaster/backend/internal/domain"
)

// UserService handles registration, login, and profile reads
type UserService struct {
	store  UserStore
	tokens *auth.TokenManager
	logger *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(store UserStore, tokens *auth.TokenManager, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates an account with zeroed learning state and issues a token
func (s *UserService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
		return nil, domain.ErrInvalidRequest
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		Username:       req.Username,
		PasswordHash:   hash,
		Role:           domain.RoleUser,
		KeyboardLayout: "QWERTY",
		Theme:          "LIGHT",
		SoundEnabled:   true,
		ShowHeatmap:    true,
		Level:          1,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	user.PasswordHash = ""
	return &domain.AuthResponse{Token: token, User: user}, nil
}

// Login verifies credentials and issues a token
func (s *UserService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	user.PasswordHash = ""
	return &domain.AuthResponse{Token: token, User: user}, nil
}

// Get returns a user's profile with cumulative stats
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.store.GetUser(ctx, id)
}
