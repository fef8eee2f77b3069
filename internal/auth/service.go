package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modchat/modchat-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrBanned is returned when a banned user attempts to log in.
	ErrBanned = errors.New("user is banned")
)

// Service provides authentication and user-directory operations. It is the
// single authority on credentials, ban status, and admin capability.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
	admins    map[string]struct{}
}

// NewService creates a new authentication service. extraAdmins grants the
// admin capability to the named users regardless of their stored role.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig, extraAdmins []string) *Service {
	admins := make(map[string]struct{}, len(extraAdmins))
	for _, name := range extraAdmins {
		admins[name] = struct{}{}
	}
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
		admins:    admins,
	}
}

// Register creates a new user with hashed password and returns a JWT token.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return "", ErrInvalidUsername
	}
	if len(password) < 6 {
		return "", ErrInvalidPassword
	}

	existing, err := s.store.GetUserByUsername(ctx, username)
	if err == nil && existing != nil {
		return "", ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hashedPassword, store.RoleUser)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.Username, s.isAdminUser(user))
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// Login validates credentials and returns a JWT token. Banned users are
// rejected with ErrBanned before the password is checked.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if user.Banned {
		return "", ErrBanned
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.Username, s.isAdminUser(user))
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// Authenticate reports whether the username/password pair is valid for a
// known, not-banned user.
func (s *Service) Authenticate(ctx context.Context, username, password string) bool {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil || user.Banned {
		return false
	}
	return ComparePassword(user.PasswordHash, password) == nil
}

// Exists reports whether the username is registered.
func (s *Service) Exists(ctx context.Context, username string) bool {
	_, err := s.store.GetUserByUsername(ctx, username)
	return err == nil
}

// IsBanned reports whether the username is currently banned. Unknown users
// are not considered banned.
func (s *Service) IsBanned(ctx context.Context, username string) bool {
	user, err := s.store.GetUserByUsername(ctx, username)
	return err == nil && user.Banned
}

// Ban marks the user banned so future logins are rejected.
func (s *Service) Ban(ctx context.Context, username string) error {
	if err := s.store.SetBanned(ctx, username, true); err != nil {
		return fmt.Errorf("ban %s: %w", username, err)
	}
	return nil
}

// IsAdmin reports whether the username carries the admin capability.
func (s *Service) IsAdmin(ctx context.Context, username string) bool {
	if _, ok := s.admins[username]; ok {
		return true
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	return err == nil && user.Role == store.RoleAdmin
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

func (s *Service) isAdminUser(user *store.User) bool {
	if _, ok := s.admins[user.Username]; ok {
		return true
	}
	return user.Role == store.RoleAdmin
}
