package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/telecare/session-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when registering an existing username.
	ErrUserExists = errors.New("user already exists")
)

// Identity is the resolved (subject, role) pair behind a bearer credential.
type Identity struct {
	SubjectID int64
	Role      string
}

// Service provides authentication operations.
type Service struct {
	store     store.SubjectStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(subjectStore store.SubjectStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     subjectStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new subject with a hashed password and returns a JWT token.
func (s *Service) Register(ctx context.Context, username, password, role string) (string, error) {
	existing, err := s.store.GetSubjectByUsername(ctx, username)
	if err == nil && existing != nil {
		return "", ErrUserExists
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	subject, err := s.store.CreateSubject(ctx, username, hashed, role)
	if err != nil {
		return "", fmt.Errorf("create subject: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, subject.ID, subject.Role)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Login validates credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	subject, err := s.store.GetSubjectByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if errPwd := ComparePassword(subject.PasswordHash, password); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, subject.ID, subject.Role)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ResolveCredential validates a bearer credential and returns the identity
// it carries. This is what the WebSocket handshake and the HTTP middleware
// call before anything is registered.
func (s *Service) ResolveCredential(tokenString string) (*Identity, error) {
	claims, err := ValidateToken(s.jwtConfig, tokenString)
	if err != nil {
		return nil, err
	}
	return &Identity{SubjectID: claims.SubjectID, Role: claims.Role}, nil
}
