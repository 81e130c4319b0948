package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrWeakPassword   = errors.New("password must be at least 8 characters")
	ErrBadToken       = errors.New("invalid or expired refresh token")
)

// Store is the persistence surface the service uses.
type Store interface {
	CreateTeacher(ctx context.Context, t Teacher) error
	TeacherByUsername(ctx context.Context, username string) (*Teacher, error)
	TeacherByID(ctx context.Context, id string) (*Teacher, error)
	UpdatePassword(ctx context.Context, teacherID, passwordHash string) error
	SaveRefreshToken(ctx context.Context, token, teacherID string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, token string) (string, error)
	RevokeTeacherTokens(ctx context.Context, teacherID string) error
}

// Service handles teacher registration, login and token rotation.
type Service struct {
	store      Store
	issuer     string
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(store Store, issuer, signingKey string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		store:      store,
		issuer:     issuer,
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates a teacher account and signs them in.
func (s *Service) Register(ctx context.Context, username, password string) (Teacher, TokenPair, error) {
	if username == "" {
		return Teacher{}, TokenPair{}, errors.New("username is required")
	}
	if len(password) < 8 {
		return Teacher{}, TokenPair{}, ErrWeakPassword
	}
	if dup, err := s.store.TeacherByUsername(ctx, username); err != nil {
		return Teacher{}, TokenPair{}, err
	} else if dup != nil {
		return Teacher{}, TokenPair{}, ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Teacher{}, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	t := Teacher{ID: uuid.NewString(), Username: username, PasswordHash: hash}
	if err := s.store.CreateTeacher(ctx, t); err != nil {
		return Teacher{}, TokenPair{}, err
	}

	pair, err := s.issueAndSave(ctx, t.ID)
	if err != nil {
		return Teacher{}, TokenPair{}, err
	}
	return t, pair, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (Teacher, TokenPair, error) {
	t, err := s.store.TeacherByUsername(ctx, username)
	if err != nil {
		return Teacher{}, TokenPair{}, err
	}
	if t == nil || !CheckPassword(t.PasswordHash, password) {
		return Teacher{}, TokenPair{}, ErrBadCredentials
	}

	pair, err := s.issueAndSave(ctx, t.ID)
	if err != nil {
		return Teacher{}, TokenPair{}, err
	}
	return *t, pair, nil
}

// Refresh rotates a refresh token: the old one is revoked and a fresh
// pair issued in its place.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if _, err := Parse(refreshToken, s.signingKey, s.issuer); err != nil {
		return TokenPair{}, ErrBadToken
	}
	teacherID, err := s.store.ConsumeRefreshToken(ctx, refreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return TokenPair{}, ErrBadToken
	}
	if err != nil {
		return TokenPair{}, err
	}
	return s.issueAndSave(ctx, teacherID)
}

// ResetPassword replaces a teacher's password and invalidates their
// outstanding refresh tokens.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	t, err := s.store.TeacherByUsername(ctx, username)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrBadCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, t.ID, hash); err != nil {
		return err
	}
	return s.store.RevokeTeacherTokens(ctx, t.ID)
}

func (s *Service) issueAndSave(ctx context.Context, teacherID string) (TokenPair, error) {
	pair, err := Issue(teacherID, RoleTeacher, s.issuer, s.signingKey, s.accessTTL, s.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.store.SaveRefreshToken(ctx, pair.RefreshToken, teacherID, pair.RefreshExp); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}
