package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Teacher is an account that owns classes and reviews excuses.
type Teacher struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository persists teacher accounts and refresh tokens.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateTeacher(ctx context.Context, t Teacher) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teachers (id, username, password_hash) VALUES ($1,$2,$3)`,
		t.ID, t.Username, t.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert teacher: %w", err)
	}
	return nil
}

func (r *Repository) TeacherByUsername(ctx context.Context, username string) (*Teacher, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM teachers WHERE username = $1`,
		username)
	var t Teacher
	err := row.Scan(&t.ID, &t.Username, &t.PasswordHash, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher by username: %w", err)
	}
	return &t, nil
}

func (r *Repository) TeacherByID(ctx context.Context, id string) (*Teacher, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM teachers WHERE id = $1`, id)
	var t Teacher
	err := row.Scan(&t.ID, &t.Username, &t.PasswordHash, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &t, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, teacherID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE teachers SET password_hash = $1 WHERE id = $2`, passwordHash, teacherID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("teacher not found")
	}
	return nil
}

func (r *Repository) SaveRefreshToken(ctx context.Context, token, teacherID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, teacher_id, expires_at) VALUES ($1,$2,$3)`,
		token, teacherID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken revokes a live token and returns its owner.
// Revoked, expired or unknown tokens all return sql.ErrNoRows.
func (r *Repository) ConsumeRefreshToken(ctx context.Context, token string) (string, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE
		 WHERE token = $1 AND NOT revoked AND expires_at > NOW()
		 RETURNING teacher_id`,
		token)
	var teacherID string
	if err := row.Scan(&teacherID); err != nil {
		return "", err
	}
	return teacherID, nil
}

// RevokeTeacherTokens invalidates every live refresh token of one
// teacher, e.g. after a password reset.
func (r *Repository) RevokeTeacherTokens(ctx context.Context, teacherID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE teacher_id = $1 AND NOT revoked`,
		teacherID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
