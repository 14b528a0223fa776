package database

import (
	"context"
	"errors"
	"photo-relay/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrSessionCodeTaken = errors.New("session code is already in use")

// CreateSession inserts a session whose expiry is computed by the database
// clock as now() + horizon, so created_at and expires_at share one time base.
func (s *PostgresStore) CreateSession(ctx context.Context, code string, horizon time.Duration) (*models.Session, error) {
	query := `
		INSERT INTO upload_sessions (session_code, expires_at)
		VALUES ($1, now() + make_interval(secs => $2))
		RETURNING id, session_code, created_at, expires_at
	`
	var session models.Session
	err := s.db.QueryRow(ctx, query, code, horizon.Seconds()).Scan(
		&session.ID,
		&session.Code,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSessionCodeTaken
		}
		return nil, err
	}

	return &session, nil
}

func (s *PostgresStore) GetSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	query := `
		SELECT id, session_code, created_at, expires_at
		FROM upload_sessions
		WHERE session_code = $1
	`
	return s.scanSession(s.db.QueryRow(ctx, query, code))
}

func (s *PostgresStore) GetSessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `
		SELECT id, session_code, created_at, expires_at
		FROM upload_sessions
		WHERE id = $1
	`
	return s.scanSession(s.db.QueryRow(ctx, query, id))
}

func (s *PostgresStore) scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.Code,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}
