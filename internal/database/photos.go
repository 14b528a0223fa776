package database

import (
	"context"
	"errors"
	"photo-relay/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CreatePhotoParams struct {
	SessionID    uuid.UUID
	FileURL      string
	FileName     *string
	MimeType     *string
	ThumbnailURL *string
}

func (s *PostgresStore) CreatePhoto(ctx context.Context, arg CreatePhotoParams) (*models.Photo, error) {
	query := `
		INSERT INTO uploaded_photos (session_id, file_url, file_name, mime_type, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, file_url, file_name, mime_type, thumbnail_url, created_at
	`
	row := s.db.QueryRow(ctx, query,
		arg.SessionID,
		arg.FileURL,
		arg.FileName,
		arg.MimeType,
		arg.ThumbnailURL,
	)

	var photo models.Photo
	err := row.Scan(
		&photo.ID,
		&photo.SessionID,
		&photo.FileURL,
		&photo.FileName,
		&photo.MimeType,
		&photo.ThumbnailURL,
		&photo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &photo, nil
}

// GetPhotoByID returns nil, nil when no photo has that id.
func (s *PostgresStore) GetPhotoByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	query := `
		SELECT id, session_id, file_url, file_name, mime_type, thumbnail_url, created_at
		FROM uploaded_photos
		WHERE id = $1
	`
	var photo models.Photo
	err := s.db.QueryRow(ctx, query, id).Scan(
		&photo.ID,
		&photo.SessionID,
		&photo.FileURL,
		&photo.FileName,
		&photo.MimeType,
		&photo.ThumbnailURL,
		&photo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &photo, nil
}

func (s *PostgresStore) ListPhotosBySession(ctx context.Context, sessionID uuid.UUID, limit int, offset int) ([]models.Photo, error) {
	query := `
		SELECT id, session_id, file_url, file_name, mime_type, thumbnail_url, created_at
		FROM uploaded_photos
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.Query(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var photo models.Photo
		err := rows.Scan(
			&photo.ID,
			&photo.SessionID,
			&photo.FileURL,
			&photo.FileName,
			&photo.MimeType,
			&photo.ThumbnailURL,
			&photo.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if photos == nil {
		return []models.Photo{}, nil
	}

	return photos, nil
}
