package database

import (
	"context"
	"encoding/json"
	"fmt"
	"photo-relay/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const PhotoInsertedChannel = "photo_inserted"

type PhotoPublisher interface {
	Publish(photo models.Photo)
}

// PhotoListener turns NOTIFY payloads from the uploaded_photos insert trigger
// into hub publications. The payload carries ids only; the row is read back
// through the pool. Notifications are only sent on commit, so the row is
// already in place.
type PhotoListener struct {
	pool      *pgxpool.Pool
	store     *PostgresStore
	publisher PhotoPublisher
	retry     time.Duration
}

func NewPhotoListener(pool *pgxpool.Pool, publisher PhotoPublisher) *PhotoListener {
	return &PhotoListener{
		pool:      pool,
		store:     NewStore(pool),
		publisher: publisher,
		retry:     2 * time.Second,
	}
}

// Run blocks until ctx is done. A lost connection is re-acquired after a
// fixed pause; notifications sent while disconnected are not replayed.
func (l *PhotoListener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error().Err(err).Dur("retry_in", l.retry).Msg("photo listener disconnected")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *PhotoListener) listen(ctx context.Context) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	// A listening connection must not go back into the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+PhotoInsertedChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", PhotoInsertedChannel, err)
	}
	log.Info().Str("channel", PhotoInsertedChannel).Msg("photo listener subscribed")

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		inserted, err := DecodePhotoNotification(notification.Payload)
		if err != nil {
			log.Warn().Err(err).Str("payload", notification.Payload).Msg("dropping malformed photo notification")
			continue
		}

		photo, err := l.store.GetPhotoByID(ctx, inserted.ID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Str("photo_id", inserted.ID.String()).Msg("failed to load inserted photo")
			continue
		}
		if photo == nil {
			log.Debug().Str("photo_id", inserted.ID.String()).Msg("inserted photo is already gone")
			continue
		}
		l.publisher.Publish(*photo)
	}
}

// PhotoNotification is the payload of a photo_inserted notification.
type PhotoNotification struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
}

func DecodePhotoNotification(payload string) (PhotoNotification, error) {
	var n PhotoNotification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return n, fmt.Errorf("failed to decode photo notification: %w", err)
	}
	if n.ID == uuid.Nil || n.SessionID == uuid.Nil {
		return n, fmt.Errorf("photo notification without id or session_id")
	}
	return n, nil
}
