// Package pairing creates upload sessions and the URLs a phone uses to join
// them.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"photo-relay/internal/database"
	"photo-relay/internal/metrics"
	"photo-relay/internal/models"
	"strings"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/rs/zerolog/log"
)

const UploadRoute = "/upload/"

var (
	ErrSessionCreation = errors.New("failed to create upload session")
	// ErrCodeCollision means the drawn code belongs to another session. It is
	// not retried here; callers may simply try again.
	ErrCodeCollision = errors.New("session code collision")
)

type SessionStore interface {
	CreateSession(ctx context.Context, code string, horizon time.Duration) (*models.Session, error)
}

type Manager struct {
	store    SessionStore
	horizon  time.Duration
	origin   string
	generate func() string
}

func NewManager(store SessionStore, horizon time.Duration, origin string) (*Manager, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("session horizon must be positive, got %s", horizon)
	}
	generate, err := nanoid.CustomASCII(models.CodeAlphabet, models.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize code generator: %w", err)
	}
	return &Manager{
		store:    store,
		horizon:  horizon,
		origin:   origin,
		generate: generate,
	}, nil
}

func (m *Manager) Horizon() time.Duration {
	return m.horizon
}

func (m *Manager) CreateSession(ctx context.Context) (*models.Session, error) {
	code := m.generate()

	session, err := m.store.CreateSession(ctx, code, m.horizon)
	if err != nil {
		if errors.Is(err, database.ErrSessionCodeTaken) {
			metrics.SessionsCreated.WithLabelValues("collision").Inc()
			return nil, fmt.Errorf("%w: %w", ErrSessionCreation, ErrCodeCollision)
		}
		metrics.SessionsCreated.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrSessionCreation, err)
	}

	metrics.SessionsCreated.WithLabelValues("ok").Inc()
	log.Info().
		Str("session_id", session.ID.String()).
		Time("expires_at", session.ExpiresAt).
		Msg("upload session created")
	return session, nil
}

func (m *Manager) PairingURL(code string) string {
	return BuildPairingURL(m.origin, code)
}

func BuildPairingURL(origin, code string) string {
	return strings.TrimRight(origin, "/") + UploadRoute + code
}
