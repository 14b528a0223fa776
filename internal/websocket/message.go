package websocket

import (
	"encoding/json"
	"photo-relay/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Server to desktop.
const (
	TypeSession = "session"
	TypePhoto   = "photo"
	TypeError   = "error"
)

// Desktop to server.
const (
	TypeReset = "reset"
	TypeRetry = "retry"
)

type Message struct {
	Type    string        `json:"type"`
	Session *SessionInfo  `json:"session,omitempty"`
	Photo   *models.Photo `json:"photo,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type SessionInfo struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	PairingURL string    `json:"pairing_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type Command struct {
	Type string `json:"type"`
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal websocket message")
		return []byte("{}")
	}
	return b
}
