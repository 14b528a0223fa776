// Package feed is the in-process change feed: photos published to the hub are
// routed to the subscribers of the photo's session and nobody else.
package feed

import (
	"context"
	"photo-relay/internal/metrics"
	"photo-relay/internal/models"
	"photo-relay/internal/relay"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultBufferSize = 64

type Subscription struct {
	hub       *Hub
	sessionID uuid.UUID
	ch        chan models.Photo
	stop      func() bool

	mu     sync.Mutex
	closed bool
}

func (s *Subscription) Events() <-chan models.Photo {
	return s.ch
}

// Close detaches the subscription from the hub and closes its channel.
// Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	if s.stop != nil {
		s.stop()
	}
	metrics.FeedSubscriptions.Dec()
}

func (s *Subscription) trySend(photo models.Photo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- photo:
		return true
	default:
		return false
	}
}

type Hub struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]map[*Subscription]bool
	bufferSize int
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		sessions:   make(map[uuid.UUID]map[*Subscription]bool),
		bufferSize: bufferSize,
	}
}

// Subscribe registers interest in inserts for sessionID. The subscription is
// closed automatically when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, sessionID uuid.UUID) (relay.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &Subscription{
		hub:       h,
		sessionID: sessionID,
		ch:        make(chan models.Photo, h.bufferSize),
	}

	h.mu.Lock()
	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[*Subscription]bool)
	}
	h.sessions[sessionID][sub] = true
	h.mu.Unlock()
	metrics.FeedSubscriptions.Inc()

	sub.mu.Lock()
	sub.stop = context.AfterFunc(ctx, sub.Close)
	sub.mu.Unlock()

	log.Debug().Str("session_id", sessionID.String()).Msg("feed subscription opened")
	return sub, nil
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.sessions[sub.sessionID]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.sessions, sub.sessionID)
			}
			log.Debug().Str("session_id", sub.sessionID.String()).Msg("feed subscription closed")
		}
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the photo;
// the gap is logged and counted but not reported to the subscriber.
func (h *Hub) Publish(photo models.Photo) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.sessions[photo.SessionID] {
		if !sub.trySend(photo) {
			metrics.FeedDropped.Inc()
			log.Warn().
				Str("session_id", photo.SessionID.String()).
				Str("photo_id", photo.ID.String()).
				Msg("subscriber buffer is full, dropping photo")
		}
	}
}

func (h *Hub) Subscribers(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
