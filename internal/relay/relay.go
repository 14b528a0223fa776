// Package relay forwards photo inserts for one session from a change feed to
// a single consumer.
package relay

import (
	"context"
	"errors"
	"fmt"
	"photo-relay/internal/models"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyStarted = errors.New("relay has already been started")

type State int

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateSubscribed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnsubscribed:
		return "unsubscribed"
	case StateSubscribing:
		return "subscribing"
	case StateSubscribed:
		return "subscribed"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Subscription is a stream of inserted photos filtered to one session. The
// channel is closed once the subscription ends for any reason.
type Subscription interface {
	Events() <-chan models.Photo
	Close()
}

type Feed interface {
	Subscribe(ctx context.Context, sessionID uuid.UUID) (Subscription, error)
}

// Relay is single use: Start moves it out of Unsubscribed once, Close ends it
// for good. A new session needs a new Relay.
type Relay struct {
	feed    Feed
	deliver func(models.Photo)

	mu        sync.Mutex
	state     State
	sessionID uuid.UUID
	sub       Subscription
	done      chan struct{}

	// deliverMu is held around every deliver call so Close can wait out an
	// in-flight delivery before returning.
	deliverMu sync.Mutex
	stopped   bool
}

func New(feed Feed, deliver func(models.Photo)) *Relay {
	return &Relay{
		feed:    feed,
		deliver: deliver,
		state:   StateUnsubscribed,
	}
}

func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Relay) SessionID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// Start subscribes to inserts for sessionID and begins delivering them in
// feed order. deliver must not call Close.
func (r *Relay) Start(ctx context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	if r.state != StateUnsubscribed {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.state = StateSubscribing
	r.sessionID = sessionID
	r.mu.Unlock()

	sub, err := r.feed.Subscribe(ctx, sessionID)
	if err != nil {
		r.mu.Lock()
		r.state = StateClosed
		r.mu.Unlock()
		return fmt.Errorf("failed to subscribe to session %s: %w", sessionID, err)
	}

	r.mu.Lock()
	if r.state == StateClosed {
		// Closed while the subscription was being established.
		r.mu.Unlock()
		sub.Close()
		return nil
	}
	r.state = StateSubscribed
	r.sub = sub
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go r.pump(sub, sessionID, done)
	return nil
}

func (r *Relay) pump(sub Subscription, sessionID uuid.UUID, done chan struct{}) {
	defer close(done)
	for photo := range sub.Events() {
		if photo.SessionID != sessionID {
			continue
		}
		r.deliverMu.Lock()
		if r.stopped {
			r.deliverMu.Unlock()
			return
		}
		r.deliver(photo)
		r.deliverMu.Unlock()
	}

	r.mu.Lock()
	closing := r.state == StateClosed
	r.mu.Unlock()
	if !closing {
		log.Warn().Str("session_id", sessionID.String()).Msg("change feed ended, relay stops delivering")
	}
}

// Close releases the feed subscription. When Close returns no further
// deliveries happen. Calling it again, or before Start, is a no-op.
func (r *Relay) Close() {
	r.mu.Lock()
	if r.state == StateClosed {
		r.mu.Unlock()
		return
	}
	r.state = StateClosed
	sub := r.sub
	r.mu.Unlock()

	r.deliverMu.Lock()
	r.stopped = true
	r.deliverMu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// Wait blocks until the delivery goroutine has exited.
func (r *Relay) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}
