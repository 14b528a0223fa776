// Package desktop holds the state of one desktop pairing screen: the session
// it shows and the photos received for it.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"photo-relay/internal/models"
	"photo-relay/internal/relay"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyOpen = errors.New("pairing view is already open")
	// ErrClosed is returned by Open when Close ran before the session was ready.
	ErrClosed = errors.New("pairing view was closed while opening")
)

type State int

const (
	StateClosed State = iota
	StateCreatingSession
	StateAwaitingUploads
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateCreatingSession:
		return "creating_session"
	case StateAwaitingUploads:
		return "awaiting_uploads"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type SessionCreator interface {
	CreateSession(ctx context.Context) (*models.Session, error)
	PairingURL(code string) string
}

type View struct {
	creator SessionCreator
	feed    relay.Feed
	notify  func(models.Photo)

	mu         sync.Mutex
	state      State
	generation uint64
	session    *models.Session
	photos     []models.Photo
	relay      *relay.Relay
}

// NewView returns a closed view. notify, when set, runs after each photo is
// appended and must not call back into the view's Close, Reset or Open.
func NewView(creator SessionCreator, feed relay.Feed, notify func(models.Photo)) *View {
	return &View{
		creator: creator,
		feed:    feed,
		notify:  notify,
	}
}

// Open creates a fresh session and subscribes to its inserts. ctx bounds the
// subscription as well as the creation call. On failure the view is back in
// StateClosed and Open may be called again.
func (v *View) Open(ctx context.Context) error {
	v.mu.Lock()
	if v.state != StateClosed {
		v.mu.Unlock()
		return ErrAlreadyOpen
	}
	v.state = StateCreatingSession
	v.generation++
	gen := v.generation
	v.mu.Unlock()

	session, err := v.creator.CreateSession(ctx)
	if err != nil {
		if !v.abandon(gen) {
			return ErrClosed
		}
		return err
	}

	r := relay.New(v.feed, func(photo models.Photo) {
		v.append(gen, session.ID, photo)
	})

	v.mu.Lock()
	if v.generation != gen {
		v.mu.Unlock()
		return ErrClosed
	}
	v.relay = r
	v.mu.Unlock()

	// Subscribe before the code is shown, so no upload can slip in unseen.
	if err := r.Start(ctx, session.ID); err != nil {
		r.Close()
		if !v.abandon(gen) {
			// Close got to the relay before Start did.
			return ErrClosed
		}
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation != gen {
		return ErrClosed
	}
	v.session = session
	v.state = StateAwaitingUploads

	log.Debug().Str("session_id", session.ID.String()).Msg("pairing view open")
	return nil
}

// abandon puts the view back to closed unless another Open or Close already
// moved it on. It reports whether gen was still current.
func (v *View) abandon(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation != gen {
		return false
	}
	v.state = StateClosed
	v.relay = nil
	return true
}

// Close stops the relay and forgets the session and its photos. Stored rows
// are left alone. Closing a closed view does nothing.
func (v *View) Close() {
	v.mu.Lock()
	if v.state == StateClosed {
		v.mu.Unlock()
		return
	}
	v.state = StateClosed
	v.generation++
	r := v.relay
	v.relay = nil
	v.session = nil
	v.photos = nil
	v.mu.Unlock()

	if r != nil {
		r.Close()
	}
}

// Reset closes the current session and opens a new one.
func (v *View) Reset(ctx context.Context) error {
	v.Close()
	return v.Open(ctx)
}

func (v *View) append(gen uint64, sessionID uuid.UUID, photo models.Photo) {
	v.mu.Lock()
	if v.generation != gen || photo.SessionID != sessionID {
		v.mu.Unlock()
		return
	}
	v.photos = append(v.photos, photo)
	v.mu.Unlock()

	if v.notify != nil {
		v.notify(photo)
	}
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Photos returns the photos of the current session in arrival order.
func (v *View) Photos() []models.Photo {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Photo, len(v.photos))
	copy(out, v.photos)
	return out
}

// Session returns a copy of the current session, or nil when none is open.
func (v *View) Session() *models.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session == nil {
		return nil
	}
	s := *v.session
	return &s
}

func (v *View) PairingURL() string {
	session := v.Session()
	if session == nil {
		return ""
	}
	return v.creator.PairingURL(session.Code)
}
