package feed

import (
	"context"
	"photo-relay/internal/models"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan models.Photo) models.Photo {
	t.Helper()
	select {
	case photo, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return photo
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for photo")
	}
	return models.Photo{}
}

func TestHub_RoutesBySession(t *testing.T) {
	hub := NewHub(4)
	sessionA, sessionB := uuid.New(), uuid.New()

	subA, err := hub.Subscribe(context.Background(), sessionA)
	require.NoError(t, err)
	defer subA.Close()
	subB, err := hub.Subscribe(context.Background(), sessionB)
	require.NoError(t, err)
	defer subB.Close()

	photo := models.Photo{ID: uuid.New(), SessionID: sessionA}
	hub.Publish(photo)

	require.Equal(t, photo.ID, receive(t, subA.Events()).ID)
	select {
	case p := <-subB.Events():
		t.Fatalf("session B received a photo of session A: %v", p.ID)
	default:
	}
}

func TestHub_PreservesPublishOrder(t *testing.T) {
	hub := NewHub(8)
	sessionID := uuid.New()
	sub, err := hub.Subscribe(context.Background(), sessionID)
	require.NoError(t, err)
	defer sub.Close()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		hub.Publish(models.Photo{ID: id, SessionID: sessionID})
	}
	for _, id := range ids {
		require.Equal(t, id, receive(t, sub.Events()).ID)
	}
}

func TestHub_CloseUnregistersAndIsIdempotent(t *testing.T) {
	hub := NewHub(1)
	sessionID := uuid.New()
	sub, err := hub.Subscribe(context.Background(), sessionID)
	require.NoError(t, err)
	require.Equal(t, 1, hub.Subscribers(sessionID))

	sub.Close()
	sub.Close()
	require.Equal(t, 0, hub.Subscribers(sessionID))

	_, ok := <-sub.Events()
	require.False(t, ok, "events channel must be closed")

	hub.Publish(models.Photo{ID: uuid.New(), SessionID: sessionID})
}

func TestHub_ContextCancellationClosesSubscription(t *testing.T) {
	hub := NewHub(1)
	sessionID := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := hub.Subscribe(ctx, sessionID)
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool { return hub.Subscribers(sessionID) == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-sub.Events()
	require.False(t, ok)
}

func TestHub_SubscribeWithDoneContext(t *testing.T) {
	hub := NewHub(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hub.Subscribe(ctx, uuid.New())
	require.ErrorIs(t, err, context.Canceled)
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(1)
	sessionID := uuid.New()
	sub, err := hub.Subscribe(context.Background(), sessionID)
	require.NoError(t, err)
	defer sub.Close()

	first := models.Photo{ID: uuid.New(), SessionID: sessionID}
	hub.Publish(first)
	hub.Publish(models.Photo{ID: uuid.New(), SessionID: sessionID})

	require.Equal(t, first.ID, receive(t, sub.Events()).ID)
	select {
	case <-sub.Events():
		t.Fatal("second photo should have been dropped")
	default:
	}
}
