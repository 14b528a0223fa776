package admission

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"path"
	"photo-relay/internal/database"
	"photo-relay/internal/imaging"
	"photo-relay/internal/models"
	"photo-relay/internal/storage"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	byCode  map[string]*models.Session
	err     error
	lookups int
}

func (f *fakeSessions) GetSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	return f.byCode[code], nil
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  map[string]bool
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte), failOn: make(map[string]bool)}
}

func (f *fakeObjects) Put(key string, data io.Reader) (string, error) {
	for suffix := range f.failOn {
		if strings.HasSuffix(key, suffix) {
			return "", errors.New("disk full")
		}
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	return key, nil
}

func (f *fakeObjects) PublicURL(storedPath string) string {
	return "http://localhost:8080/files/" + storedPath
}

func (f *fakeObjects) hasURL(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[strings.TrimPrefix(url, "http://localhost:8080/files/")]
	return ok
}

type fakePhotos struct {
	objects *fakeObjects
	created []database.CreatePhotoParams
	err     error
	// orphans counts inserts whose bytes were not stored yet.
	orphans int
}

func (f *fakePhotos) CreatePhoto(ctx context.Context, arg database.CreatePhotoParams) (*models.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	if !f.objects.hasURL(arg.FileURL) {
		f.orphans++
	}
	f.created = append(f.created, arg)
	return &models.Photo{
		ID:           uuid.New(),
		SessionID:    arg.SessionID,
		FileURL:      arg.FileURL,
		FileName:     arg.FileName,
		MimeType:     arg.MimeType,
		ThumbnailURL: arg.ThumbnailURL,
		CreatedAt:    time.Now(),
	}, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func newTestController(t *testing.T, opts Options) (*Controller, *fakeSessions, *fakeObjects, *fakePhotos) {
	sessions := &fakeSessions{byCode: make(map[string]*models.Session)}
	objects := newFakeObjects()
	photos := &fakePhotos{objects: objects}
	return NewController(sessions, photos, objects, opts), sessions, objects, photos
}

func TestValidateSession(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	c, sessions, _, _ := newTestController(t, Options{Now: func() time.Time { return now }})

	live := &models.Session{ID: uuid.New(), Code: "AB12CD", ExpiresAt: now.Add(time.Minute)}
	boundary := &models.Session{ID: uuid.New(), Code: "EXACT1", ExpiresAt: now}
	sessions.byCode[live.Code] = live
	sessions.byCode[boundary.Code] = boundary

	t.Run("live session, lower case input", func(t *testing.T) {
		ref, err := c.ValidateSession(context.Background(), " ab12cd")
		require.NoError(t, err)
		require.Equal(t, live.ID, ref.SessionID)
		require.Equal(t, "AB12CD", ref.Code)
	})

	t.Run("expiry instant counts as expired", func(t *testing.T) {
		_, err := c.ValidateSession(context.Background(), "EXACT1")
		require.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := c.ValidateSession(context.Background(), "ZZZZZZ")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("malformed code never reaches the store", func(t *testing.T) {
		before := sessions.lookups
		for _, code := range []string{"", "AB12C", "AB12CDE", "AB-2CD", "../../"} {
			_, err := c.ValidateSession(context.Background(), code)
			require.ErrorIs(t, err, ErrSessionNotFound, "code %q", code)
		}
		require.Equal(t, before, sessions.lookups)
	})
}

func TestValidateSession_ExpiredAfterHorizon(t *testing.T) {
	createdAt := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	session := &models.Session{ID: uuid.New(), Code: "OLD123", CreatedAt: createdAt, ExpiresAt: createdAt.Add(5 * time.Minute)}

	now := createdAt
	c, sessions, _, _ := newTestController(t, Options{Now: func() time.Time { return now }})
	sessions.byCode[session.Code] = session

	_, err := c.ValidateSession(context.Background(), "OLD123")
	require.NoError(t, err)

	now = createdAt.Add(10 * time.Minute)
	_, err = c.ValidateSession(context.Background(), "OLD123")
	require.ErrorIs(t, err, ErrSessionExpired)
	require.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestValidateSession_StoreError(t *testing.T) {
	c, sessions, _, _ := newTestController(t, Options{})
	sessions.err = errors.New("connection reset")

	_, err := c.ValidateSession(context.Background(), "AB12CD")
	require.Error(t, err)
	require.ErrorIs(t, err, sessions.err)
	require.NotErrorIs(t, err, ErrSessionNotFound)
	require.NotErrorIs(t, err, ErrSessionExpired)
}

func TestSubmitFiles_StoreFailureIsIsolated(t *testing.T) {
	c, _, objects, photos := newTestController(t, Options{})
	objects.failOn["-1-second.jpg"] = true
	ref := SessionRef{SessionID: uuid.New(), Code: "AB12CD"}

	report := c.SubmitFiles(context.Background(), ref, []File{
		{Name: "first.jpg", Body: strings.NewReader("one")},
		{Name: "second.jpg", Body: strings.NewReader("two")},
		{Name: "third.jpg", Body: strings.NewReader("three")},
	})

	require.Len(t, report.Outcomes, 3)
	require.Equal(t, StatusSucceeded, report.Outcomes[0].Status)
	require.Equal(t, StatusFailed, report.Outcomes[1].Status)
	require.Equal(t, FailureStore, report.Outcomes[1].Reason)
	require.Equal(t, StatusSucceeded, report.Outcomes[2].Status)
	for i, o := range report.Outcomes {
		require.Equal(t, i, o.Index)
	}
	require.Equal(t, "second.jpg", report.Outcomes[1].FileName)

	require.Equal(t, 2, report.Succeeded)
	require.Equal(t, 1, report.Failed())
	require.Equal(t, FailureStore, report.LastFailure)
	require.Error(t, report.LastErr)

	require.Len(t, photos.created, 2, "no record may be created for a file whose bytes were not stored")
	require.Zero(t, photos.orphans)
	require.Equal(t, "first.jpg", *photos.created[0].FileName)
	require.Equal(t, "third.jpg", *photos.created[1].FileName)
}

func TestSubmitFiles_RecordFailureKeepsGoing(t *testing.T) {
	c, _, objects, photos := newTestController(t, Options{})
	photos.err = errors.New("insert failed")
	ref := SessionRef{SessionID: uuid.New()}

	report := c.SubmitFiles(context.Background(), ref, []File{
		{Name: "a.jpg", Body: strings.NewReader("a")},
		{Name: "b.jpg", Body: strings.NewReader("b")},
	})

	require.Zero(t, report.Succeeded)
	for _, o := range report.Outcomes {
		require.Equal(t, FailureRecord, o.Reason)
	}
	require.Equal(t, FailureRecord, report.LastFailure)
	require.Len(t, objects.objects, 2, "bytes stay behind when the record fails")
}

func TestSubmitFiles_SucceededOutcomeCarriesPhoto(t *testing.T) {
	c, _, _, photos := newTestController(t, Options{})
	ref := SessionRef{SessionID: uuid.New()}

	report := c.SubmitFiles(context.Background(), ref, []File{{Name: "beach.jpg", Body: strings.NewReader("jpeg")}})

	require.Equal(t, 1, report.Succeeded)
	o := report.Outcomes[0]
	require.True(t, o.Succeeded())
	require.NotNil(t, o.PhotoID)
	require.Equal(t, *o.PhotoID, o.Photo.ID)
	require.Equal(t, ref.SessionID, o.Photo.SessionID)
	require.Equal(t, "beach.jpg", *o.Photo.FileName)
	require.Empty(t, report.LastFailure)
	require.Contains(t, photos.created[0].FileURL, ref.SessionID.String()+"/")
}

func TestSubmitFiles_ImagesOnly(t *testing.T) {
	c, _, objects, _ := newTestController(t, Options{ImagesOnly: true})
	ref := SessionRef{SessionID: uuid.New()}

	report := c.SubmitFiles(context.Background(), ref, []File{
		{Name: "notes.txt", Body: strings.NewReader("plain text")},
		{Name: "pic.png", Body: bytes.NewReader(pngBytes(t))},
	})

	require.Equal(t, FailureType, report.Outcomes[0].Reason)
	require.True(t, report.Outcomes[1].Succeeded())
	require.Equal(t, "image/png", *report.Outcomes[1].Photo.MimeType)
	require.Len(t, objects.objects, 1)
}

func TestSubmitFiles_Thumbnail(t *testing.T) {
	c, _, objects, _ := newTestController(t, Options{Thumbnailer: imaging.NewThumbnailer(4)})
	ref := SessionRef{SessionID: uuid.New()}
	original := pngBytes(t)

	report := c.SubmitFiles(context.Background(), ref, []File{{Name: "pic.png", Body: bytes.NewReader(original)}})

	require.Equal(t, 1, report.Succeeded)
	photo := report.Outcomes[0].Photo
	require.NotNil(t, photo.ThumbnailURL)
	require.True(t, strings.HasSuffix(*photo.ThumbnailURL, ".thumb.jpg"))
	require.Len(t, objects.objects, 2)
	require.Equal(t, original, objects.objects[strings.TrimPrefix(photo.FileURL, "http://localhost:8080/files/")])
}

func TestSubmitFiles_ThumbnailFailureIsNotFatal(t *testing.T) {
	c, _, objects, _ := newTestController(t, Options{Thumbnailer: imaging.NewThumbnailer(4)})
	objects.failOn[".thumb.jpg"] = true

	report := c.SubmitFiles(context.Background(), SessionRef{SessionID: uuid.New()}, []File{{Name: "pic.png", Body: bytes.NewReader(pngBytes(t))}})

	require.Equal(t, 1, report.Succeeded)
	require.Nil(t, report.Outcomes[0].Photo.ThumbnailURL)
}

func TestSubmitFiles_NotCancelledWithContext(t *testing.T) {
	c, _, _, _ := newTestController(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := c.SubmitFiles(ctx, SessionRef{SessionID: uuid.New()}, []File{{Name: "late.jpg", Body: strings.NewReader("x")}})
	require.Equal(t, 1, report.Succeeded)
}

func TestSubmitFiles_Empty(t *testing.T) {
	c, _, _, _ := newTestController(t, Options{})
	report := c.SubmitFiles(context.Background(), SessionRef{SessionID: uuid.New()}, nil)
	require.Empty(t, report.Outcomes)
	require.Zero(t, report.Succeeded)
}

func TestStorageKey(t *testing.T) {
	sessionID := uuid.MustParse("5a0b2f6e-7c3d-4e1f-8a9b-0c1d2e3f4a5b")
	at := time.UnixMilli(1718000000123)

	require.Equal(t, "5a0b2f6e-7c3d-4e1f-8a9b-0c1d2e3f4a5b/1718000000123-0-beach.jpg", StorageKey(sessionID, at, 0, "beach.jpg"))
	require.Equal(t, "5a0b2f6e-7c3d-4e1f-8a9b-0c1d2e3f4a5b/1718000000123-2-evil.jpg", StorageKey(sessionID, at, 2, "../../evil.jpg"))
	require.Equal(t, "5a0b2f6e-7c3d-4e1f-8a9b-0c1d2e3f4a5b/1718000000123-1-photo", StorageKey(sessionID, at, 1, ""))
	require.Equal(t, "5a0b2f6e-7c3d-4e1f-8a9b-0c1d2e3f4a5b/1718000000123-1-x.jpg", StorageKey(sessionID, at, 1, `C:\Users\me\x.jpg`))
	require.NotEqual(t, StorageKey(sessionID, at, 0, "a.jpg"), StorageKey(sessionID, at, 1, "a.jpg"))
}

func TestStorageKey_LongMultibyteName(t *testing.T) {
	sessionID := uuid.MustParse("5a0b2f6e-7c3d-4e1f-8a9b-0c1d2e3f4a5b")
	at := time.UnixMilli(1718000000123)
	name := strings.Repeat("写真", 45) + ".jpg"

	key := StorageKey(sessionID, at, 3, name)
	base := path.Base(key)
	require.True(t, utf8.ValidString(base))
	require.True(t, strings.HasSuffix(base, "写真.jpg"))
	require.LessOrEqual(t, len(base+".thumb.jpg"), 255)
}

func TestSubmitFiles_LongMultibyteNameIsStored(t *testing.T) {
	objects, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)
	photos := &recordingPhotos{}
	c := NewController(&fakeSessions{}, photos, objects, Options{
		ImagesOnly:  true,
		Thumbnailer: imaging.NewThumbnailer(4),
	})
	name := strings.Repeat("写真", 45) + "-家族旅行.png"

	report := c.SubmitFiles(context.Background(), SessionRef{SessionID: uuid.New(), Code: "AB12CD"}, []File{
		{Name: name, Body: bytes.NewReader(pngBytes(t))},
	})

	require.Equal(t, 1, report.Succeeded, "outcome: %+v", report.Outcomes[0])
	require.Len(t, photos.created, 1)
	require.Equal(t, name, *photos.created[0].FileName)
	require.NotNil(t, photos.created[0].ThumbnailURL)
}

// recordingPhotos records inserts without checking where the bytes went.
type recordingPhotos struct {
	created []database.CreatePhotoParams
}

func (r *recordingPhotos) CreatePhoto(ctx context.Context, arg database.CreatePhotoParams) (*models.Photo, error) {
	r.created = append(r.created, arg)
	return &models.Photo{ID: uuid.New(), SessionID: arg.SessionID, FileURL: arg.FileURL, FileName: arg.FileName}, nil
}
