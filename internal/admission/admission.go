// Package admission decides whether a phone may upload into a session and
// turns each submitted file into stored bytes plus a photo record.
package admission

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"photo-relay/internal/database"
	"photo-relay/internal/imaging"
	"photo-relay/internal/metrics"
	"photo-relay/internal/models"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNotFound = errors.New("upload session not found")
	ErrSessionExpired  = errors.New("upload session has expired")
)

type SessionFinder interface {
	GetSessionByCode(ctx context.Context, code string) (*models.Session, error)
}

type PhotoRecorder interface {
	CreatePhoto(ctx context.Context, arg database.CreatePhotoParams) (*models.Photo, error)
}

type ObjectStore interface {
	Put(key string, data io.Reader) (string, error)
	PublicURL(storedPath string) string
}

type Thumbnailer interface {
	Thumbnail(data []byte) ([]byte, error)
}

// SessionRef identifies a session that passed validation. Holding one is
// enough to upload; liveness is not checked again.
type SessionRef struct {
	SessionID uuid.UUID
	Code      string
}

type Options struct {
	// ImagesOnly rejects files whose content is not a recognised image.
	ImagesOnly  bool
	Thumbnailer Thumbnailer
	Now         func() time.Time
}

type Controller struct {
	sessions    SessionFinder
	photos      PhotoRecorder
	objects     ObjectStore
	imagesOnly  bool
	thumbnailer Thumbnailer
	now         func() time.Time
}

func NewController(sessions SessionFinder, photos PhotoRecorder, objects ObjectStore, opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		sessions:    sessions,
		photos:      photos,
		objects:     objects,
		imagesOnly:  opts.ImagesOnly,
		thumbnailer: opts.Thumbnailer,
		now:         now,
	}
}

// ValidateSession resolves a code to a live session. Unknown and malformed
// codes both return ErrSessionNotFound; only a known code past its expiry
// returns ErrSessionExpired.
func (c *Controller) ValidateSession(ctx context.Context, code string) (SessionRef, error) {
	code = models.NormalizeCode(code)
	if !models.ValidCode(code) {
		metrics.SessionValidations.WithLabelValues("not_found").Inc()
		return SessionRef{}, ErrSessionNotFound
	}

	session, err := c.sessions.GetSessionByCode(ctx, code)
	if err != nil {
		metrics.SessionValidations.WithLabelValues("error").Inc()
		return SessionRef{}, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		metrics.SessionValidations.WithLabelValues("not_found").Inc()
		return SessionRef{}, ErrSessionNotFound
	}
	if !session.LiveAt(c.now()) {
		metrics.SessionValidations.WithLabelValues("expired").Inc()
		return SessionRef{}, ErrSessionExpired
	}

	metrics.SessionValidations.WithLabelValues("ok").Inc()
	return SessionRef{SessionID: session.ID, Code: session.Code}, nil
}

type File struct {
	Name string
	Body io.Reader
}

// SubmitFiles processes files one after another in input order. A failing
// file never stops the batch, and the batch is not cancelled when ctx is.
func (c *Controller) SubmitFiles(ctx context.Context, ref SessionRef, files []File) *Report {
	ctx = context.WithoutCancel(ctx)
	report := &Report{Outcomes: make([]Outcome, 0, len(files))}

	for i, file := range files {
		outcome := c.submitFile(ctx, ref, i, file)
		report.add(outcome)

		logger := log.With().
			Str("session_id", ref.SessionID.String()).
			Int("index", i).
			Str("file_name", file.Name).
			Logger()
		if outcome.Succeeded() {
			metrics.UploadOutcomes.WithLabelValues("succeeded").Inc()
			logger.Info().Str("photo_id", outcome.PhotoID.String()).Msg("photo accepted")
		} else {
			metrics.UploadOutcomes.WithLabelValues(string(outcome.Reason)).Inc()
			logger.Warn().Err(outcome.Err).Str("reason", string(outcome.Reason)).Msg("photo rejected")
		}
	}

	return report
}

func (c *Controller) submitFile(ctx context.Context, ref SessionRef, index int, file File) Outcome {
	outcome := Outcome{Index: index, FileName: file.Name}

	body := bufio.NewReaderSize(file.Body, imaging.SniffLen)
	head, err := body.Peek(imaging.SniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return outcome.fail(FailureStore, fmt.Errorf("failed to read upload: %w", err))
	}
	mimeType, isImage := imaging.Sniff(head)
	if c.imagesOnly && !isImage {
		return outcome.fail(FailureType, fmt.Errorf("content is not an image"))
	}

	var data io.Reader = body
	var buf bytes.Buffer
	if c.thumbnailer != nil && isImage {
		data = io.TeeReader(body, &buf)
	}

	key := StorageKey(ref.SessionID, c.now(), index, file.Name)
	storedPath, err := c.objects.Put(key, data)
	if err != nil {
		return outcome.fail(FailureStore, err)
	}
	fileURL := c.objects.PublicURL(storedPath)

	var thumbnailURL *string
	if buf.Len() > 0 {
		thumbnailURL = c.storeThumbnail(key, buf.Bytes())
	}

	params := database.CreatePhotoParams{
		SessionID:    ref.SessionID,
		FileURL:      fileURL,
		ThumbnailURL: thumbnailURL,
	}
	if file.Name != "" {
		params.FileName = &file.Name
	}
	if mimeType != "" {
		params.MimeType = &mimeType
	}

	// The object is already stored; a failed insert leaves it orphaned.
	photo, err := c.photos.CreatePhoto(ctx, params)
	if err != nil {
		return outcome.fail(FailureRecord, err)
	}

	outcome.Status = StatusSucceeded
	outcome.PhotoID = &photo.ID
	outcome.Photo = photo
	return outcome
}

func (c *Controller) storeThumbnail(key string, data []byte) *string {
	thumb, err := c.thumbnailer.Thumbnail(data)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("skipping thumbnail")
		return nil
	}
	storedPath, err := c.objects.Put(key+".thumb.jpg", bytes.NewReader(thumb))
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to store thumbnail")
		return nil
	}
	url := c.objects.PublicURL(storedPath)
	return &url
}

// maxNameBytes keeps the stored file name, with its key prefix and the
// thumbnail suffix, under the 255-byte limit of common file systems.
const maxNameBytes = 150

// StorageKey derives the object key for one file of a batch. The batch index
// keeps two same-named files submitted in the same millisecond apart.
func StorageKey(sessionID uuid.UUID, at time.Time, index int, fileName string) string {
	return fmt.Sprintf("%s/%d-%d-%s", sessionID, at.UnixMilli(), index, sanitizeName(fileName))
}

func sanitizeName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "photo"
	}
	if len(name) > maxNameBytes {
		// Keep the tail so the extension survives, cut on a rune boundary.
		cut := len(name) - maxNameBytes
		for cut < len(name) && !utf8.RuneStart(name[cut]) {
			cut++
		}
		name = name[cut:]
	}
	return name
}
