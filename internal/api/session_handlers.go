package api

import (
	"errors"
	"net/http"
	"photo-relay/internal/models"
	"photo-relay/internal/pairing"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
)

const (
	defaultPhotoPageSize = 100
	maxPhotoPageSize     = 500
)

type SessionResponse struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	PairingURL string    `json:"pairing_url"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// @Summary      Create a pairing session
// @Description  Creates a new upload session with a fresh 6-character code. The desktop shows the code and pairing URL to the phone.
// @Tags         sessions
// @Produce      json
// @Success      201  {object}  SessionResponse
// @Failure      409  {object}  ErrorResponse "Generated code collided with another session, try again"
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions [post]
func (s *Server) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.pairing.CreateSession(r.Context())
	if err != nil {
		if errors.Is(err, pairing.ErrCodeCollision) {
			writeError(w, http.StatusConflict, "Session code collision, please retry")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("failed to create session")
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, s.sessionResponse(session))
}

func (s *Server) sessionResponse(session *models.Session) SessionResponse {
	return SessionResponse{
		ID:         session.ID,
		Code:       session.Code,
		PairingURL: s.pairing.PairingURL(session.Code),
		CreatedAt:  session.CreatedAt,
		ExpiresAt:  session.ExpiresAt,
	}
}

// @Summary      List photos of a session
// @Description  Returns the photos uploaded into a session, oldest first.
// @Tags         sessions
// @Produce      json
// @Param        sessionId  path      string  true   "Session ID" format(uuid)
// @Param        limit      query     int     false  "Page size (default 100, max 500)"
// @Param        offset     query     int     false  "Number of photos to skip"
// @Success      200        {array}   models.Photo
// @Failure      400        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      500        {object}  ErrorResponse
// @Router       /sessions/{sessionId}/photos [get]
func (s *Server) ListSessionPhotosHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.store.GetSessionByID(r.Context(), sessionID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to load session")
		writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	photos, err := s.store.ListPhotosBySession(r.Context(), sessionID, limit, offset)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to list photos")
		writeError(w, http.StatusInternalServerError, "Failed to list photos")
		return
	}

	writeJSON(w, http.StatusOK, photos)
}

func pageParams(r *http.Request) (int, int, error) {
	limit, offset := defaultPhotoPageSize, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		limit = min(n, maxPhotoPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}
