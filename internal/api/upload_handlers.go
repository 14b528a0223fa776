package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"photo-relay/internal/admission"
	"photo-relay/internal/auth"
	"photo-relay/internal/phone"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

const filesField = "files"

type ValidateResponse struct {
	Status      string `json:"status"`
	UploadToken string `json:"upload_token,omitempty"`
	Message     string `json:"message,omitempty"`
}

type UploadResponse struct {
	Sent      int                 `json:"sent"`
	LastError string              `json:"last_error,omitempty"`
	Outcomes  []admission.Outcome `json:"outcomes"`
}

// @Summary      Validate a pairing code
// @Description  Checks a code typed or scanned on the phone. A live session yields an upload token. Unknown and malformed codes get the same answer.
// @Tags         upload
// @Produce      json
// @Param        code  path      string  true  "6-character pairing code"
// @Success      200   {object}  ValidateResponse
// @Failure      404   {object}  ValidateResponse
// @Failure      410   {object}  ValidateResponse
// @Failure      429   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /upload/{code} [get]
func (s *Server) ValidateUploadCodeHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := s.admission.ValidateSession(r.Context(), chi.URLParam(r, "code"))
	switch {
	case errors.Is(err, admission.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, ValidateResponse{Status: "invalid", Message: phone.MessageInvalid})
		return
	case errors.Is(err, admission.ErrSessionExpired):
		writeJSON(w, http.StatusGone, ValidateResponse{Status: "expired", Message: phone.MessageExpired})
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("failed to validate code")
		writeError(w, http.StatusInternalServerError, "Failed to validate code")
		return
	}

	token, err := auth.GenerateUploadToken(ref, s.config.JWT.Secret, s.config.JWT.UploadTokenTTL)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to issue upload token")
		writeError(w, http.StatusInternalServerError, "Failed to issue upload token")
		return
	}

	writeJSON(w, http.StatusOK, ValidateResponse{Status: "ready", UploadToken: token})
}

// @Summary      Upload photos
// @Description  Uploads one or more files into the session named by the upload token. Files are processed in order and a failing file does not stop the rest.
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        files  formData  file  true  "Photos to upload (repeat the field for several files)"
// @Success      201    {object}  UploadResponse "At least one file was stored"
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      413    {object}  ErrorResponse
// @Failure      422    {object}  UploadResponse "No file was stored"
// @Router       /photos [post]
func (s *Server) UploadPhotosHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUploadClaimsFromContext(r.Context())

	files, closeFiles, formErr := s.readUploadForm(w, r)
	if formErr != nil {
		writeError(w, formErr.status, formErr.message)
		return
	}
	defer closeFiles()

	view := phone.NewView(s.admission)
	view.Resume(claims.Ref(), 0)
	report, err := view.Submit(r.Context(), files)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upload photos")
		return
	}

	status := http.StatusCreated
	if report.Succeeded == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, UploadResponse{
		Sent:      view.Sent(),
		LastError: view.LastError(),
		Outcomes:  report.Outcomes,
	})
}

type formError struct {
	status  int
	message string
}

func (e *formError) Error() string { return e.message }

// readUploadForm parses a multipart body and opens every file under the files
// field in submission order.
func (s *Server) readUploadForm(w http.ResponseWriter, r *http.Request) ([]admission.File, func(), *formError) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Upload.MaxBytes)
	if err := r.ParseMultipartForm(s.config.Upload.MaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, &formError{http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit)}
		}
		return nil, nil, &formError{http.StatusBadRequest, "Invalid multipart form"}
	}

	headers := r.MultipartForm.File[filesField]
	if len(headers) == 0 {
		r.MultipartForm.RemoveAll()
		return nil, nil, &formError{http.StatusBadRequest, "No files were submitted"}
	}

	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
		r.MultipartForm.RemoveAll()
	}

	files := make([]admission.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, &formError{http.StatusBadRequest, "Could not read " + fh.Filename}
		}
		opened = append(opened, f)
		files = append(files, admission.File{Name: fh.Filename, Body: f})
	}

	return files, closeAll, nil
}
