package api

import (
	"bytes"
	"embed"
	"net/http"
	"photo-relay/internal/auth"
	"photo-relay/internal/models"
	"photo-relay/internal/pairing"
	"photo-relay/internal/phone"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageReady   = "ready"
	pageInvalid = "invalid"
	pageError   = "error"
)

type uploadPage struct {
	State     string
	Code      string
	Action    string
	Message   string
	Token     string
	Sent      int
	LastError string
}

// UploadPageHandler serves the page a phone lands on after scanning the
// pairing QR code.
func (s *Server) UploadPageHandler(w http.ResponseWriter, r *http.Request) {
	code := models.NormalizeCode(chi.URLParam(r, "code"))
	page := uploadPage{Code: code, Action: pairing.UploadRoute + code}

	view := phone.NewView(s.admission)
	if err := view.Load(r.Context(), code); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to validate code")
		page.State = pageInvalid
		page.Message = view.Message()
		s.renderUploadPage(w, r, http.StatusInternalServerError, page)
		return
	}

	if view.State() != phone.StateReady {
		status := http.StatusNotFound
		if view.Message() == phone.MessageExpired {
			status = http.StatusGone
		}
		page.State = pageInvalid
		page.Message = view.Message()
		s.renderUploadPage(w, r, status, page)
		return
	}

	token, err := auth.GenerateUploadToken(view.Session(), s.config.JWT.Secret, s.config.JWT.UploadTokenTTL)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to issue upload token")
		page.State = pageError
		page.Message = phone.MessageUploadFailed
		s.renderUploadPage(w, r, http.StatusInternalServerError, page)
		return
	}

	page.State = pageReady
	page.Token = token
	s.renderUploadPage(w, r, http.StatusOK, page)
}

// UploadPageSubmitHandler handles the form post from the upload page. The
// session was validated when the page was served; the form carries the token
// and the running count back.
func (s *Server) UploadPageSubmitHandler(w http.ResponseWriter, r *http.Request) {
	code := models.NormalizeCode(chi.URLParam(r, "code"))
	page := uploadPage{Code: code, Action: pairing.UploadRoute + code}

	files, closeFiles, formErr := s.readUploadForm(w, r)
	if closeFiles != nil {
		defer closeFiles()
	}
	if r.MultipartForm == nil {
		page.State = pageError
		page.Message = formErr.message
		s.renderUploadPage(w, r, formErr.status, page)
		return
	}

	token := formValue(r, "upload_token")
	claims, err := auth.VerifyUploadToken(token, s.config.JWT.Secret)
	if err != nil || claims.Code != code {
		page.State = pageInvalid
		page.Message = phone.MessageInvalid
		s.renderUploadPage(w, r, http.StatusForbidden, page)
		return
	}
	sent, _ := strconv.Atoi(formValue(r, "sent"))

	view := phone.NewView(s.admission)
	view.Resume(claims.Ref(), sent)

	page.State = pageReady
	page.Token = token
	if formErr != nil {
		page.Sent = view.Sent()
		page.LastError = formErr.message
		s.renderUploadPage(w, r, formErr.status, page)
		return
	}

	if _, err := view.Submit(r.Context(), files); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("upload page submit failed")
	}
	page.Sent = view.Sent()
	page.LastError = view.LastError()
	s.renderUploadPage(w, r, http.StatusOK, page)
}

func formValue(r *http.Request, key string) string {
	if values := r.MultipartForm.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func (s *Server) renderUploadPage(w http.ResponseWriter, r *http.Request, status int, page uploadPage) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, "upload.html", page); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to render upload page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
