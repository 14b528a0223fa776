package api

import (
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

type statReadSeeker interface {
	io.ReadSeeker
	Stat() (fs.FileInfo, error)
}

// FilesHandler serves stored photos and thumbnails by the path embedded in
// their public URL. Directories are never listed.
func (s *Server) FilesHandler(w http.ResponseWriter, r *http.Request) {
	storedPath := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(storedPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		storedPath = unescaped
	}

	rc, err := s.storage.Get(storedPath)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Str("path", storedPath).Msg("cannot serve file")
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	f, ok := rc.(statReadSeeker)
	if !ok {
		w.Header().Set("Content-Type", "application/octet-stream")
		io.Copy(w, rc)
		return
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, path.Base(storedPath), info.ModTime(), f)
}
