package api

import (
	"net/http"
	"photo-relay/internal/websocket"

	"github.com/rs/zerolog/hlog"
)

// PairWsHandler serves one desktop pairing screen for the lifetime of the
// connection.
func (s *Server) PairWsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(s.wsHub, conn, s.pairing, s.feed)
	client.Serve(r.Context())
}
