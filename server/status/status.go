package status

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ytsess/yt-dlp-sessiond/server/ws"
)

// ApplyRouter exposes the currently visible status snapshots, the
// same set a websocket client receives on join.
func ApplyRouter(hub *ws.Hub) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(hub.Retained())
		})
	}
}
