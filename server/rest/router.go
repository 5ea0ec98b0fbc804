package rest

import (
	"github.com/go-chi/chi/v5"
	middlewares "github.com/ytsess/yt-dlp-sessiond/server/middleware"
)

func ApplyRouter(args *ContainerArgs) func(chi.Router) {
	h := ProvideHandler(ProvideService(args))

	return func(r chi.Router) {
		r.Use(middlewares.ApplyAuthenticationByConfig)

		r.Post("/download", h.Exec())
		r.Post("/playlist", h.ExecPlaylist())
		r.Post("/subtitles", h.ExecSubtitles())
		r.Post("/livestream", h.ExecLivestream())
		r.Post("/merge", h.ExecMerge())

		r.Post("/toggle/{id}", h.InvokeToggle())
		r.Delete("/download/{id}", h.Cancel())

		r.Get("/running", h.Running())
		r.Delete("/completed", h.ClearCompleted())
		r.Get("/formats", h.Formats())

		r.Get("/cookies", h.GetCookies())
		r.Post("/cookies", h.SetCookies())
		r.Get("/version", h.Version())
		r.Post("/update", h.Update())
	}
}
