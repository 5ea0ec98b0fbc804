package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/downloads"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/formats"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/kv"
)

type Handler struct {
	service *Service
}

type execResponse struct {
	Ids []string `json:"ids"`
}

type toggleResponse struct {
	Label string `json:"label"`
}

// mergeRequest pairs the download parameters with the working format
// set whose selected entries drive the quick merge.
type mergeRequest struct {
	downloads.Request
	Formats []formats.Format `json:"formats"`
}

func (h *Handler) Exec() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req downloads.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := h.service.Exec(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, execResponse{Ids: []string{id}})
	}
}

func (h *Handler) ExecPlaylist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req downloads.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ids, err := h.service.ExecPlaylist(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, execResponse{Ids: ids})
	}
}

func (h *Handler) ExecSubtitles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req downloads.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := h.service.ExecSubtitles(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, execResponse{Ids: []string{id}})
	}
}

func (h *Handler) ExecLivestream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req downloads.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := h.service.ExecLivestream(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, execResponse{Ids: []string{id}})
	}
}

func (h *Handler) ExecMerge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mergeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, ok := h.service.ExecMerge(req.Request, req.Formats)
		if !ok {
			http.Error(w, "selection does not pair one video with one audio", http.StatusBadRequest)
			return
		}

		writeJSON(w, execResponse{Ids: []string{id}})
	}
}

func (h *Handler) InvokeToggle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			id        = chi.URLParam(r, "id")
			confirmed = r.URL.Query().Get("confirm") == "true"
		)

		label, err := h.service.InvokeToggle(id, confirmed)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrUnknownToggle) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}

		writeJSON(w, toggleResponse{Label: label})
	}
}

func (h *Handler) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := h.service.Cancel(id); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, kv.ErrNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) ClearCompleted() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{"cleared": h.service.ClearCompleted()})
	}
}

func (h *Handler) Running() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshots, err := h.service.Running(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, snapshots)
	}
}

func (h *Handler) Formats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := r.URL.Query().Get("url")
		if url == "" {
			http.Error(w, "missing url parameter", http.StatusBadRequest)
			return
		}

		meta, err := h.service.Formats(r.Context(), url)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, meta)
	}
}

func (h *Handler) GetCookies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookies, err := h.service.GetCookies(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Write(cookies)
	}
}

func (h *Handler) SetCookies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Cookies string `json:"cookies"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := h.service.SetCookies(r.Context(), body.Cookies); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.Update(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) Version() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version, err := h.service.GetVersion(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]string{"version": version})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
