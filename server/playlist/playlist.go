// Package playlist expands a playlist URL into individual download
// sessions, or schedules a single ranged playlist run when the
// request carries start/end indices.
package playlist

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ytsess/yt-dlp-sessiond/server/internal/downloads"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/metadata"
)

var ErrNotAPlaylist = errors.New("url does not resolve to a playlist")

// Detect resolves the URL with a flat-playlist query. When the
// request carries explicit playlist indices the whole range runs as
// one session; otherwise every entry becomes its own download so each
// can be cancelled independently.
func Detect(
	ctx context.Context,
	req downloads.Request,
	fetcher *metadata.Fetcher,
	orc *downloads.Orchestrator,
) ([]*downloads.Download, error) {
	meta, err := fetcher.FetchFlat(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	if !meta.IsPlaylist() {
		return nil, ErrNotAPlaylist
	}

	if req.PlaylistStart > 0 || req.PlaylistEnd > 0 {
		d, err := orc.Start(req, downloads.KindPlaylist)
		if err != nil {
			return nil, err
		}
		return []*downloads.Download{d}, nil
	}

	slog.Info("playlist detected",
		slog.String("url", req.URL),
		slog.String("title", meta.Title),
	)

	started := make([]*downloads.Download, 0)
	seen := make(map[string]struct{})

	for _, entry := range meta.Entries {
		if entry.URL == "" || strings.Contains(entry.URL, "list=") {
			continue
		}
		if _, dup := seen[entry.URL]; dup {
			continue
		}
		seen[entry.URL] = struct{}{}

		itemReq := req
		itemReq.URL = entry.URL
		itemReq.Title = entry.Title

		d, err := orc.Start(itemReq, downloads.KindSingle)
		if err != nil {
			return started, err
		}
		started = append(started, d)
	}

	slog.Info("playlist expanded",
		slog.String("url", req.URL),
		slog.Int("count", len(started)),
	)

	return started, nil
}
