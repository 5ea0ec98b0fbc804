package archiver

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ytsess/yt-dlp-sessiond/server/archive"
	"github.com/ytsess/yt-dlp-sessiond/server/config"
)

var (
	ch             = make(chan *Message, 1)
	archiveService archive.Service
)

type Message = archive.Entity

func Register(db *sql.DB) error {
	r, s := archive.Container(db)
	if err := r.Init(context.Background()); err != nil {
		return err
	}
	archiveService = s
	return nil
}

func init() {
	go func() {
		for m := range ch {
			slog.Info(
				"archiving completed download",
				slog.String("title", m.Title),
				slog.String("source", m.Source),
			)
			archiveService.Archive(context.Background(), m)
		}
	}()
}

// Publish records a finished session. It is a no-op unless archiving
// is enabled and a database has been registered.
func Publish(m *Message) {
	if archiveService == nil || !config.Instance().Downloads.AutoArchive {
		return
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	ch <- m
}
