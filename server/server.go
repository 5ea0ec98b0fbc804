package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/ytsess/yt-dlp-sessiond/server/archive"
	"github.com/ytsess/yt-dlp-sessiond/server/archiver"
	"github.com/ytsess/yt-dlp-sessiond/server/config"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/downloads"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/kv"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/metadata"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/queue"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/session"
	"github.com/ytsess/yt-dlp-sessiond/server/logging"
	"github.com/ytsess/yt-dlp-sessiond/server/rest"
	serverstatus "github.com/ytsess/yt-dlp-sessiond/server/status"
	"github.com/ytsess/yt-dlp-sessiond/server/ws"

	_ "modernc.org/sqlite"
)

type serverConfig struct {
	db      *sql.DB
	mdb     *kv.Store
	mq      *queue.MessageQueue
	orc     *downloads.Orchestrator
	fetcher *metadata.Fetcher
	hub     *ws.Hub
}

func Run(ctx context.Context) error {
	conf := config.Instance()

	// ---- LOGGING ---------------------------------------------------
	logWriters := []io.Writer{os.Stdout}

	if conf.Logging.EnableFileLogging {
		logger, err := logging.NewRotableLogger(conf.Logging.LogPath)
		if err != nil {
			return err
		}
		defer logger.Close()

		go func() {
			for {
				time.Sleep(time.Hour * 24)
				logger.Rotate()
			}
		}()

		logWriters = append(logWriters, logger)
	}

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(logWriters...), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	// ----------------------------------------------------------------

	dbPath := filepath.Join(conf.Paths.LocalDatabasePath, "sessions.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	if err := archiver.Register(db); err != nil {
		return err
	}

	var (
		mdb      = kv.NewStore()
		fetcher  = metadata.NewFetcher(conf.Paths.DownloaderPath, conf.Paths.CookiesFile)
		notifier = downloads.NewNotifier()
		hub      = ws.NewHub()
	)

	mq, err := queue.NewMessageQueue(conf.Server.QueueSize, resolveTitle(fetcher))
	if err != nil {
		return err
	}
	mq.SetupConsumers()

	orc := downloads.NewOrchestrator(
		downloads.Options{
			BinPath:          conf.Paths.DownloaderPath,
			SuccessExitCodes: conf.Downloads.SuccessExitCodes,
			OutputDir:        conf.Paths.DownloadPath,
			Container:        conf.Downloads.VideoOutputFormat,
			AudioFormat:      conf.Downloads.AudioOutputFormat,
			CookiesFile:      conf.Paths.CookiesFile,
			FormatSelector:   conf.Downloads.CustomFormatSelector,
			ThrottleInterval: conf.Downloads.ThrottleInterval.Std(),
			HideDelay:        conf.Downloads.AutoHideDelay.Std(),
			KillGrace:        conf.Downloads.KillGracePeriod.Std(),
			Localize:         localize,
		},
		hub,
		mdb,
		mq,
		notifier,
	)

	orc.SetTerminalHook(func(d *downloads.Download, out session.Outcome) {
		title := d.Snapshot().Title
		if title == "" {
			title = out.Title
		}

		archiver.Publish(&archiver.Message{
			Id:      d.Id,
			Title:   title,
			Source:  d.GetUrl(),
			Path:    d.Request().OutputDir,
			Outcome: out.Kind.String(),
		})
	})

	scfg := serverConfig{
		db:      db,
		mdb:     mdb,
		mq:      mq,
		orc:     orc,
		fetcher: fetcher,
		hub:     hub,
	}

	srv := newServer(scfg)

	go gracefulShutdown(ctx, srv, &scfg)

	var (
		network = "tcp"
		address = fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port)
	)

	// support unix sockets
	if strings.HasPrefix(conf.Server.Host, "/") {
		network = "unix"
		address = conf.Server.Host
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		slog.Error("failed to listen", slog.String("err", err.Error()))
		return err
	}

	slog.Info("yt-dlp-sessiond started", slog.String("address", address))

	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		slog.Warn("http server stopped", slog.String("err", err.Error()))
	}

	return nil
}

func newServer(c serverConfig) *http.Server {
	r := chi.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	r.Use(corsMiddleware.Handler)

	// REST API handlers
	r.Route("/api/v1", rest.ApplyRouter(&rest.ContainerArgs{
		MDB:     c.mdb,
		ORC:     c.orc,
		Fetcher: c.fetcher,
		Hub:     c.hub,
	}))

	// Archive routes
	r.Route("/archive", archive.ApplyRouter(c.db))

	// Status snapshots and the live status stream
	r.Route("/status", serverstatus.ApplyRouter(c.hub))
	r.Get("/ws/status", c.hub.Handler())

	return &http.Server{Handler: r}
}

// resolveTitle is the metadata worker body: it fills a job's visible
// title before downloading starts.
func resolveTitle(fetcher *metadata.Fetcher) queue.MetadataFetcher {
	return func(ctx context.Context, job queue.Job) {
		d, ok := job.(*downloads.Download)
		if !ok {
			return
		}

		meta, err := fetcher.Fetch(ctx, job.GetUrl())
		if err != nil {
			slog.Warn("metadata resolution failed",
				slog.String("id", job.GetId()),
				slog.String("err", err.Error()),
			)
			return
		}

		d.SetTitle(meta.Title)
	}
}

func gracefulShutdown(ctx context.Context, srv *http.Server, cfg *serverConfig) {
	<-ctx.Done()
	slog.Info("shutdown signal received")

	cfg.mq.Stop()

	for _, id := range cfg.mdb.Keys() {
		cfg.orc.Cancel(id)
	}

	cfg.db.Close()
	srv.Shutdown(context.Background())
}
