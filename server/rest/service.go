package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ytsess/yt-dlp-sessiond/server/config"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/downloads"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/formats"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/kv"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/metadata"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/pipes"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/toggle"
	"github.com/ytsess/yt-dlp-sessiond/server/playlist"
	"github.com/ytsess/yt-dlp-sessiond/server/updater"
)

var ErrUnknownToggle = errors.New("no toggle bound to this session")

type Service struct {
	mdb     *kv.Store
	orc     *downloads.Orchestrator
	fetcher *metadata.Fetcher

	mu      sync.Mutex
	toggles map[string]*boundToggle
}

// boundToggle carries the per-request confirmation answer into the
// command's confirm callback. The mutex is held across the whole
// invocation so concurrent requests for the same session cannot read
// each other's answer; the confirm callback runs inside Invoke and
// reads the fields under that same hold.
type boundToggle struct {
	mu      sync.Mutex
	cmd     *toggle.Command
	answer  bool
	hasAnsw bool
}

func (b *boundToggle) invoke(confirmed bool) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.answer = confirmed
	b.hasAnsw = true
	b.cmd.Invoke()
	b.hasAnsw = false

	return b.cmd.Label()
}

func NewService(
	mdb *kv.Store,
	orc *downloads.Orchestrator,
	fetcher *metadata.Fetcher,
) *Service {
	return &Service{
		mdb:     mdb,
		orc:     orc,
		fetcher: fetcher,
		toggles: make(map[string]*boundToggle),
	}
}

// Exec schedules a single download session.
func (s *Service) Exec(req downloads.Request) (string, error) {
	d, err := s.orc.Start(req, downloads.KindSingle)
	if err != nil {
		return "", err
	}
	return d.Id, nil
}

// ExecPlaylist expands a playlist URL into per-entry sessions, or one
// ranged session when indices are given.
func (s *Service) ExecPlaylist(ctx context.Context, req downloads.Request) ([]string, error) {
	started, err := playlist.Detect(ctx, req, s.fetcher, s.orc)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(started))
	for _, d := range started {
		ids = append(ids, d.Id)
	}
	return ids, nil
}

// ExecSubtitles schedules a subtitles-only session.
func (s *Service) ExecSubtitles(req downloads.Request) (string, error) {
	d, err := s.orc.Start(req, downloads.KindSubtitles)
	if err != nil {
		return "", err
	}
	return d.Id, nil
}

// ExecLivestream starts a live capture piped through the transcoder
// into the download directory.
func (s *Service) ExecLivestream(req downloads.Request) (string, error) {
	conf := config.Instance()

	if req.OutputDir == "" {
		req.OutputDir = conf.Paths.DownloadPath
	}

	name := time.Now().Format("2006-01-02_15-04-05") + "." + conf.Downloads.VideoOutputFormat
	transcoder := &pipes.Transcoder{
		Bin:    conf.Paths.TranscoderPath,
		Format: conf.Downloads.VideoOutputFormat,
	}
	chain := []pipes.Pipe{
		transcoder,
		&pipes.FileWriter{
			Path:    filepath.Join(req.OutputDir, name),
			IsFinal: true,
		},
	}

	l := s.orc.NewLive(req, chain)
	transcoder.OnLine = l.ReportProgress
	s.mdb.Set(l)

	// Start blocks for the whole capture
	go func() {
		if err := l.Start(); err != nil {
			slog.Error("live capture failed",
				slog.String("id", l.Id),
				slog.String("err", err.Error()),
			)
		}
		s.mdb.Delete(l.Id)
	}()

	return l.Id, nil
}

// ExecMerge runs the quick-merge pairing over the submitted format
// list and schedules the combined session when it holds.
func (s *Service) ExecMerge(req downloads.Request, working []formats.Format) (string, bool) {
	var bound *boundToggle

	d, cmd, ok := s.orc.StartMerge(req, working, func(toggle.Confirmation) bool {
		if bound == nil || !bound.hasAnsw {
			return false
		}
		return bound.answer
	})
	if !ok {
		return "", false
	}

	bound = &boundToggle{cmd: cmd}

	s.mu.Lock()
	s.toggles[d.Id] = bound
	s.mu.Unlock()

	// first invocation fires the download phase
	bound.invoke(false)

	return d.Id, true
}

// InvokeToggle drives the download/cancel command bound to id. The
// confirmed flag answers the cancellation prompt.
func (s *Service) InvokeToggle(id string, confirmed bool) (label string, err error) {
	s.mu.Lock()
	bound, ok := s.toggles[id]
	s.mu.Unlock()

	if !ok {
		return "", ErrUnknownToggle
	}

	return bound.invoke(confirmed), nil
}

// Cancel signals the session registered under id.
func (s *Service) Cancel(id string) error {
	return s.orc.Cancel(id)
}

// ClearCompleted removes every finished session from the registry and
// returns how many were removed.
func (s *Service) ClearCompleted() int {
	n := 0
	for _, p := range s.mdb.All() {
		if d, ok := p.(interface{ IsCompleted() bool }); ok && d.IsCompleted() {
			s.mdb.Delete(p.GetId())
			n++
		}
	}
	return n
}

// Running snapshots every registered session.
func (s *Service) Running(ctx context.Context) ([]downloads.Snapshot, error) {
	select {
	case <-ctx.Done():
		return nil, context.Canceled
	default:
		return s.orc.Running(), nil
	}
}

// Formats resolves the target's metadata and returns its formats
// ordered best-first with one entry per resolution.
func (s *Service) Formats(ctx context.Context, url string) (*metadata.VideoMetadata, error) {
	meta, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	meta.Formats = formats.OrderByResolutionDistinct(meta.Formats)
	return meta, nil
}

func (s *Service) GetCookies(ctx context.Context) ([]byte, error) {
	fd, err := os.Open(cookiesPath())
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	return io.ReadAll(fd)
}

func (s *Service) SetCookies(ctx context.Context, cookies string) error {
	fd, err := os.Create(cookiesPath())
	if err != nil {
		return err
	}
	defer fd.Close()

	_, err = fd.WriteString(cookies)
	return err
}

func cookiesPath() string {
	if p := config.Instance().Paths.CookiesFile; p != "" {
		return p
	}
	return "cookies.txt"
}

// Update upgrades the downloader binary via its self-update.
func (s *Service) Update(ctx context.Context) error {
	return updater.UpdateExecutable(ctx)
}

// GetVersion reports the downloader binary version.
func (s *Service) GetVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	out, err := exec.CommandContext(ctx, config.Instance().Paths.DownloaderPath, "--version").Output()
	if err != nil {
		return "", errors.New("requesting downloader version failed")
	}

	return string(out), nil
}
