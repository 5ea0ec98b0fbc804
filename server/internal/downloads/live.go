package downloads

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ytsess/yt-dlp-sessiond/server/internal/pipes"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/progress"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/session"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/status"
)

// LiveDownload captures a live stream: the downloader writes the media
// to stdout, the stream goes through the pipe chain (transcoder, file
// writer), and stderr carries the progress lines.
type LiveDownload struct {
	Id  string
	req Request

	binPath   string
	killGrace time.Duration
	handle    *status.Handle
	notifier  *Notifier
	localize  status.Localizer
	pipes     []pipes.Pipe

	mu        sync.Mutex
	cancel    context.CancelFunc
	running   bool
	completed bool
}

// NewLive builds the live-capture variant of a download. The pipe
// chain usually ends in a FileWriter; when it does not, the stream is
// sunk into a timestamped file in the request's output directory.
func (o *Orchestrator) NewLive(req Request, chain []pipes.Pipe) *LiveDownload {
	req = o.applyDefaults(req)
	id := newId()

	l := &LiveDownload{
		Id:        id,
		req:       req,
		binPath:   o.opts.BinPath,
		killGrace: o.opts.KillGrace,
		notifier:  o.notifier,
		localize:  o.opts.Localize,
		pipes:     chain,
	}

	l.handle = status.NewHandle(
		id,
		o.sink,
		status.WithHideDelay(o.opts.HideDelay),
		status.WithLocalizer(o.opts.Localize),
	)

	return l
}

func (l *LiveDownload) GetId() string  { return l.Id }
func (l *LiveDownload) GetUrl() string { return l.req.URL }

func (l *LiveDownload) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *LiveDownload) IsCompleted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.completed
}

func (l *LiveDownload) Handle() *status.Handle { return l.handle }

// Start runs the capture until the stream ends or Cancel fires.
func (l *LiveDownload) Start() error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.running = true
	l.mu.Unlock()

	defer l.finish()

	args := []string{
		"--newline",
		"--no-colors",
		"--no-playlist",
		"-o", "-",
		l.req.URL,
	}

	cmd := exec.Command(l.binPath, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	media, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		l.handle.Set(status.Error, l.localize("start_failed"), 0)
		return err
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			session.KillGroup(cmd.Process.Pid, l.killGrace, done)
		}
	}()

	go func() {
		// live captures have no fixed length; stderr only feeds the
		// elapsed-time label
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			if ev, ok := progress.Parse(line); ok && ev.Kind == progress.KindTimeElapsed {
				l.handle.Set(status.CustomMessage, fmt.Sprintf("%s (%s)", l.localize("capturing"), ev.Elapsed), 0)
			}
		}
	}()

	l.handle.Set(status.CustomMessage, l.localize("capturing"), 0)

	reader := io.Reader(media)
	for _, pipe := range l.pipes {
		next, err := pipe.Connect(reader)
		if err != nil {
			slog.Error("pipe failed", slog.String("pipe", pipe.Name()), slog.Any("err", err))
			// no chain to feed, reap the downloader before bailing out
			cancel()
			cmd.Wait()
			close(done)
			l.handle.Set(status.Error, l.localize("download_failed"), 0)
			return err
		}
		reader = next
	}

	if !l.hasFileWriter() {
		go l.sinkToFile(reader)
	}

	err = cmd.Wait()
	close(done)

	if ctx.Err() != nil {
		l.handle.Set(status.Cancelled, "", 0)
		return nil
	}
	if err != nil {
		l.handle.Set(status.Error, l.localize("download_failed"), 0)
		return err
	}

	l.handle.Set(status.Finished, "", 100)
	return nil
}

// ReportProgress feeds a companion process output line into the
// status label, for pipes that report their own elapsed time.
func (l *LiveDownload) ReportProgress(line string) {
	if ev, ok := progress.Parse(line); ok && ev.Kind == progress.KindTimeElapsed {
		l.handle.Set(status.CustomMessage, fmt.Sprintf("%s (%s)", l.localize("capturing"), ev.Elapsed), 0)
	}
}

// Cancel stops the capture; the context is discarded afterwards so a
// later Start gets a fresh one.
func (l *LiveDownload) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (l *LiveDownload) finish() {
	l.mu.Lock()
	l.running = false
	l.completed = true
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	l.notifier.Loading(false)
}

func (l *LiveDownload) hasFileWriter() bool {
	for _, p := range l.pipes {
		if p.Name() == "file-writer" {
			return true
		}
	}
	return false
}

func (l *LiveDownload) sinkToFile(r io.Reader) {
	path := filepath.Join(
		l.req.OutputDir,
		fmt.Sprintf("%s (live) %s.mp4", l.Id, time.Now().Format(time.ANSIC)),
	)

	w := pipes.FileWriter{Path: path, IsFinal: true}
	if _, err := w.Connect(r); err != nil {
		slog.Error("failed to sink live capture", slog.Any("err", err))
	}
}
