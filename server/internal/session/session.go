// Package session supervises one run of the external downloader
// process: spawn, drain output, honor cancellation, classify the exit.
package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/ytsess/yt-dlp-sessiond/server/internal/progress"
)

// Session runs processes for one downloader binary. Safe for use by
// multiple goroutines; each Run supervises an independent process.
type Session struct {
	bin          string
	successCodes []int
	killGrace    time.Duration
}

type Option func(*Session)

// WithSuccessExitCodes accepts extra exit codes as success besides 0.
// yt-dlp's historical exit-code behavior differs between releases, so
// the mapping is configuration, not a constant.
func WithSuccessExitCodes(codes ...int) Option {
	return func(s *Session) { s.successCodes = codes }
}

// WithKillGrace sets how long a SIGTERM'd process group gets before
// the SIGKILL fallback.
func WithKillGrace(d time.Duration) Option {
	return func(s *Session) { s.killGrace = d }
}

func New(bin string, opts ...Option) *Session {
	s := &Session{
		bin:       bin,
		killGrace: time.Second * 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run spawns the binary with the given argument vector and blocks
// until the process exits and both output streams are fully drained.
// Lines arrive on the callbacks in emission order per stream; no
// ordering holds between the two streams. Cancelling ctx sends SIGTERM
// to the process group, then SIGKILL after the grace period.
func (s *Session) Run(ctx context.Context, args []string, onStdout, onStderr func(string)) Outcome {
	cmd := exec.Command(s.bin, args...)
	// the downloader spawns child processes; a dedicated group lets
	// cancellation reach all of them
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Outcome{Kind: StartError, Err: err}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Outcome{Kind: StartError, Err: err}
	}

	if err := cmd.Start(); err != nil {
		slog.Error("failed to start downloader process",
			slog.String("bin", s.bin),
			slog.Any("err", err),
		)
		return Outcome{Kind: StartError, Err: err}
	}

	var (
		killed       atomic.Bool
		done         = make(chan struct{})
		alreadyMu    sync.Mutex
		already      bool
		alreadyTitle string
		lastErrLine  string
	)

	// watch for cancellation concurrently with the exit await
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			killed.Store(true)
			s.killTree(cmd.Process.Pid, done)
		}
	}()

	var g errgroup.Group

	g.Go(func() error {
		return scanLines(stdout, func(line string) {
			if ev, ok := progress.Parse(line); ok && ev.Kind == progress.KindAlreadyDownloaded {
				alreadyMu.Lock()
				already = true
				alreadyTitle = ev.Title
				alreadyMu.Unlock()
			}
			if onStdout != nil {
				onStdout(line)
			}
		})
	})

	g.Go(func() error {
		return scanLines(stderr, func(line string) {
			alreadyMu.Lock()
			lastErrLine = line
			alreadyMu.Unlock()
			if onStderr != nil {
				onStderr(line)
			}
		})
	})

	// both readers must finish before Wait closes the pipes
	if err := g.Wait(); err != nil {
		slog.Warn("output stream closed early", slog.Any("err", err))
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	close(done)

	alreadyMu.Lock()
	defer alreadyMu.Unlock()

	// ties break in this order: already-downloaded beats everything,
	// kill-intent beats a racing natural exit
	switch {
	case already:
		return Outcome{Kind: AlreadyDownloaded, Title: alreadyTitle}
	case killed.Load():
		return Outcome{Kind: Cancelled}
	case exitCode == 0 || slices.Contains(s.successCodes, exitCode):
		return Outcome{Kind: Success}
	default:
		return Outcome{Kind: ExitError, ExitCode: exitCode, LastLine: lastErrLine}
	}
}

func (s *Session) killTree(pid int, exited <-chan struct{}) {
	KillGroup(pid, s.killGrace, exited)
}

// KillGroup terminates a whole process group: graceful SIGTERM first,
// SIGKILL if it is still alive after the grace period.
func KillGroup(pid int, grace time.Duration, exited <-chan struct{}) {
	pgid, err := unix.Getpgid(pid)
	if err != nil {
		return
	}

	if err := unix.Kill(-pgid, unix.SIGTERM); err != nil {
		slog.Warn("failed to signal process group",
			slog.Int("pgid", pgid),
			slog.Any("err", err),
		)
	}

	select {
	case <-exited:
	case <-time.After(grace):
		unix.Kill(-pgid, unix.SIGKILL)
	}
}

func scanLines(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		fn(scanner.Text())
	}

	return scanner.Err()
}
