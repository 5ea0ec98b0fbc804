package downloads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ytsess/yt-dlp-sessiond/server/internal/kv"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/progress"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/session"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/status"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/throttle"
)

var ErrAlreadyRunning = errors.New("download session already running")

// Kind selects which argument vector a download runs with.
type Kind int

const (
	KindSingle Kind = iota
	KindPlaylist
	KindSubtitles
)

// Snapshot is the caller-visible view of one download.
type Snapshot struct {
	Id              string          `json:"id"`
	URL             string          `json:"url"`
	Title           string          `json:"title"`
	Status          status.Snapshot `json:"status"`
	Outcome         string          `json:"outcome,omitempty"`
	PlaylistCurrent int             `json:"playlist_current,omitempty"`
	PlaylistTotal   int             `json:"playlist_total,omitempty"`
}

// Download drives one request end to end: session, parsing, throttled
// status emission, terminal classification.
type Download struct {
	Id   string
	req  Request
	kind Kind

	sess     *session.Session
	handle   *status.Handle
	thr      *throttle.Throttle
	store    *kv.Store
	notifier *Notifier
	localize status.Localizer

	throttleEvery time.Duration

	onTerminal func(*Download, session.Outcome)

	mu              sync.Mutex
	cancel          context.CancelFunc
	running         bool
	completed       bool
	cancelRequested bool
	toggleReset     func()
	outcome         session.Outcome
	hasOutcome      bool
	title           string
	playlistCurrent int
	playlistTotal   int
	errKind         progress.ErrorKind
	hasErrKind      bool
	terminalOnce    *sync.Once
}

func (d *Download) GetId() string  { return d.Id }
func (d *Download) GetUrl() string { return d.req.URL }

func (d *Download) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Download) IsCompleted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completed
}

// SetTitle records the resolved remote title used for visible labels.
func (d *Download) SetTitle(title string) {
	d.mu.Lock()
	d.title = title
	d.mu.Unlock()

	if title != "" {
		d.notifier.Title(title)
	}
}

func (d *Download) Request() Request { return d.req }

func (d *Download) Handle() *status.Handle { return d.handle }

func (d *Download) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := Snapshot{
		Id:              d.Id,
		URL:             d.req.URL,
		Title:           d.title,
		Status:          d.handle.Snapshot(),
		PlaylistCurrent: d.playlistCurrent,
		PlaylistTotal:   d.playlistTotal,
	}
	if d.hasOutcome {
		snap.Outcome = d.outcome.String()
	}
	return snap
}

func (d *Download) args() []string {
	switch d.kind {
	case KindPlaylist:
		return d.req.PlaylistArgs()
	case KindSubtitles:
		return d.req.SubtitleArgs()
	}
	return d.req.Args()
}

// Start runs the session to completion. A fresh cancellation context
// is issued here on every call; the one from a previous run is never
// reused.
func (d *Download) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}

	if d.cancelRequested {
		// cancelled while still queued, never spawn the process
		d.cancelRequested = false
		d.terminalOnce = new(sync.Once)
		d.mu.Unlock()

		d.finish(session.Outcome{Kind: session.Cancelled})
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.running = true
	d.completed = false
	d.hasOutcome = false
	d.hasErrKind = false
	d.terminalOnce = new(sync.Once)
	d.mu.Unlock()

	d.notifier.Loading(true)
	d.handle.Set(status.Extracting, "", 0)

	window, hasWindow := d.req.TrimWindow()

	slog.Info("starting download session",
		slog.String("id", d.Id),
		slog.String("url", d.req.URL),
		slog.Any("args", d.args()),
	)

	out := d.sess.Run(ctx, d.args(), d.onStdout, func(line string) {
		d.onStderr(line, window, hasWindow)
	})

	d.finish(out)

	if out.Kind == session.StartError {
		return out.Err
	}
	return nil
}

// Cancel signals the running session. Effective exactly once: the
// second call on the same run finds no context left to cancel. A
// download that is published but not yet picked up by a worker has no
// context either; the request is recorded and honoured by Start.
func (d *Download) Cancel() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	if cancel == nil && !d.completed {
		d.cancelRequested = true
	}
	d.mu.Unlock()

	if cancel != nil {
		slog.Info("cancelling download", slog.String("id", d.Id))
		cancel()
	}
}

// rearm clears the terminal state so the worker pool accepts the job
// again when a toggle restart re-publishes it.
func (d *Download) rearm() {
	d.mu.Lock()
	d.completed = false
	d.cancelRequested = false
	d.mu.Unlock()
}

func (d *Download) onStdout(line string) {
	ev, ok := progress.Parse(line)
	if !ok {
		// verbose output legitimately contains many unclassified
		// lines, they are not errors
		return
	}

	switch ev.Kind {
	case progress.KindPercent:
		label := d.progressLabel(line)
		d.thr.Do(d.Id, d.throttleEvery, func() {
			d.handle.Set(status.Downloading, label, ev.Percent)
			d.notifier.Title(label)
		})

	case progress.KindPlaylistItem:
		d.mu.Lock()
		d.playlistCurrent = ev.Current
		d.playlistTotal = ev.Total
		d.mu.Unlock()

	case progress.KindAlreadyDownloaded:
		// lifecycle transition, never throttled
		d.handle.Set(status.AlreadyDownloaded, ev.Title, 0)

	case progress.KindErrorMarker:
		d.recordErrKind(ev.Err)
	}
}

func (d *Download) onStderr(line string, window time.Duration, hasWindow bool) {
	ev, ok := progress.Parse(line)
	if !ok {
		return
	}

	switch ev.Kind {
	case progress.KindTimeElapsed:
		if !hasWindow {
			return
		}
		percent, ok := ev.WindowPercent(window)
		if !ok {
			return
		}
		label := fmt.Sprintf("%s\n(%s / %s)", d.progressLabel(line), ev.Elapsed, window)
		d.thr.Do(d.Id, d.throttleEvery, func() {
			d.handle.Set(status.Downloading, label, percent)
		})

	case progress.KindErrorMarker:
		d.recordErrKind(ev.Err)
	}
}

// progressLabel picks the user-visible line: a generic queued label
// when several transfers are active, the per-item title otherwise.
func (d *Download) progressLabel(line string) string {
	if d.store != nil && d.store.ActiveCount() > 1 {
		return d.localize("in_queue")
	}

	d.mu.Lock()
	title := d.title
	current, total := d.playlistCurrent, d.playlistTotal
	d.mu.Unlock()

	if total > 0 {
		return fmt.Sprintf("%s (%d/%d)\n%s", title, current, total, line)
	}
	if title != "" {
		return fmt.Sprintf("%s\n%s", title, line)
	}
	return line
}

func (d *Download) recordErrKind(kind progress.ErrorKind) {
	d.mu.Lock()
	d.errKind = kind
	d.hasErrKind = true
	d.mu.Unlock()
}

func (d *Download) finish(out session.Outcome) {
	d.mu.Lock()
	d.running = false
	d.completed = true
	d.outcome = out
	d.hasOutcome = true
	cancel := d.cancel
	d.cancel = nil
	once := d.terminalOnce
	reset := d.toggleReset
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	once.Do(func() {
		d.emitTerminal(out)

		if d.onTerminal != nil {
			d.onTerminal(d, out)
		}

		// the bound toggle returns to its start phase so a finished
		// session can be restarted from the same affordance
		if reset != nil {
			reset()
		}
	})

	d.notifier.Loading(false)
	d.notifier.ItemsChanged(-1)
	d.thr.Forget(d.Id)
}

func (d *Download) emitTerminal(out session.Outcome) {
	switch out.Kind {
	case session.Success:
		d.handle.Set(status.Finished, "", 100)

	case session.Cancelled:
		d.handle.Set(status.Cancelled, "", 0)

	case session.AlreadyDownloaded:
		if d.handle.State() != status.AlreadyDownloaded {
			d.handle.Set(status.AlreadyDownloaded, out.Title, 0)
		}

	case session.ExitError:
		d.handle.Set(status.Error, d.errorMessage(out), 0)

	case session.StartError:
		if errors.Is(out.Err, exec.ErrNotFound) {
			d.handle.Set(status.Error, d.localize("downloader_missing"), 0)
		} else {
			d.handle.Set(status.Error, d.localize("start_failed"), 0)
		}
	}

	slog.Info("download session finished",
		slog.String("id", d.Id),
		slog.String("outcome", out.String()),
	)
}

// errorMessage prefers a domain classification over the tool's own
// last diagnostic line.
func (d *Download) errorMessage(out session.Outcome) string {
	d.mu.Lock()
	kind, has := d.errKind, d.hasErrKind
	d.mu.Unlock()

	if has {
		switch kind {
		case progress.ErrorAgeRestricted:
			return d.localize("age_restricted")
		case progress.ErrorSignInRequired:
			return d.localize("sign_in_required")
		}
	}

	if out.LastLine != "" {
		return out.LastLine
	}
	return fmt.Sprintf("%s (%d)", d.localize("download_failed"), out.ExitCode)
}

func newId() string { return uuid.NewString() }
