package downloads

import (
	"sync"
	"time"

	"github.com/ytsess/yt-dlp-sessiond/server/internal/formats"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/kv"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/queue"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/session"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/status"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/throttle"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/toggle"
)

// Options are the orchestrator-wide defaults applied to every request
// that does not override them.
type Options struct {
	BinPath          string
	SuccessExitCodes []int
	OutputDir        string
	Container        string
	AudioFormat      string
	CookiesFile      string
	FormatSelector   string
	ThrottleInterval time.Duration
	HideDelay        time.Duration
	KillGrace        time.Duration
	Localize         status.Localizer
}

// Orchestrator composes session, parser, throttle and status per
// user-initiated download. It is the unit a caller actually invokes.
type Orchestrator struct {
	opts     Options
	sess     *session.Session
	store    *kv.Store
	mq       *queue.MessageQueue
	thr      *throttle.Throttle
	notifier *Notifier
	sink     status.Sink

	onTerminal func(*Download, session.Outcome)
}

func NewOrchestrator(
	opts Options,
	sink status.Sink,
	store *kv.Store,
	mq *queue.MessageQueue,
	notifier *Notifier,
) *Orchestrator {
	if opts.Localize == nil {
		opts.Localize = status.IdentityLocalizer
	}
	if opts.ThrottleInterval <= 0 {
		opts.ThrottleInterval = time.Millisecond * 200
	}
	if opts.HideDelay <= 0 {
		opts.HideDelay = time.Second * 5
	}

	return &Orchestrator{
		opts: opts,
		sess: session.New(
			opts.BinPath,
			session.WithSuccessExitCodes(opts.SuccessExitCodes...),
			session.WithKillGrace(opts.KillGrace),
		),
		store:    store,
		mq:       mq,
		thr:      throttle.New(),
		notifier: notifier,
		sink:     sink,
	}
}

// SetTerminalHook registers a callback fired exactly once per finished
// session, after the terminal state is emitted (archiving hooks in
// here).
func (o *Orchestrator) SetTerminalHook(fn func(*Download, session.Outcome)) {
	o.onTerminal = fn
}

func (o *Orchestrator) Notifier() *Notifier { return o.notifier }

// Create builds a download for the request without scheduling it.
func (o *Orchestrator) Create(req Request, kind Kind) *Download {
	req = o.applyDefaults(req)
	id := newId()

	d := &Download{
		Id:            id,
		req:           req,
		kind:          kind,
		sess:          o.sess,
		thr:           o.thr,
		store:         o.store,
		notifier:      o.notifier,
		localize:      o.opts.Localize,
		throttleEvery: o.opts.ThrottleInterval,
		onTerminal:    o.onTerminal,
		terminalOnce:  new(sync.Once),
		title:         req.Title,
	}

	d.handle = status.NewHandle(
		id,
		o.sink,
		status.WithHideDelay(o.opts.HideDelay),
		status.WithLocalizer(o.opts.Localize),
	)

	return d
}

// Start registers the download and hands it to the worker pool.
func (o *Orchestrator) Start(req Request, kind Kind) (*Download, error) {
	d := o.Create(req, kind)
	o.enqueue(d)
	return d, nil
}

// enqueue re-arms the job before publishing it. The workers drop
// completed jobs, so a toggle restart after a cancel or a natural
// finish must clear the terminal state first.
func (o *Orchestrator) enqueue(d *Download) {
	d.rearm()
	o.store.Set(d)
	o.notifier.ItemsChanged(1)
	o.mq.PublishMetadata(d)
	o.mq.Publish(d)
}

// StartMerge pairs the selected entries of the working set and, when
// the pairing holds, schedules a single combined download whose raw
// selector is "{video}+{audio}". The returned toggle drives that one
// session from either participating entry.
func (o *Orchestrator) StartMerge(
	req Request,
	working []formats.Format,
	confirm toggle.ConfirmFunc,
) (*Download, *toggle.Command, bool) {
	merge, ok := formats.QuickMerge(working)
	if !ok {
		return nil, nil, false
	}

	req.FormatSelector = merge.Selector()
	d := o.Create(req, KindSingle)

	return d, o.BindToggle(d, confirm), true
}

// BindToggle builds the download/cancel command for a download.
// Cancellation is confirmation-gated; after a confirmed cancel the
// next start issues a fresh context, never the cancelled one. When a
// session ends on its own the command is reset to its start phase.
func (o *Orchestrator) BindToggle(d *Download, confirm toggle.ConfirmFunc) *toggle.Command {
	localize := o.opts.Localize

	cmd := toggle.New(
		toggle.Phase{
			Label:  localize("download"),
			Icon:   "download",
			Action: func() { o.enqueue(d) },
		},
		toggle.Phase{
			Label:  localize("cancel_download"),
			Icon:   "cancel",
			Action: d.Cancel,
		},
		confirm,
		toggle.Confirmation{
			Title:       localize("cancel_download"),
			Description: localize("cancel_dialog_description"),
		},
	)

	d.mu.Lock()
	d.toggleReset = cmd.Reset
	d.mu.Unlock()

	return cmd
}

// Cancel signals the session registered under id.
func (o *Orchestrator) Cancel(id string) error {
	p, err := o.store.Get(id)
	if err != nil {
		return err
	}

	switch d := p.(type) {
	case *Download:
		d.Cancel()
	case *LiveDownload:
		d.Cancel()
	}
	return nil
}

// Running returns a snapshot of every registered download.
func (o *Orchestrator) Running() []Snapshot {
	procs := o.store.All()

	out := make([]Snapshot, 0, len(procs))
	for _, p := range procs {
		if d, ok := p.(*Download); ok {
			out = append(out, d.Snapshot())
		}
	}
	return out
}

func (o *Orchestrator) applyDefaults(req Request) Request {
	if req.OutputDir == "" {
		req.OutputDir = o.opts.OutputDir
	}
	if req.Container == "" {
		req.Container = o.opts.Container
	}
	if req.AudioFormat == "" {
		req.AudioFormat = o.opts.AudioFormat
	}
	if req.CookiesFile == "" {
		req.CookiesFile = o.opts.CookiesFile
	}
	if req.FormatSelector == "" {
		req.FormatSelector = o.opts.FormatSelector
	}
	if req.AudioFormatID == "" {
		req.AudioFormatID = "bestaudio"
	}
	return req
}
