package status

import (
	"sync"
	"time"
)

// Snapshot is one consistent state/version observation of a handle.
// Readers never see a state paired with a version it did not co-occur
// with.
type Snapshot struct {
	ID            string   `json:"id"`
	State         State    `json:"state"`
	Message       string   `json:"message"`
	Severity      Severity `json:"severity"`
	Percent       float64  `json:"percent"`
	Indeterminate bool     `json:"indeterminate"`
	Version       uint64   `json:"version"`
}

// Sink receives status updates. The host UI implements this; the
// orchestrator is constructed with it instead of looking up a global
// registry.
type Sink interface {
	Show(s Snapshot)
	Hide(id string)
}

// Handle owns the observable state of one visible download affordance.
// State is written only by its owning session, read concurrently by
// the UI.
type Handle struct {
	id        string
	sink      Sink
	localize  Localizer
	hideDelay time.Duration

	mu       sync.Mutex
	state    State
	message  string
	severity Severity
	percent  float64
	indet    bool
	version  uint64
}

type Option func(*Handle)

func WithHideDelay(d time.Duration) Option {
	return func(h *Handle) { h.hideDelay = d }
}

func WithLocalizer(l Localizer) Option {
	return func(h *Handle) { h.localize = l }
}

func NewHandle(id string, sink Sink, opts ...Option) *Handle {
	h := &Handle{
		id:        id,
		sink:      sink,
		localize:  IdentityLocalizer,
		hideDelay: time.Second * 5,
		state:     Idle,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) ID() string { return h.id }

// Set writes a state together with its composed message/severity pair,
// bumps the version counter and pushes the snapshot to the sink. When
// the state auto-hides, a delayed hide is scheduled carrying the
// version observed now; it fires only if no newer write happened in
// the meantime.
func (h *Handle) Set(state State, message string, percent float64) {
	h.mu.Lock()

	h.state = state
	h.message, h.severity, h.indet = h.compose(state, message)
	h.percent = percent
	h.version++

	snap := h.snapshotLocked()
	h.mu.Unlock()

	h.sink.Show(snap)

	if state.AutoHides() {
		versionAtWrite := snap.Version
		time.AfterFunc(h.hideDelay, func() {
			h.mu.Lock()
			stale := h.version != versionAtWrite
			h.mu.Unlock()
			if !stale {
				h.sink.Hide(h.id)
			}
		})
	}
}

func (h *Handle) compose(state State, message string) (string, Severity, bool) {
	switch state {
	case Extracting:
		return h.localize("extracting"), SeverityInfo, true
	case Downloading:
		return message, SeverityInfo, false
	case AlreadyDownloaded:
		return h.localize("already_downloaded"), SeverityWarning, false
	case Finished:
		return h.localize("downloaded"), SeveritySuccess, false
	case Cancelled:
		return h.localize("cancelled"), SeverityError, false
	case Error:
		return message, SeverityError, false
	}
	return message, SeverityInfo, false
}

// Snapshot returns a consistent state/version pair.
func (h *Handle) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Handle) snapshotLocked() Snapshot {
	return Snapshot{
		ID:            h.id,
		State:         h.state,
		Message:       h.message,
		Severity:      h.severity,
		Percent:       h.percent,
		Indeterminate: h.indet,
		Version:       h.version,
	}
}

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Version() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}
