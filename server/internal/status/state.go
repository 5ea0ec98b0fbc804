package status

// State is the lifecycle state of one download session as shown to the
// user. Extracting and Downloading are the only states that stay on
// screen; everything else schedules an auto-hide.
type State int

const (
	Idle State = iota
	Extracting
	Downloading
	AlreadyDownloaded
	Finished
	Cancelled
	Error
	CustomMessage
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Extracting:
		return "extracting"
	case Downloading:
		return "downloading"
	case AlreadyDownloaded:
		return "already_downloaded"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	case Error:
		return "error"
	case CustomMessage:
		return "custom_message"
	}
	return "unknown"
}

// Terminal reports whether the session is over. There is no way back
// from a terminal state except starting a new session.
func (s State) Terminal() bool {
	switch s {
	case AlreadyDownloaded, Finished, Cancelled, Error:
		return true
	}
	return false
}

// AutoHides reports whether writing this state schedules the delayed
// hide of the status affordance.
func (s State) AutoHides() bool {
	switch s {
	case Idle, Extracting, Downloading:
		return false
	}
	return true
}

// Severity of the user-visible message attached to a state.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// Localizer resolves the few fixed message keys the state machine
// needs. Localization itself lives in the host.
type Localizer func(key string) string

// IdentityLocalizer returns the key itself, for hosts without a string
// table.
func IdentityLocalizer(key string) string { return key }
