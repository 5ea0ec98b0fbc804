package session

import "fmt"

// OutcomeKind tags the result of a finished process. Exactly one kind
// holds per session.
type OutcomeKind int

const (
	// Success: the process exited with an accepted exit code and no
	// already-downloaded marker was seen.
	Success OutcomeKind = iota
	// Cancelled: the kill path was taken before natural exit.
	Cancelled
	// AlreadyDownloaded: the tool reported the target already on disk,
	// regardless of exit code.
	AlreadyDownloaded
	// ExitError: non-zero (and non-accepted) exit code without
	// cancellation.
	ExitError
	// StartError: the process never started (binary missing, bad
	// argv). No stream was ever opened.
	StartError
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Cancelled:
		return "cancelled"
	case AlreadyDownloaded:
		return "already_downloaded"
	case ExitError:
		return "exit_error"
	case StartError:
		return "start_error"
	}
	return "unknown"
}

// Outcome is the terminal classification of one supervised run.
type Outcome struct {
	Kind     OutcomeKind
	Title    string // AlreadyDownloaded: extracted title, may be empty
	ExitCode int    // ExitError
	Err      error  // StartError
	LastLine string // last stderr diagnostic, for opaque failures
}

func (o Outcome) String() string {
	switch o.Kind {
	case ExitError:
		return fmt.Sprintf("exit_error(%d)", o.ExitCode)
	case StartError:
		return fmt.Sprintf("start_error(%v)", o.Err)
	}
	return o.Kind.String()
}
