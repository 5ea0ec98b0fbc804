package progress

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind tags the event extracted from a single line of downloader output.
type Kind int

const (
	KindPercent Kind = iota
	KindPlaylistItem
	KindTimeElapsed
	KindAlreadyDownloaded
	KindErrorMarker
)

// ErrorKind classifies stderr markers that deserve a distinct
// user-facing message instead of a generic failure.
type ErrorKind int

const (
	ErrorGeneric ErrorKind = iota
	ErrorAgeRestricted
	ErrorSignInRequired
)

// Event is the structured form of one classified output line.
type Event struct {
	Kind    Kind
	Percent float64       // KindPercent
	Current int           // KindPlaylistItem
	Total   int           // KindPlaylistItem
	Elapsed time.Duration // KindTimeElapsed
	Title   string        // KindAlreadyDownloaded, may be empty
	Err     ErrorKind     // KindErrorMarker
}

var (
	alreadyRe = regexp.MustCompile(`\[download\]\s+(.*?)\s+has already been downloaded`)
	itemRe    = regexp.MustCompile(`\[download\]\s+Downloading item\s+(\d+)\s+of\s+(\d+)`)
	percentRe = regexp.MustCompile(`\[download\]\s+(\d{1,3}(?:\.\d+)?)%`)
	timeRe    = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}(?:\.\d{1,3})?)`)
)

const alreadyMarker = "has already been downloaded"

// Parse classifies a single line of yt-dlp/ffmpeg output. Most lines
// carry no event at all, those return ok=false. A line yields at most
// one event; the already-downloaded marker wins over every other match.
func Parse(line string) (Event, bool) {
	if strings.Contains(line, alreadyMarker) {
		ev := Event{Kind: KindAlreadyDownloaded}
		if m := alreadyRe.FindStringSubmatch(line); m != nil {
			ev.Title = m[1]
		}
		return ev, true
	}

	if m := itemRe.FindStringSubmatch(line); m != nil {
		current, err := strconv.Atoi(m[1])
		if err != nil {
			return Event{}, false
		}
		total, err := strconv.Atoi(m[2])
		if err != nil {
			return Event{}, false
		}
		if current <= 0 || total <= 0 {
			return Event{}, false
		}
		return Event{Kind: KindPlaylistItem, Current: current, Total: total}, true
	}

	if m := percentRe.FindStringSubmatch(line); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil || value < 0 || value > 100 {
			return Event{}, false
		}
		return Event{Kind: KindPercent, Percent: value}, true
	}

	if m := timeRe.FindStringSubmatch(line); m != nil {
		elapsed, err := ParseClock(m[1])
		if err != nil {
			return Event{}, false
		}
		return Event{Kind: KindTimeElapsed, Elapsed: elapsed}, true
	}

	if kind, ok := classifyError(line); ok {
		return Event{Kind: KindErrorMarker, Err: kind}, true
	}

	return Event{}, false
}

// WindowPercent turns a time-elapsed event into a percentage of the
// given trim window, clamped to [0,100]. A zero or negative window
// yields no percentage.
func (e Event) WindowPercent(window time.Duration) (float64, bool) {
	if e.Kind != KindTimeElapsed || window <= 0 {
		return 0, false
	}
	percent := e.Elapsed.Seconds() / window.Seconds() * 100
	if percent > 100 {
		percent = 100
	}
	return percent, true
}

func classifyError(line string) (ErrorKind, bool) {
	switch {
	case strings.Contains(line, "This video is age-restricted"):
		return ErrorAgeRestricted, true
	case strings.Contains(line, "This video is only available for registered users"):
		return ErrorSignInRequired, true
	}
	return ErrorGeneric, false
}

// ParseClock parses HH:MM:SS with an optional fractional part.
func ParseClock(s string) (time.Duration, error) {
	fraction := time.Duration(0)

	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		frac := s[dot+1:]
		s = s[:dot]

		value, err := strconv.Atoi(frac)
		if err != nil {
			return 0, err
		}
		scale := time.Second
		for i := 0; i < len(frac); i++ {
			scale /= 10
		}
		fraction = time.Duration(value) * scale
	}

	parts := strings.Split(s, ":")
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, err
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		fraction, nil
}
