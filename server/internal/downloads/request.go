package downloads

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ytsess/yt-dlp-sessiond/server/internal/progress"
)

// Request describes one user-initiated download. Constructed once per
// invocation and never mutated afterwards.
type Request struct {
	URL           string `json:"url"`
	VideoFormatID string `json:"video_format_id"`
	AudioFormatID string `json:"audio_format_id"`
	AudioOnly     bool   `json:"audio_only"`

	// Raw format selector override; when set it wins over the
	// video/audio ids (quick-merge fills this).
	FormatSelector string `json:"format_selector"`

	Container   string `json:"container"`    // --merge-output-format
	AudioFormat string `json:"audio_format"` // --audio-format for -x
	OutputDir   string `json:"output_dir"`

	TrimStart string `json:"trim_start"` // HH:MM:SS
	TrimEnd   string `json:"trim_end"`

	CookiesFile string `json:"cookies_file"`
	Live        bool   `json:"live"`

	PlaylistStart int `json:"playlist_start"`
	PlaylistEnd   int `json:"playlist_end"`

	SubtitleLang string `json:"subtitle_lang"`
	AutoSubtitle bool   `json:"auto_subtitle"`

	Title string `json:"title"`
}

// TrimWindow returns endTime - startTime when both bounds parse and
// the window is positive.
func (r Request) TrimWindow() (time.Duration, bool) {
	if r.TrimStart == "" || r.TrimEnd == "" {
		return 0, false
	}

	start, err := progress.ParseClock(r.TrimStart)
	if err != nil {
		return 0, false
	}
	end, err := progress.ParseClock(r.TrimEnd)
	if err != nil {
		return 0, false
	}

	window := end - start
	if window <= 0 {
		return 0, false
	}
	return window, true
}

func (r Request) selector() string {
	if r.FormatSelector != "" {
		return r.FormatSelector
	}

	video := r.VideoFormatID
	audio := r.AudioFormatID
	if audio == "" {
		audio = "bestaudio"
	}

	switch {
	case video == "":
		return "best"
	default:
		return fmt.Sprintf("%s+%s/best", video, audio)
	}
}

func (r Request) audioSelector() string {
	audio := r.AudioFormatID
	if audio == "" {
		audio = "bestaudio"
	}
	return fmt.Sprintf("%s/bestaudio/ba/best", audio)
}

// Args builds the argument vector for a single-item download. The
// vector goes straight to exec, nothing is ever joined into a shell
// string.
func (r Request) Args() []string {
	args := []string{
		"--newline",
		"--no-colors",
		"--no-mtime",
		"--no-playlist",
		"-o", "%(title)s - %(format_id)s - %(resolution)s.%(ext)s",
		"-P", r.OutputDir,
	}

	if r.CookiesFile != "" {
		args = append(args, "--cookies", r.CookiesFile)
	}

	if r.AudioOnly {
		args = append(args,
			"-f", r.audioSelector(),
			"--extract-audio",
			"--audio-format", r.AudioFormat,
		)
	} else {
		args = append(args,
			"-f", r.selector(),
			"--merge-output-format", r.Container,
		)
	}

	if r.TrimStart != "" && r.TrimEnd != "" {
		args = append(args, "--download-sections", fmt.Sprintf("*%s-%s", r.TrimStart, r.TrimEnd))
	}

	return append(args, r.URL)
}

// PlaylistArgs builds the argument vector for a playlist download.
func (r Request) PlaylistArgs() []string {
	args := []string{
		"--newline",
		"--no-colors",
		"--no-mtime",
		"--yes-playlist",
		"-P", r.OutputDir,
	}

	if r.PlaylistStart > 0 {
		args = append(args, "--playlist-start", strconv.Itoa(r.PlaylistStart))
	}
	if r.PlaylistEnd > 0 {
		args = append(args, "--playlist-end", strconv.Itoa(r.PlaylistEnd))
	}

	if r.CookiesFile != "" {
		args = append(args, "--cookies", r.CookiesFile)
	}

	if r.AudioOnly {
		args = append(args,
			"-f", r.audioSelector(),
			"--extract-audio",
			"--audio-format", r.AudioFormat,
		)
	} else {
		args = append(args,
			"-f", r.selector(),
			"--merge-output-format", r.Container,
		)
	}

	return append(args, r.URL)
}

// SubtitleArgs builds the argument vector for a subtitle-only
// download.
func (r Request) SubtitleArgs() []string {
	args := []string{
		"--no-mtime",
		"--no-playlist",
		"--skip-download",
		"--sub-langs", r.SubtitleLang,
		"-P", r.OutputDir,
	}

	if r.AutoSubtitle {
		args = append(args, "--write-auto-subs")
	} else {
		args = append(args, "--write-subs")
	}

	return append(args, r.URL)
}
