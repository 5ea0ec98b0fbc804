// Package metadata runs the query step: one -J invocation of the
// downloader that yields the target's title, thumbnail and remote
// format list.
package metadata

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/ytsess/yt-dlp-sessiond/server/internal/formats"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/progress"
)

// VideoMetadata is the subset of the -J document the core consumes.
type VideoMetadata struct {
	URL           string           `json:"webpage_url"`
	Title         string           `json:"title"`
	Thumbnail     string           `json:"thumbnail"`
	Duration      float64          `json:"duration"`
	IsLive        bool             `json:"is_live"`
	Type          string           `json:"_type"`
	PlaylistCount int              `json:"playlist_count"`
	Formats       []formats.Format `json:"formats"`
	Entries       []PlaylistEntry  `json:"entries"`
	CreatedAt     time.Time        `json:"created_at"`
}

// PlaylistEntry is one item of a flat-playlist document.
type PlaylistEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (m *VideoMetadata) IsPlaylist() bool { return m.Type == "playlist" }

// DomainError carries an actionable stderr classification (e.g. the
// user can supply cookies) as opposed to an opaque failure.
type DomainError struct {
	Kind progress.ErrorKind
	Line string
}

func (e *DomainError) Error() string {
	switch e.Kind {
	case progress.ErrorAgeRestricted:
		return "video is age-restricted"
	case progress.ErrorSignInRequired:
		return "video requires a signed-in account"
	}
	return "downloader error: " + e.Line
}

// Fetcher runs query-step invocations of the downloader binary.
type Fetcher struct {
	bin         string
	cookiesFile string
}

func NewFetcher(bin, cookiesFile string) *Fetcher {
	return &Fetcher{bin: bin, cookiesFile: cookiesFile}
}

// Fetch resolves a single target. Age-restriction and sign-in markers
// on stderr surface as *DomainError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*VideoMetadata, error) {
	args := []string{
		url,
		"--dump-single-json",
		"--no-playlist",
		"--no-check-formats",
		"--ignore-no-formats-error",
	}
	if f.cookiesFile != "" {
		args = append(args, "--cookies", f.cookiesFile)
	}

	return f.run(ctx, args)
}

// FetchFlat resolves a playlist without extracting every entry.
func (f *Fetcher) FetchFlat(ctx context.Context, url string) (*VideoMetadata, error) {
	return f.run(ctx, []string{url, "--dump-single-json", "--flat-playlist"})
}

func (f *Fetcher) run(ctx context.Context, args []string) (*VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, f.bin, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var (
		bufferedStderr bytes.Buffer
		domainErr      *DomainError
		stderrDone     = make(chan struct{})
	)

	go func() {
		defer close(stderrDone)
		tee := io.TeeReader(stderr, &bufferedStderr)
		scanner := bufio.NewScanner(tee)
		for scanner.Scan() {
			line := scanner.Text()
			if ev, ok := progress.Parse(line); ok && ev.Kind == progress.KindErrorMarker {
				domainErr = &DomainError{Kind: ev.Err, Line: line}
			}
		}
	}()

	meta := VideoMetadata{CreatedAt: time.Now()}

	slog.Info("retrieving metadata", slog.Any("args", args))

	decodeErr := json.NewDecoder(stdout).Decode(&meta)
	<-stderrDone

	if err := cmd.Wait(); err != nil {
		if domainErr != nil {
			return nil, domainErr
		}
		return nil, errors.Join(err, errors.New(bufferedStderr.String()))
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", decodeErr)
	}

	return &meta, nil
}
