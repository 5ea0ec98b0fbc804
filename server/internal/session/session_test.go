package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) record(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

func (r *lineRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func TestRunSuccess(t *testing.T) {
	s := New("/bin/sh")

	var stdout lineRecorder
	out := s.Run(context.Background(),
		[]string{"-c", `echo "[download]  50.0% of 10MiB"; echo "[download] 100% of 10MiB"`},
		stdout.record, nil,
	)

	assert.Equal(t, Success, out.Kind)
	assert.Equal(t, []string{
		"[download]  50.0% of 10MiB",
		"[download] 100% of 10MiB",
	}, stdout.all())
}

func TestRunExitError(t *testing.T) {
	s := New("/bin/sh")

	var stderr lineRecorder
	out := s.Run(context.Background(),
		[]string{"-c", `echo "ERROR: unsupported url" 1>&2; exit 7`},
		nil, stderr.record,
	)

	assert.Equal(t, ExitError, out.Kind)
	assert.Equal(t, 7, out.ExitCode)
	assert.Equal(t, "ERROR: unsupported url", out.LastLine)
}

func TestRunSuccessExitCodesAccepted(t *testing.T) {
	s := New("/bin/sh", WithSuccessExitCodes(101))

	out := s.Run(context.Background(), []string{"-c", "exit 101"}, nil, nil)

	assert.Equal(t, Success, out.Kind)
}

func TestRunAlreadyDownloadedBeatsExitCode(t *testing.T) {
	s := New("/bin/sh")

	out := s.Run(context.Background(),
		[]string{"-c", `echo "[download] clip.mp4 has already been downloaded"; exit 1`},
		nil, nil,
	)

	assert.Equal(t, AlreadyDownloaded, out.Kind)
	assert.Equal(t, "clip.mp4", out.Title)
}

func TestRunCancelled(t *testing.T) {
	s := New("/bin/sh", WithKillGrace(time.Second))

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	out := s.Run(ctx, []string{"-c", "sleep 30"}, nil, nil)

	assert.Equal(t, Cancelled, out.Kind)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunCancelBeatsCleanExitRace(t *testing.T) {
	s := New("/bin/sh")

	// the context fires while the process is still alive; even if the
	// process then exits 0 the classification stays cancelled
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	out := s.Run(ctx, []string{"-c", "sleep 1; exit 0"}, nil, nil)

	assert.Equal(t, Cancelled, out.Kind)
}

func TestRunStartError(t *testing.T) {
	s := New("/nonexistent/definitely-not-a-binary")

	called := false
	out := s.Run(context.Background(), nil, func(string) { called = true }, nil)

	assert.Equal(t, StartError, out.Kind)
	require.Error(t, out.Err)
	assert.False(t, called, "no stream callback may fire when the process never started")
}

func TestRunDrainsBothStreams(t *testing.T) {
	s := New("/bin/sh")

	var stdout, stderr lineRecorder
	out := s.Run(context.Background(),
		[]string{"-c", `echo out1; echo err1 1>&2; echo out2`},
		stdout.record, stderr.record,
	)

	assert.Equal(t, Success, out.Kind)
	assert.Equal(t, []string{"out1", "out2"}, stdout.all())
	assert.Equal(t, []string{"err1"}, stderr.all())
}
