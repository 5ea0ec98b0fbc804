package downloads

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/pipes"
)

type failingPipe struct{ err error }

func (p failingPipe) Name() string                         { return "failing" }
func (p failingPipe) Connect(io.Reader) (io.Reader, error) { return nil, p.err }

func TestLivePipeFailureReapsProcess(t *testing.T) {
	o := newScriptOrchestrator(t, "exec sleep 30")

	bang := errors.New("transcoder unavailable")
	l := o.NewLive(Request{URL: "https://example.org/live"}, []pipes.Pipe{failingPipe{err: bang}})

	start := time.Now()
	err := l.Start()

	require.ErrorIs(t, err, bang)
	// the process is killed and reaped right away, not left to run
	// out the kill grace period
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.True(t, l.IsCompleted())
	assert.False(t, l.Running())
}
