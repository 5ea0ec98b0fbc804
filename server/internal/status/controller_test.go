package status

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu    sync.Mutex
	shown []Snapshot
	hides []string
}

func (r *recordingSink) Show(s Snapshot) {
	r.mu.Lock()
	r.shown = append(r.shown, s)
	r.mu.Unlock()
}

func (r *recordingSink) Hide(id string) {
	r.mu.Lock()
	r.hides = append(r.hides, id)
	r.mu.Unlock()
}

func (r *recordingSink) hideCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hides)
}

func TestSetBumpsVersionAndShows(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandle("d1", sink)

	h.Set(Downloading, "42%", 42)
	h.Set(Downloading, "43%", 43)

	require.Len(t, sink.shown, 2)
	assert.Equal(t, uint64(1), sink.shown[0].Version)
	assert.Equal(t, uint64(2), sink.shown[1].Version)
	assert.Equal(t, 43.0, sink.shown[1].Percent)
}

func TestSnapshotIsConsistent(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandle("d1", sink)

	h.Set(Finished, "", 100)

	snap := h.Snapshot()
	assert.Equal(t, Finished, snap.State)
	assert.Equal(t, h.Version(), snap.Version)
	assert.Equal(t, SeveritySuccess, snap.Severity)
}

func TestAutoHideFiresWhenStateIsStale(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandle("d1", sink, WithHideDelay(30*time.Millisecond))

	h.Set(Finished, "", 100)

	assert.Eventually(t, func() bool {
		return sink.hideCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestAutoHideSupersededByNewerWrite(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandle("d1", sink, WithHideDelay(50*time.Millisecond))

	h.Set(Finished, "", 100)
	// a newer write lands before the hide fires, the stale hide must
	// not remove it
	time.Sleep(10 * time.Millisecond)
	h.Set(Downloading, "1%", 1)

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, sink.hideCount())
}

func TestProgressStatesDoNotAutoHide(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandle("d1", sink, WithHideDelay(20*time.Millisecond))

	h.Set(Downloading, "10%", 10)
	h.Set(Extracting, "", 0)

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, sink.hideCount())
}

func TestComposeLocalizes(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandle("d1", sink, WithLocalizer(func(key string) string {
		return "loc:" + key
	}))

	h.Set(AlreadyDownloaded, "", 0)

	require.Len(t, sink.shown, 1)
	assert.Equal(t, "loc:already_downloaded", sink.shown[0].Message)
	assert.Equal(t, SeverityWarning, sink.shown[0].Severity)
}

func TestExtractingIsIndeterminate(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandle("d1", sink)

	h.Set(Extracting, "", 0)

	require.Len(t, sink.shown, 1)
	assert.True(t, sink.shown[0].Indeterminate)
}
