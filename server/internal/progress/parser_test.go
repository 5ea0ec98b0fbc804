package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePercent(t *testing.T) {
	tests := []struct {
		line    string
		percent float64
		ok      bool
	}{
		{"[download]  42.0% of 120.45MiB at 5.12MiB/s ETA 00:13", 42.0, true},
		{"[download] 100% of 10.00MiB in 00:02", 100, true},
		{"[download]   0.1% of ~4.00GiB at 1.00MiB/s", 0.1, true},
		{"[download] Destination: video.mp4", 0, false},
		{"[youtube] abc123: Downloading webpage", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		ev, ok := Parse(tt.line)
		if !tt.ok {
			assert.False(t, ok, tt.line)
			continue
		}
		require.True(t, ok, tt.line)
		assert.Equal(t, KindPercent, ev.Kind, tt.line)
		assert.InDelta(t, tt.percent, ev.Percent, 0.001, tt.line)
	}
}

func TestParsePlaylistItem(t *testing.T) {
	ev, ok := Parse("[download] Downloading item 3 of 12")
	require.True(t, ok)
	assert.Equal(t, KindPlaylistItem, ev.Kind)
	assert.Equal(t, 3, ev.Current)
	assert.Equal(t, 12, ev.Total)

	_, ok = Parse("[download] Downloading item 0 of 12")
	assert.False(t, ok)
}

func TestParseAlreadyDownloaded(t *testing.T) {
	ev, ok := Parse("[download] My Video.mp4 has already been downloaded")
	require.True(t, ok)
	assert.Equal(t, KindAlreadyDownloaded, ev.Kind)
	assert.Equal(t, "My Video.mp4", ev.Title)
}

func TestAlreadyDownloadedWinsOverPercent(t *testing.T) {
	// a pathological line matching both markers classifies as
	// already-downloaded
	ev, ok := Parse("[download] 100% clip has already been downloaded")
	require.True(t, ok)
	assert.Equal(t, KindAlreadyDownloaded, ev.Kind)
}

func TestParseTimeElapsed(t *testing.T) {
	ev, ok := Parse("frame= 2000 fps=30 time=00:01:30.500 bitrate=1200k")
	require.True(t, ok)
	assert.Equal(t, KindTimeElapsed, ev.Kind)
	assert.Equal(t, time.Minute+30*time.Second+500*time.Millisecond, ev.Elapsed)
}

func TestParseErrorMarkers(t *testing.T) {
	ev, ok := Parse("ERROR: This video is age-restricted")
	require.True(t, ok)
	assert.Equal(t, KindErrorMarker, ev.Kind)
	assert.Equal(t, ErrorAgeRestricted, ev.Err)

	ev, ok = Parse("ERROR: This video is only available for registered users")
	require.True(t, ok)
	assert.Equal(t, ErrorSignInRequired, ev.Err)
}

func TestWindowPercent(t *testing.T) {
	ev := Event{Kind: KindTimeElapsed, Elapsed: 30 * time.Second}

	pct, ok := ev.WindowPercent(time.Minute)
	require.True(t, ok)
	assert.InDelta(t, 50.0, pct, 0.001)

	// elapsed past the window clamps to 100
	ev.Elapsed = 2 * time.Minute
	pct, ok = ev.WindowPercent(time.Minute)
	require.True(t, ok)
	assert.Equal(t, 100.0, pct)

	// no window, no percentage
	_, ok = ev.WindowPercent(0)
	assert.False(t, ok)

	// wrong kind
	_, ok = Event{Kind: KindPercent}.WindowPercent(time.Minute)
	assert.False(t, ok)
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("01:02:03")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, d)

	d, err = ParseClock("00:00:01.5")
	require.NoError(t, err)
	assert.Equal(t, time.Second+500*time.Millisecond, d)

	_, err = ParseClock("aa:bb:cc")
	assert.Error(t, err)
}
