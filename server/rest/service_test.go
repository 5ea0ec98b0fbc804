package rest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/toggle"
)

func newBoundToggle(started, cancelled *int) *boundToggle {
	var bound *boundToggle

	cmd := toggle.New(
		toggle.Phase{Label: "download", Action: func() { *started++ }},
		toggle.Phase{Label: "cancel_download", Action: func() { *cancelled++ }},
		func(toggle.Confirmation) bool {
			if bound == nil || !bound.hasAnsw {
				return false
			}
			return bound.answer
		},
		toggle.Confirmation{Title: "cancel_download"},
	)

	bound = &boundToggle{cmd: cmd}
	return bound
}

func TestBoundToggleThreadsAnswer(t *testing.T) {
	var started, cancelled int
	bound := newBoundToggle(&started, &cancelled)

	label := bound.invoke(false) // start phase ignores the answer
	assert.Equal(t, "cancel_download", label)
	assert.Equal(t, 1, started)

	label = bound.invoke(false) // declined prompt keeps the session
	assert.Equal(t, "cancel_download", label)
	assert.Equal(t, 0, cancelled)

	label = bound.invoke(true)
	assert.Equal(t, "download", label)
	assert.Equal(t, 1, cancelled)
}

func TestBoundToggleConcurrentInvocations(t *testing.T) {
	var mu sync.Mutex
	started, cancelled := 0, 0

	var bound *boundToggle
	cmd := toggle.New(
		toggle.Phase{Label: "download", Action: func() {
			mu.Lock()
			started++
			mu.Unlock()
		}},
		toggle.Phase{Label: "cancel_download", Action: func() {
			mu.Lock()
			cancelled++
			mu.Unlock()
		}},
		func(toggle.Confirmation) bool { return bound.hasAnsw && bound.answer },
		toggle.Confirmation{},
	)
	bound = &boundToggle{cmd: cmd}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(confirmed bool) {
			defer wg.Done()
			bound.invoke(confirmed)
		}(i%2 == 0)
	}
	wg.Wait()

	// every confirmed cancel matches a preceding start, the command
	// never runs the same phase twice in a row
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, started, cancelled)
	assert.LessOrEqual(t, started-cancelled, 1)
}
