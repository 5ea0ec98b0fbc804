package ws

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/status"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(srv.URL, "http"), nil,
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// the handler registers the client after the handshake returns
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.clients) > 0
	}, time.Second, 5*time.Millisecond)

	return conn
}

func TestConcurrentSessionsOneClient(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Show(status.Snapshot{ID: fmt.Sprintf("session-%d", i), Percent: float64(i)})
		}(i)
	}
	wg.Wait()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	seen := make(map[string]bool)
	for len(seen) < 8 {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == "show" && f.Snapshot != nil {
			seen[f.Snapshot.ID] = true
		}
	}
	assert.Len(t, seen, 8)
}

func TestLateJoinerGetsRetainedState(t *testing.T) {
	h := NewHub()

	h.Show(status.Snapshot{ID: "a", Percent: 50})
	h.Show(status.Snapshot{ID: "b", Percent: 10})
	h.Hide("b")

	conn := dialHub(t, h)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	require.NotNil(t, f.Snapshot)
	assert.Equal(t, "show", f.Type)
	assert.Equal(t, "a", f.Snapshot.ID)

	retained := h.Retained()
	require.Len(t, retained, 1)
	assert.Equal(t, "a", retained[0].ID)
}

func TestHideReachesClient(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)

	h.Show(status.Snapshot{ID: "x"})
	h.Hide("x")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "show", f.Type)

	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "hide", f.Type)
	assert.Equal(t, "x", f.Id)
}
