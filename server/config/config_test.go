package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfig() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func TestDefaults(t *testing.T) {
	c := newConfig()

	assert.Equal(t, 3033, c.Server.Port)
	assert.Equal(t, "yt-dlp", c.Paths.DownloaderPath)
	assert.Equal(t, "ffmpeg", c.Paths.TranscoderPath)
	assert.Equal(t, 5*time.Second, c.Downloads.AutoHideDelay.Std())
	assert.Equal(t, 200*time.Millisecond, c.Downloads.ThrottleInterval.Std())
	assert.Equal(t, 3*time.Second, c.Downloads.KillGracePeriod.Std())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	yml := `
server:
  port: 9999
paths:
  downloader_path: /usr/local/bin/yt-dlp
downloads:
  auto_hide_delay: 10s
  success_exit_codes: [101]
  auto_archive: true
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	c := newConfig()
	require.NoError(t, c.Load(path))

	assert.Equal(t, 9999, c.Server.Port)
	assert.Equal(t, "/usr/local/bin/yt-dlp", c.Paths.DownloaderPath)
	assert.Equal(t, 10*time.Second, c.Downloads.AutoHideDelay.Std())
	assert.Equal(t, []int{101}, c.Downloads.SuccessExitCodes)
	assert.True(t, c.Downloads.AutoArchive)

	// untouched keys keep defaults
	assert.Equal(t, "0.0.0.0", c.Server.Host)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	c := newConfig()

	require.NoError(t, c.Load(filepath.Join(t.TempDir(), "nope.yml")))
	assert.Equal(t, 3033, c.Server.Port)
}
