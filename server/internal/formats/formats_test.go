package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderByResolution(t *testing.T) {
	fs := []Format{
		{ID: "a", Height: 720, TBR: 800},
		{ID: "b", Height: 1080, TBR: 500},
		{ID: "c", Height: 1080, TBR: 900},
	}

	out := OrderByResolution(fs)

	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, "a", out[2].ID)

	// input untouched
	assert.Equal(t, "a", fs[0].ID)
}

func TestOrderByResolutionDistinct(t *testing.T) {
	fs := []Format{
		{ID: "low", Height: 1080, TBR: 500},
		{ID: "high", Height: 1080, TBR: 800},
		{ID: "sd", Height: 720, TBR: 300},
		{ID: "audio", Height: 0, Resolution: "audio only"},
	}

	out := OrderByResolutionDistinct(fs)

	require.Len(t, out, 2)
	assert.Equal(t, "high", out[0].ID)
	assert.Equal(t, "sd", out[1].ID)
}

func TestAudioOnly(t *testing.T) {
	assert.True(t, Format{Resolution: "audio only"}.AudioOnly())
	assert.True(t, Format{Resolution: " Audio Only "}.AudioOnly())
	assert.False(t, Format{Resolution: "1920x1080"}.AudioOnly())
}

func TestSizePrefersExact(t *testing.T) {
	assert.Equal(t, int64(100), Format{Filesize: 100, FilesizeApprox: 200}.Size())
	assert.Equal(t, int64(200), Format{FilesizeApprox: 200}.Size())
}
