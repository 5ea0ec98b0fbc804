package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickMergePairs(t *testing.T) {
	fs := []Format{
		{ID: "v1", Height: 1080, Selected: true},
		{ID: "a1", Resolution: "audio only", Selected: true},
		{ID: "v2", Height: 720}, // not selected
	}

	m, ok := QuickMerge(fs)
	require.True(t, ok)
	assert.Equal(t, "v1", m.Video.ID)
	assert.Equal(t, "a1", m.Audio.ID)
	assert.Equal(t, "v1+a1", m.Selector())
}

func TestQuickMergeRejectsWrongCardinality(t *testing.T) {
	tests := []struct {
		name string
		fs   []Format
	}{
		{"nothing selected", []Format{
			{ID: "v1", Height: 1080},
			{ID: "a1", Resolution: "audio only"},
		}},
		{"two videos", []Format{
			{ID: "v1", Height: 1080, Selected: true},
			{ID: "v2", Height: 720, Selected: true},
			{ID: "a1", Resolution: "audio only", Selected: true},
		}},
		{"two audios", []Format{
			{ID: "v1", Height: 1080, Selected: true},
			{ID: "a1", Resolution: "audio only", Selected: true},
			{ID: "a2", Resolution: "audio only", Selected: true},
		}},
		{"video only", []Format{
			{ID: "v1", Height: 1080, Selected: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := QuickMerge(tt.fs)
			assert.False(t, ok)
		})
	}
}
