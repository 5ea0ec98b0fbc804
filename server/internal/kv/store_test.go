package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProc struct {
	id      string
	url     string
	running bool
}

func (f *fakeProc) GetId() string  { return f.id }
func (f *fakeProc) GetUrl() string { return f.url }
func (f *fakeProc) Running() bool  { return f.running }

func TestSetGetDelete(t *testing.T) {
	s := NewStore()

	id := s.Set(&fakeProc{id: "d1", url: "https://example.org/v"})
	assert.Equal(t, "d1", id)

	p, err := s.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/v", p.GetUrl())

	s.Delete("d1")
	_, err = s.Get("d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActiveCount(t *testing.T) {
	s := NewStore()

	s.Set(&fakeProc{id: "a", running: true})
	s.Set(&fakeProc{id: "b", running: true})
	s.Set(&fakeProc{id: "c", running: false})

	assert.Equal(t, 2, s.ActiveCount())
}

func TestKeysAndAll(t *testing.T) {
	s := NewStore()

	s.Set(&fakeProc{id: "a"})
	s.Set(&fakeProc{id: "b"})

	assert.ElementsMatch(t, []string{"a", "b"}, s.Keys())
	assert.Len(t, s.All(), 2)
}
