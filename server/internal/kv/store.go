package kv

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when no download is registered under a key.
var ErrNotFound = errors.New("no download found for the given key")

// Proc is the minimal view the registry needs of an in-flight
// download.
type Proc interface {
	GetId() string
	GetUrl() string
	Running() bool
}

// In-memory thread-safe registry of active downloads. Read-mostly: the
// UI polls it to decide between per-item titles and a generic queued
// label, sessions register and remove themselves around their run.
type Store struct {
	table map[string]Proc
	mu    sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		table: make(map[string]Proc),
	}
}

// Get a download given its id
func (m *Store) Get(id string) (Proc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.table[id]
	if !ok {
		return nil, ErrNotFound
	}

	return entry, nil
}

// Set registers a download and returns its id
func (m *Store) Set(p Proc) string {
	m.mu.Lock()
	m.table[p.GetId()] = p
	m.mu.Unlock()

	return p.GetId()
}

// Delete removes a download given its id
func (m *Store) Delete(id string) {
	m.mu.Lock()
	delete(m.table, id)
	m.mu.Unlock()
}

func (m *Store) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.table))
	for id := range m.table {
		keys = append(keys, id)
	}

	return keys
}

// All returns every registered download.
func (m *Store) All() []Proc {
	m.mu.RLock()
	defer m.mu.RUnlock()

	procs := make([]Proc, 0, len(m.table))
	for _, p := range m.table {
		procs = append(procs, p)
	}

	return procs
}

// ActiveCount counts the downloads whose session is currently running.
func (m *Store) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, p := range m.table {
		if p.Running() {
			n++
		}
	}

	return n
}
