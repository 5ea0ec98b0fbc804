// Package logging provides the file-backed log writer used when file
// logging is enabled.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RotableLogger is an io.Writer appending to a log file that can be
// rotated in place. Rotation renames the current file with a
// timestamp suffix and reopens a fresh one.
type RotableLogger struct {
	mu   sync.Mutex
	path string
	fd   *os.File
}

func NewRotableLogger(path string) (*RotableLogger, error) {
	fd, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	return &RotableLogger{path: path, fd: fd}, nil
}

func (l *RotableLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fd.Write(p)
}

func (l *RotableLogger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fd.Close(); err != nil {
		return err
	}

	var (
		ext     = filepath.Ext(l.path)
		base    = l.path[:len(l.path)-len(ext)]
		stamp   = time.Now().Format("2006-01-02")
		rotated = fmt.Sprintf("%s.%s%s", base, stamp, ext)
	)

	if err := os.Rename(l.path, rotated); err != nil && !os.IsNotExist(err) {
		return err
	}

	fd, err := openLogFile(l.path)
	if err != nil {
		return err
	}
	l.fd = fd

	return nil
}

func (l *RotableLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fd.Close()
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
