package pipes

import (
	"io"
	"log/slog"
	"os"
)

// FileWriter persists the stream. A final writer sinks the stream; a
// non-final one tees it onward for further pipes.
type FileWriter struct {
	Path    string
	IsFinal bool
}

func (f *FileWriter) Name() string { return "file-writer" }

func (f *FileWriter) Connect(r io.Reader) (io.Reader, error) {
	file, err := os.Create(f.Path)
	if err != nil {
		return nil, err
	}

	if f.IsFinal {
		go func() {
			defer file.Close()
			if _, err := io.Copy(file, r); err != nil {
				slog.Error("file writer error", slog.String("path", f.Path), slog.Any("err", err))
			}
		}()
		return r, nil
	}

	pr, pw := io.Pipe()

	go func() {
		defer file.Close()
		defer pw.Close()

		if _, err := io.Copy(io.MultiWriter(file, pw), r); err != nil {
			slog.Error("file writer error", slog.String("path", f.Path), slog.Any("err", err))
		}
	}()

	return pr, nil
}
