package pipes

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// Transcoder remuxes the incoming media stream through the companion
// transcoder binary. Its stderr lines are handed to OnLine, where the
// caller feeds the time= progress classifier.
type Transcoder struct {
	Bin    string
	Args   []string
	Format string // output container passed to -f

	OnLine func(line string)
}

func (t *Transcoder) Name() string { return "transcoder" }

func (t *Transcoder) Connect(r io.Reader) (io.Reader, error) {
	format := t.Format
	if format == "" {
		format = "mp4"
	}

	args := append([]string{"-i", "pipe:0"}, t.Args...)
	args = append(args, "-f", format, "pipe:1")

	cmd := exec.Command(t.Bin, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	go func() {
		// the transcoder reports progress with \r terminated lines
		reader := bufio.NewReader(stderr)
		var line string

		for {
			part, err := reader.ReadString('\r')
			line += part
			if err != nil {
				break
			}

			line = strings.TrimRight(line, "\r\n")
			if t.OnLine != nil {
				t.OnLine(line)
			}
			line = ""
		}
	}()

	go func() {
		defer stdin.Close()
		if _, err := io.Copy(stdin, r); err != nil && !errors.Is(err, io.EOF) {
			slog.Error("transcoder stdin error", slog.Any("err", err))
		}
	}()

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return stdout, nil
}
