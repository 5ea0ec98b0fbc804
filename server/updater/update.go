// Package updater upgrades the downloader binary in place using its
// builtin self-update.
package updater

import (
	"context"
	"log/slog"
	"os/exec"
	"time"

	"github.com/ytsess/yt-dlp-sessiond/server/config"
)

func UpdateExecutable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute*2)
	defer cancel()

	cmd := exec.CommandContext(ctx, config.Instance().Paths.DownloaderPath, "-U")

	out, err := cmd.CombinedOutput()
	slog.Info("downloader self-update", slog.String("output", string(out)))

	return err
}
