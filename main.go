package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ytsess/yt-dlp-sessiond/server"
	"github.com/ytsess/yt-dlp-sessiond/server/config"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "conf", "./config.yml", "Config file path")
	flag.Parse()

	// optional .env for secrets kept out of the yaml file
	godotenv.Load()

	cfg := config.Instance()
	if err := cfg.Load(configFile); err != nil {
		slog.Error("failed to load config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Authentication.JWTSecret = secret
	}

	if cfg.Server.QueueSize <= 0 {
		cfg.Server.QueueSize = max(2, runtime.NumCPU()/2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting server",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.Int("queue_size", cfg.Server.QueueSize),
	)

	if err := server.Run(ctx); err != nil {
		slog.Error("server stopped with error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	slog.Info("server exited cleanly")
}
