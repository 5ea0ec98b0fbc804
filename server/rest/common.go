package rest

import (
	"github.com/ytsess/yt-dlp-sessiond/server/internal/downloads"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/kv"
	"github.com/ytsess/yt-dlp-sessiond/server/internal/metadata"
	"github.com/ytsess/yt-dlp-sessiond/server/ws"
)

type ContainerArgs struct {
	MDB     *kv.Store
	ORC     *downloads.Orchestrator
	Fetcher *metadata.Fetcher
	Hub     *ws.Hub
}
