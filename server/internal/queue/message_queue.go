package queue

import (
	"context"
	"errors"
	"log/slog"
)

// Job is one unit of download work. Start blocks until the underlying
// session finishes.
type Job interface {
	GetId() string
	GetUrl() string
	Start() error
	IsCompleted() bool
}

// MetadataFetcher resolves a job's remote title before the download
// worker picks visible labels.
type MetadataFetcher func(ctx context.Context, job Job)

// MessageQueue dispatches download jobs to a fixed pool of workers, so
// several transfers run concurrently without any of them blocking the
// others.
type MessageQueue struct {
	concurrency   int
	downloadQueue chan Job
	metadataQueue chan Job
	fetcher       MetadataFetcher
	ctx           context.Context
	cancel        context.CancelFunc
}

func NewMessageQueue(queueSize int, fetcher MetadataFetcher) (*MessageQueue, error) {
	if queueSize <= 0 {
		return nil, errors.New("invalid queue size")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &MessageQueue{
		concurrency:   queueSize,
		downloadQueue: make(chan Job, queueSize*2),
		metadataQueue: make(chan Job, queueSize*4),
		fetcher:       fetcher,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Publish queues a download job
func (m *MessageQueue) Publish(j Job) {
	select {
	case m.downloadQueue <- j:
		slog.Info("published download", slog.String("id", j.GetId()))
	case <-m.ctx.Done():
		slog.Warn("queue stopped, dropping download", slog.String("id", j.GetId()))
	}
}

// SetupConsumers starts the worker pool: N parallel download workers
// and one serial metadata worker.
func (m *MessageQueue) SetupConsumers() {
	for i := 0; i < m.concurrency; i++ {
		go m.downloadWorker(i)
	}

	go m.metadataWorker()
}

func (m *MessageQueue) downloadWorker(workerId int) {
	for {
		select {
		case <-m.ctx.Done():
			return
		case j := <-m.downloadQueue:
			if j == nil || j.IsCompleted() {
				continue
			}

			slog.Info("download worker started",
				slog.Int("worker", workerId),
				slog.String("id", j.GetId()),
			)

			if err := j.Start(); err != nil {
				slog.Error("download failed",
					slog.String("id", j.GetId()),
					slog.Any("err", err),
				)
			}
		}
	}
}

func (m *MessageQueue) metadataWorker() {
	for {
		select {
		case <-m.ctx.Done():
			return
		case j := <-m.metadataQueue:
			if j == nil || m.fetcher == nil {
				continue
			}

			slog.Info("metadata worker started", slog.String("id", j.GetId()))
			m.fetcher(m.ctx, j)
		}
	}
}

// PublishMetadata queues a title/metadata resolution for a job.
func (m *MessageQueue) PublishMetadata(j Job) {
	select {
	case m.metadataQueue <- j:
	case <-m.ctx.Done():
	}
}

func (m *MessageQueue) Stop() {
	m.cancel()
}
