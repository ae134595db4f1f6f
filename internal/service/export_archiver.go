package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusgrid/timetable-api/pkg/jobs"
)

type exportWriter interface {
	Save(filename string, data []byte) (string, error)
}

type exportJanitor interface {
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

const exportRetention = 30 * 24 * time.Hour

// ExportArchiver keeps a copy of every rendered export on disk, writing off
// the request path through a small worker queue.
type ExportArchiver struct {
	store  exportWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

type archivePayload struct {
	FileName string
	Content  []byte
}

// NewExportArchiver constructs an archiver backed by the given writer.
func NewExportArchiver(store exportWriter, logger *zap.Logger) *ExportArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &ExportArchiver{store: store, logger: logger}
	a.queue = jobs.NewQueue("export-archive", a.handle, jobs.QueueConfig{
		Workers: 1,
		Logger:  logger,
	})
	return a
}

// Start begins background archiving. When the store supports it, a daily
// sweep drops archived files older than the retention window.
func (a *ExportArchiver) Start(ctx context.Context) {
	a.queue.Start(ctx)
	if janitor, ok := a.store.(exportJanitor); ok {
		go a.sweep(ctx, janitor)
	}
}

func (a *ExportArchiver) sweep(ctx context.Context, janitor exportJanitor) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := janitor.CleanupOlderThan(exportRetention)
			if err != nil {
				a.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				a.logger.Info("stale exports removed", zap.Int("count", len(deleted)))
			}
		}
	}
}

// Stop drains the queue workers.
func (a *ExportArchiver) Stop() {
	a.queue.Stop()
}

// Archive enqueues one rendered file. Failures are logged, never surfaced:
// the client already holds the rendered bytes.
func (a *ExportArchiver) Archive(fileName string, content []byte) {
	err := a.queue.Enqueue(jobs.Job{
		ID:      fileName,
		Type:    "export-archive",
		Payload: archivePayload{FileName: fileName, Content: content},
	})
	if err != nil {
		a.logger.Warn("export archive enqueue failed", zap.String("file", fileName), zap.Error(err))
	}
}

func (a *ExportArchiver) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(archivePayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	path, err := a.store.Save(payload.FileName, payload.Content)
	if err != nil {
		return err
	}
	a.logger.Info("export archived", zap.String("file", path), zap.Int("bytes", len(payload.Content)))
	return nil
}
