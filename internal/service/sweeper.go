package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"docvault/internal/apperr"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

const sweepBatchSize = 100

// OrphanSweeper removes documents that never received a CREATOR permission,
// for example after a crash between persisting a document and granting it.
type OrphanSweeper struct {
	docs  repository.DocumentRepository
	store storage.FileStorage
	grace time.Duration
	log   *zap.Logger
	now   func() time.Time
}

// NewOrphanSweeper returns a sweeper ignoring documents younger than grace.
func NewOrphanSweeper(docs repository.DocumentRepository, store storage.FileStorage, grace time.Duration, log *zap.Logger) *OrphanSweeper {
	return &OrphanSweeper{docs: docs, store: store, grace: grace, log: log, now: time.Now}
}

// Sweep deletes one batch of orphans, file first and then the row. A failure on
// one document is logged and the rest of the batch continues.
func (s *OrphanSweeper) Sweep(ctx context.Context) (removed int, err error) {
	ctx, span := tracer.Start(ctx, "OrphanSweeper.Sweep")
	defer func() {
		span.SetAttributes(attribute.Int("documents.removed", removed))
		finishSpan(span, err)
	}()

	orphans, err := s.docs.ListOrphans(ctx, s.now().Add(-s.grace), sweepBatchSize)
	if err != nil {
		return 0, apperr.Persistence(err)
	}
	for _, d := range orphans {
		if err := s.store.Delete(ctx, d.FilePath); err != nil {
			s.log.Warn("orphan file not removed", zap.String("document_id", d.ID), zap.Error(err))
			continue
		}
		if _, err := s.docs.Delete(ctx, d.ID); err != nil {
			s.log.Warn("orphan row not removed", zap.String("document_id", d.ID), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("orphan documents removed", zap.Int("count", removed))
	}
	return removed, nil
}

// Schedule registers Sweep on c using a cron spec such as "@every 10m".
func (s *OrphanSweeper) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.log.Error("orphan sweep failed", zap.Error(err))
		}
	})
}
