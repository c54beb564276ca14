package usecase

import (
	"context"
	"fmt"
	"time"

	"digitpulse/internal/domain/models"
	drepo "digitpulse/internal/domain/repository"
	"digitpulse/internal/service/tickstore"
)

// TickProcessor fans one validated tick out to the live window and,
// when configured, the archive.
type TickProcessor struct {
	store   *tickstore.Store
	archive drepo.TickArchive
	metrics drepo.Metrics
}

// NewTickProcessor creates a new TickProcessor instance. archive may be nil
// when no history backend is configured.
func NewTickProcessor(store *tickstore.Store, archive drepo.TickArchive, metrics drepo.Metrics) *TickProcessor {
	return &TickProcessor{store: store, archive: archive, metrics: metrics}
}

// Process routes a single tick. The live window update never fails; archive
// errors propagate so the pipeline can buffer and retry.
func (p *TickProcessor) Process(ctx context.Context, t *models.TickSample) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}

	start := time.Now()
	p.store.Append(*t)
	p.metrics.RecordTick(t.Symbol, t.Price)

	if p.archive != nil {
		if err := p.archive.Store(ctx, t); err != nil {
			p.metrics.RecordError("archive")
			return fmt.Errorf("archive tick: %w", err)
		}
	}

	p.metrics.RecordLatency("tick_process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch flushes previously buffered ticks to the archive. The live
// window was already updated when the ticks first came through Process, so
// only the archive write is retried here.
func (p *TickProcessor) ProcessBatch(ctx context.Context, ticks []*models.TickSample) error {
	if p.archive == nil || len(ticks) == 0 {
		return nil
	}
	if err := p.archive.StoreBatch(ctx, ticks); err != nil {
		p.metrics.RecordError("archive_batch")
		return fmt.Errorf("archive batch: %w", err)
	}
	return nil
}

// Close closes the archive if present.
func (p *TickProcessor) Close() {
	if p.archive != nil {
		_ = p.archive.Close()
	}
}
