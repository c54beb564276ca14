package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"digitpulse/internal/domain/models"
	domrepo "digitpulse/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, t *models.TickSample) error
}

// BatchProc is implemented by processors that can flush many buffered
// ticks in one call.
type BatchProc interface {
	ProcessBatch(ctx context.Context, ticks []*models.TickSample) error
}

const flushBatchMax = 256

// TickPipeline sits between the market stream and the tick consumers.
// It validates, throttles per symbol, and buffers when downstream is
// unavailable so a slow archive never stalls the live window.
type TickPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.TickSample
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
}

type PipelineOption func(*TickPipeline)

// WithMaxRPS sets the max ticks per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewTickPipeline creates a new pipeline.
func NewTickPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // volatility indices tick at 1-2Hz, leave headroom
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.TickSample, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.TickSample, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered ticks.
func (p *TickPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case t := <-p.bufCh:
				if t == nil {
					continue
				}
				batch := p.drain(t)
				if err := p.flush(ctx, batch); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					p.requeue(batch)
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// drain collects the first tick plus whatever else is already buffered,
// up to flushBatchMax.
func (p *TickPipeline) drain(first *models.TickSample) []*models.TickSample {
	batch := []*models.TickSample{first}
	for len(batch) < flushBatchMax {
		select {
		case t := <-p.bufCh:
			if t != nil {
				batch = append(batch, t)
			}
		default:
			return batch
		}
	}
	return batch
}

func (p *TickPipeline) flush(ctx context.Context, batch []*models.TickSample) error {
	if bp, ok := p.proc.(BatchProc); ok {
		return bp.ProcessBatch(ctx, batch)
	}
	for _, t := range batch {
		if err := p.proc.Process(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// requeue puts a failed batch back if space allows; drops the rest.
func (p *TickPipeline) requeue(batch []*models.TickSample) {
	for _, t := range batch {
		select {
		case p.bufCh <- t:
		default:
			p.metrics.RecordError("pipeline_buffer_drop")
		}
	}
}

// Stop stops the background flushing.
func (p *TickPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards the tick downstream, buffering
// on errors.
func (p *TickPipeline) Process(ctx context.Context, t *models.TickSample) error {
	start := time.Now()
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(t.Symbol, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- t:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateTick(t *models.TickSample) error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Epoch <= 0 {
		return fmt.Errorf("epoch invalid")
	}
	if t.Price <= 0 {
		return fmt.Errorf("price not positive")
	}
	if t.LastDigit < 0 || t.LastDigit > 9 {
		return fmt.Errorf("last digit out of range")
	}
	return nil
}

func (p *TickPipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if last.IsZero() {
		p.lastSeen[symbol] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
