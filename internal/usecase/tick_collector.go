package usecase

import (
	"context"
	"time"

	"digitpulse/internal/domain/models"
	drepo "digitpulse/internal/domain/repository"
	mid "digitpulse/internal/middleware"
)

// TickCollector consumes the market stream and feeds ticks through the
// pipeline into the live window.
type TickCollector struct {
	stream  drepo.MarketStream
	proc    *TickProcessor
	metrics drepo.Metrics
	pipe    *mid.TickPipeline

	reconnectBackoff time.Duration
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream drepo.MarketStream, proc *TickProcessor, metrics drepo.Metrics, pipe *mid.TickPipeline) *TickCollector {
	return &TickCollector{
		stream:           stream,
		proc:             proc,
		metrics:          metrics,
		pipe:             pipe,
		reconnectBackoff: 2 * time.Second,
	}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tkCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tkCh, errCh)
	return nil
}

// consume drains the stream channels. The stream's read loop closes both
// channels when it exits, so closure is the reconnect trigger; errors on the
// open channel are recorded and the closure that follows does the rest.
func (c *TickCollector) consume(ctx context.Context, tkCh <-chan *models.TickSample, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				if tkCh, errCh = c.reattach(ctx); tkCh == nil {
					return
				}
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
			}
		case t, ok := <-tkCh:
			if !ok {
				if tkCh, errCh = c.reattach(ctx); tkCh == nil {
					return
				}
				continue
			}
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.proc.Process(ctx, t)
			}
		}
	}
}

// reattach reconnects with backoff until the stream is live again. It returns
// nil channels only when the context is cancelled.
func (c *TickCollector) reattach(ctx context.Context) (<-chan *models.TickSample, <-chan error) {
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			select {
			case <-ctx.Done():
				return nil, nil
			case <-time.After(c.reconnectBackoff):
			}
			continue
		}
		return c.stream.Read(ctx)
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	c.proc.Close()
	return c.stream.Close()
}
