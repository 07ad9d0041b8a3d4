package usecase

import (
	"context"

	"SlipScope/internal/domain/models"
	drepo "SlipScope/internal/domain/repository"
	mid "SlipScope/internal/middleware"
)

// ObservationCollector collects observations from a market stream and
// feeds them through the realtime pipeline.
type ObservationCollector struct {
	stream  drepo.MarketStream
	proc    *ObservationProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewObservationCollector creates a new ObservationCollector instance.
func NewObservationCollector(stream drepo.MarketStream, proc *ObservationProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *ObservationCollector {
	return &ObservationCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *ObservationCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *ObservationCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	obCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, obCh, errCh)
	return nil
}

func (c *ObservationCollector) consume(ctx context.Context, obCh <-chan *models.Observation, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				c.metrics.RecordError("stream")
			}
			// the old channels are dead either way; reconnect and read fresh ones
			obCh, errCh = c.reopen(ctx)
			if obCh == nil {
				return
			}
		case o, ok := <-obCh:
			if !ok {
				obCh, errCh = c.reopen(ctx)
				if obCh == nil {
					return
				}
				continue
			}
			if o == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, o)
			} else {
				_ = c.proc.Process(ctx, o)
			}
			if o.IsTrade() {
				c.metrics.RecordLastPrice(o.Symbol, o.Price)
			}
		}
	}
}

// reopen reconnects the stream and returns fresh channels. Returns nil
// channels when the context is cancelled while retrying.
func (c *ObservationCollector) reopen(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	for {
		if err := c.stream.Reconnect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, nil
			}
			c.metrics.RecordError("reconnect")
			continue
		}
		return c.stream.Read(ctx)
	}
}

func (c *ObservationCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying ObservationProcessor for lifecycle management.
func (c *ObservationCollector) Processor() *ObservationProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *ObservationCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
