package collector

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nhdewitt/proctop/internal/protocol"
)

type CollectFunc func(context.Context) ([]protocol.Metric, error)

// Collector runs a CollectFunc on a ticker and forwards each metric,
// wrapped in an Envelope, to out.
type Collector struct {
	hostname string
	out      chan<- protocol.Envelope
	logger   *log.Logger
}

func New(hostname string, out chan<- protocol.Envelope) *Collector {
	return &Collector{
		hostname: hostname,
		out:      out,
		logger:   log.Default(),
	}
}

// WithLogger sets the logger used for recovered panics and failed ticks.
func (c *Collector) WithLogger(l *log.Logger) *Collector {
	if l != nil {
		c.logger = l
	}
	return c
}

// Wrap creates an envelope from any metric. All metrics of one tick
// share tickID.
func (c *Collector) Wrap(tickID string, m protocol.Metric) protocol.Envelope {
	return protocol.Envelope{
		ID:        tickID,
		Type:      m.MetricType(),
		Timestamp: time.Now(),
		Hostname:  c.hostname,
		Data:      m,
	}
}

// send handles channel send with context cancellation
func (c *Collector) send(ctx context.Context, env protocol.Envelope) {
	select {
	case c.out <- env:
	case <-ctx.Done():
	}
}

// Run executes a collection function at the specified interval
func (c *Collector) Run(ctx context.Context, interval time.Duration, collect CollectFunc) {
	collectAndSend := func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Printf("Panic recovered in collector: %v", r)
			}
		}()

		data, err := collect(ctx)
		if err != nil {
			c.logger.Printf("collection failed: %v", err)
			return
		}

		tickID := uuid.NewString()
		for _, m := range data {
			if m == nil {
				continue
			}
			c.send(ctx, c.Wrap(tickID, m))
		}
	}

	// Collect Baseline
	collectAndSend()

	// Start ticker
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collectAndSend()
		}
	}
}
