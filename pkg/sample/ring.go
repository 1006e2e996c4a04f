package sample

import (
	"context"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/perf"
	"github.com/sirupsen/logrus"

	"github.com/0b01/tail2-go/pkg/metrics"
)

// RingConsumer drains the STACKS perf event array of fixed-width
// BpfSample records (one ring per CPU, multiplexed by perf.Reader) and
// hands each decoded sample to a callback, counting every outcome in a
// shared Counters so failures are visible without interrupting the
// stream.
type RingConsumer struct {
	reader *perf.Reader
	counts *metrics.Counters
	log    logrus.FieldLogger
}

// NewRingConsumer opens a perf event reader over m, which must have
// been created with type ebpf.PerfEventArray (bpfobjs.MapStacks).
func NewRingConsumer(m *ebpf.Map, counts *metrics.Counters, log logrus.FieldLogger) (*RingConsumer, error) {
	r, err := perf.NewReader(m, int(bpfSampleWireSize)*64)
	if err != nil {
		return nil, fmt.Errorf("sample: opening perf event reader: %w", err)
	}
	return &RingConsumer{reader: r, counts: counts, log: log}, nil
}

// Close stops the consumer and releases the underlying perf reader.
func (c *RingConsumer) Close() error {
	return c.reader.Close()
}

// Run reads records until ctx is cancelled or the perf reader is
// closed, invoking handle for every successfully decoded sample.
// Decode failures and kernel-side overflow drops are logged and
// counted but never stop the loop.
func (c *RingConsumer) Run(ctx context.Context, handle func(BpfSample)) error {
	go func() {
		<-ctx.Done()
		c.reader.Close()
	}()

	for {
		rec, err := c.reader.Read()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("sample: reading perf event array: %w", err)
		}

		if rec.LostSamples > 0 {
			c.counts.Add(metrics.ErrSampleCantAlloc, rec.LostSamples)
			if c.log != nil {
				c.log.WithField("lost", rec.LostSamples).Warn("kernel dropped samples before they reached userspace")
			}
			continue
		}

		s, err := DecodeBytes(rec.RawSample)
		if err != nil {
			c.counts.Inc(metrics.ErrSampleCantAlloc)
			if c.log != nil {
				c.log.WithError(err).Warn("dropping malformed stack sample")
			}
			continue
		}

		c.counts.Inc(metrics.SentStackCount)
		handle(s)
	}
}
