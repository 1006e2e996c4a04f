package sample

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Batch groups samples collected over one flush interval, so that one
// request is sent per push rather than one per sample. It holds only
// the samples; it carries no metadata tag.
type Batch struct {
	Samples []BpfSample
}

// Client pushes batches of encoded samples to a collector endpoint
// over HTTP, accumulating samples locally and flushing either when
// the batch grows past MaxBatchSize or FlushInterval elapses.
type Client struct {
	endpoint      string
	http          *http.Client
	log           logrus.FieldLogger
	maxBatchSize  int
	flushInterval time.Duration

	pending chan BpfSample
	done    chan struct{}
}

// NewClient creates a Client posting to endpoint through its own
// http.Client with a 10s timeout. A maxBatchSize <= 0 becomes 256 and
// a flushInterval <= 0 becomes one second.
func NewClient(endpoint string, maxBatchSize int, flushInterval time.Duration, log logrus.FieldLogger) *Client {
	if maxBatchSize <= 0 {
		maxBatchSize = 256
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Client{
		endpoint:      endpoint,
		http:          &http.Client{Timeout: 10 * time.Second},
		log:           log,
		maxBatchSize:  maxBatchSize,
		flushInterval: flushInterval,
		pending:       make(chan BpfSample, maxBatchSize*4),
		done:          make(chan struct{}),
	}
}

// Enqueue adds s to the pending batch. It never blocks the caller
// more than filling the channel buffer requires; a full buffer drops
// the sample and logs a warning rather than stalling the sampler.
func (c *Client) Enqueue(s BpfSample) {
	select {
	case c.pending <- s:
	default:
		if c.log != nil {
			c.log.Warn("sample client backlog full, dropping sample")
		}
	}
}

// Run drains the pending channel, flushing batches on size or time,
// until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]BpfSample, 0, c.maxBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.push(ctx, batch); err != nil && c.log != nil {
			c.log.WithError(err).Warn("failed to push stack sample batch")
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(c.done)
			return ctx.Err()
		case <-ticker.C:
			flush()
		case s := <-c.pending:
			batch = append(batch, s)
			if len(batch) >= c.maxBatchSize {
				flush()
			}
		}
	}
}

func (c *Client) push(ctx context.Context, batch []BpfSample) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(batch))); err != nil {
		return err
	}
	for _, s := range batch {
		if err := Encode(&buf, s); err != nil {
			return fmt.Errorf("sample: encoding batch: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sample: collector returned status %s", resp.Status)
	}
	return nil
}

// DecodeBatch reads a batch previously produced by Client.push's wire
// format: a uint32 count followed by that many fixed-width records.
func DecodeBatch(b []byte) ([]BpfSample, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("sample: batch too short")
	}
	count := binary.LittleEndian.Uint32(b[:4])
	r := bytes.NewReader(b[4:])
	out := make([]BpfSample, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := Decode(r)
		if err != nil {
			return nil, fmt.Errorf("sample: decoding batch entry %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
