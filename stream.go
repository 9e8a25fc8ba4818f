package simview

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/sirupsen/logrus"
)

// ErrStreamUnsupported is returned by Stream.Run when the server has no
// event stream. Retrying cannot succeed, so Run gives up.
var ErrStreamUnsupported = errors.New("simview: event stream unsupported by server")

// DefaultStreamBuffer is the number of decoded snapshots that may wait for
// the render goroutine before the oldest is dropped.
const DefaultStreamBuffer = 4

// Stream follows GET /events and publishes every snapshot it carries.
// Connection faults are logged and retried after a fixed delay, forever.
type Stream struct {
	url    string
	client *http.Client
	delay  time.Duration
	out    chan *Snapshot
	log    logrus.FieldLogger

	connects atomic.Int64
	received atomic.Int64
	dropped  atomic.Int64
}

// NewStream creates a stream for the server at base. The HTTP client must not
// carry a request timeout; a nil client uses a fresh one.
func NewStream(base string, httpClient *http.Client, delay time.Duration, log logrus.FieldLogger) *Stream {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	if log == nil {
		log = discardLogger()
	}
	url := strings.TrimRight(base, "/") + "/events"
	return &Stream{
		url:    url,
		client: httpClient,
		delay:  delay,
		out:    make(chan *Snapshot, DefaultStreamBuffer),
		log:    log.WithField("url", url),
	}
}

// Snapshots returns the channel snapshots are published on.
func (s *Stream) Snapshots() <-chan *Snapshot {
	return s.out
}

// Connects, Received and Dropped report stream counters.
func (s *Stream) Connects() int64 { return s.connects.Load() }
func (s *Stream) Received() int64 { return s.received.Load() }
func (s *Stream) Dropped() int64  { return s.dropped.Load() }

// Run connects and reads until ctx is done. It returns ctx.Err() on
// cancellation and ErrStreamUnsupported when the server has no stream.
func (s *Stream) Run(ctx context.Context) error {
	for {
		err := s.session(ctx)
		if errors.Is(err, ErrStreamUnsupported) {
			s.log.WithError(err).Error("event stream disabled")
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		entry := s.log.WithField("retry_in", s.delay)
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Warn("event stream closed, reconnecting")

		t := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// session runs one connection until it ends.
func (s *Stream) session(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("simview: create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("simview: connect event stream: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return fmt.Errorf("%w: status %s", ErrStreamUnsupported, resp.Status)
	default:
		return fmt.Errorf("simview: event stream: server responded with status %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return fmt.Errorf("%w: content type %q", ErrStreamUnsupported, ct)
	}

	s.connects.Add(1)
	s.log.Info("event stream connected")
	return readEvents(resp.Body, s.handle)
}

func (s *Stream) handle(ev sse.Event) {
	if ev.Event != "message" {
		return
	}
	data, _ := ev.Data.(string)
	snap, err := DecodeSnapshot([]byte(data))
	if err != nil {
		s.log.WithError(err).WithField("bytes", len(data)).Warn("discarding malformed event")
		return
	}
	s.received.Add(1)
	s.Publish(snap)
}

// Publish hands snap to the consumer, dropping the oldest pending snapshot
// when the buffer is full. It never blocks.
func (s *Stream) Publish(snap *Snapshot) {
	for {
		select {
		case s.out <- snap:
			return
		default:
		}
		select {
		case <-s.out:
			s.dropped.Add(1)
		default:
		}
	}
}

// readEvents splits r into blank-line terminated event blocks and decodes
// each one. An unterminated block at EOF is discarded. It returns nil on a
// clean EOF.
func readEvents(r io.Reader, fn func(sse.Event)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxSnapshotBytes)

	var block bytes.Buffer
	for sc.Scan() {
		line := bytes.TrimSuffix(sc.Bytes(), []byte{'\r'})
		if len(line) > 0 {
			block.Write(line)
			block.WriteByte('\n')
			continue
		}
		if block.Len() == 0 {
			continue
		}
		events, err := sse.Decode(&block)
		if err != nil {
			return fmt.Errorf("simview: decode event: %w", err)
		}
		for _, ev := range events {
			fn(ev)
		}
		block.Reset()
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("simview: read event stream: %w", err)
	}
	return nil
}
