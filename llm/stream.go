// Lazy fragment streams.
//
// Information Hiding:
// - The producer goroutine and its channel are private to the Stream
// - Cancellation, timeout and error normalization happen in one place
// - Consumers see a forward-only cursor: Next / Current / Err / Close

package llm

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// EmitFunc hands one text fragment to the consumer. It blocks until the
// consumer pulls the fragment and fails once the stream is cancelled.
type EmitFunc func(fragment string) error

// ProduceFunc drives a backing service and emits fragments in arrival order.
// It must return when ctx is done.
type ProduceFunc func(ctx context.Context, emit EmitFunc) error

// Stream is a single-consumer, forward-only sequence of response fragments.
//
// Usage:
//
//	stream, err := provider.StreamChat(ctx, messages, params)
//	if err != nil { ... }
//	defer stream.Close()
//	for stream.Next() {
//	    fmt.Print(stream.Current())
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream struct {
	provider ProviderType
	frags    chan string
	done     chan struct{}
	cancel   context.CancelFunc

	finalErr error // set by the producer before done is closed

	current  string
	err      error
	finished bool

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewStream starts produce in its own goroutine and returns the consumer side.
// Provider implementations outside this package use it to expose their own
// streaming APIs.
func NewStream(ctx context.Context, provider ProviderType, produce ProduceFunc) *Stream {
	return newStream(ctx, provider, 0, "stream", nil, produce)
}

func newStream(parent context.Context, provider ProviderType, timeout time.Duration, op string, status statusFunc, produce ProduceFunc) *Stream {
	ctx, cancel := context.WithCancel(parent)
	callCtx, callCancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, callCancel = context.WithTimeout(ctx, timeout)
	}

	s := &Stream{
		provider: provider,
		frags:    make(chan string),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	go func() {
		defer close(s.done)
		defer close(s.frags)
		defer callCancel()

		err := produce(callCtx, func(fragment string) error {
			if fragment == "" {
				return nil
			}
			select {
			case s.frags <- fragment:
				return nil
			case <-callCtx.Done():
				return callCtx.Err()
			}
		})
		s.finalErr = normalizeError(callCtx, provider, op, err, status)
	}()

	return s
}

// Provider returns the provider producing this stream.
func (s *Stream) Provider() ProviderType {
	return s.provider
}

// Next advances to the next fragment. It returns false when the stream has
// ended, failed, or been closed.
func (s *Stream) Next() bool {
	if s.finished {
		return false
	}
	frag, ok := <-s.frags
	if !ok {
		s.finished = true
		if !s.closed.Load() {
			s.err = s.finalErr
		}
		s.cancel()
		return false
	}
	s.current = frag
	return true
}

// Current returns the fragment produced by the last successful Next.
func (s *Stream) Current() string {
	return s.current
}

// Err returns the failure that ended the stream, or nil for a normal end
// or a consumer-initiated Close.
func (s *Stream) Err() error {
	return s.err
}

// Close stops the producer without draining the remaining fragments and
// waits for the underlying connection to be released. Safe to call twice.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		<-s.done
	})
	return nil
}

// Collect drains the stream and returns the concatenated fragments.
func Collect(s *Stream) (string, error) {
	defer s.Close()

	var b strings.Builder
	for s.Next() {
		b.WriteString(s.Current())
	}
	return b.String(), s.Err()
}
