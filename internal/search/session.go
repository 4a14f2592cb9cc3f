package search

import (
	"context"
	"sync"
	"time"
)

const DefaultDebounce = 220 * time.Millisecond

// Fetcher runs one remote query. It must honor ctx cancellation.
type Fetcher[T any] func(ctx context.Context, term string) ([]T, error)

// Result of one fired query. Seq grows with every input.
type Result[T any] struct {
	Seq   uint64 `json:"seq"`
	Term  string `json:"term"`
	Items []T    `json:"items"`
	Err   error  `json:"-"`
}

// Session coalesces keystrokes into debounced queries. Every input gets a
// generation number; starting a newer query cancels the one in flight and a
// result is delivered only if its generation is still the latest, so an old
// response can never replace a newer one.
type Session[T any] struct {
	parent context.Context
	delay  time.Duration
	fetch  Fetcher[T]

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
	out    chan Result[T]
}

func NewSession[T any](ctx context.Context, delay time.Duration, fetch Fetcher[T]) *Session[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Session[T]{
		parent: ctx,
		delay:  delay,
		fetch:  fetch,
		out:    make(chan Result[T], 1),
	}
}

// Results only ever holds the latest undelivered result.
func (s *Session[T]) Results() <-chan Result[T] {
	return s.out
}

// Input registers a keystroke. Empty input clears the suggestions at once
// without a remote call.
func (s *Session[T]) Input(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.gen++
	gen := s.gen
	s.stopLocked()

	term, ok := Term(raw)
	if !ok {
		s.deliverLocked(Result[T]{Seq: gen, Items: []T{}})
		return
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen, term) })
}

func (s *Session[T]) fire(gen uint64, term string) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.mu.Unlock()

	items, err := s.fetch(ctx, term)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	if items == nil {
		items = []T{}
	}
	s.deliverLocked(Result[T]{Seq: gen, Term: term, Items: items, Err: err})
}

// Close stops pending work and closes the results channel.
func (s *Session[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopLocked()
	close(s.out)
}

func (s *Session[T]) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session[T]) deliverLocked(r Result[T]) {
	select {
	case <-s.out:
	default:
	}
	s.out <- r
}
