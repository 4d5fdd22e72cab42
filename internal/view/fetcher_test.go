package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pfrederiksen/bts-board/internal/source"
)

// stubFetcher serves canned bodies or errors keyed by URL substring.
// Entries with a gate block until the gate is closed.
type stubFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	gates   map[string]chan struct{}
	started map[string]chan struct{}
	calls   []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		bodies:  make(map[string]string),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		started: make(map[string]chan struct{}),
	}
}

func (s *stubFetcher) body(match, body string) *stubFetcher {
	s.bodies[match] = body
	return s
}

func (s *stubFetcher) fail(match string, err error) *stubFetcher {
	s.errs[match] = err
	return s
}

// hold makes fetches matching match wait for release. The returned channel
// is closed once such a fetch has started.
func (s *stubFetcher) hold(match string) (started <-chan struct{}, release func()) {
	gate := make(chan struct{})
	st := make(chan struct{})
	s.gates[match] = gate
	s.started[match] = st
	var once sync.Once
	return st, func() { once.Do(func() { close(gate) }) }
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*source.Document, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	var gate chan struct{}
	for match, g := range s.gates {
		if strings.Contains(url, match) {
			gate = g
			if st := s.started[match]; st != nil {
				close(st)
				delete(s.started, match)
			}
		}
	}
	s.mu.Unlock()

	// A held fetch ignores cancellation to model a response that was
	// already on the wire when the newer selection arrived.
	if gate != nil {
		<-gate
	}

	for match, err := range s.errs {
		if strings.Contains(url, match) {
			return nil, err
		}
	}
	for match, body := range s.bodies {
		if strings.Contains(url, match) {
			return &source.Document{
				URL:       url,
				Body:      body,
				Size:      int64(len(body)),
				FetchedAt: time.Date(2019, 8, 15, 12, 0, 0, 0, time.UTC),
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", source.ErrNotFound, url)
}

var errNetwork = errors.New("dial tcp: connection refused")
