package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"sharify/internal/models"
)

// DefaultSearchDebounce is how long the query must stay unchanged before a
// search is sent.
const DefaultSearchDebounce = 300 * time.Millisecond

// SearchResult is delivered to subscribers for each settled query.
type SearchResult struct {
	Query string
	Posts []models.Post
	Err   error
}

// Searcher debounces query edits. Only the last query typed within the
// quiet period is sent, and results of superseded queries are dropped.
type Searcher struct {
	store    *Store
	debounce time.Duration

	mu        sync.Mutex
	seq       uint64
	timer     *time.Timer
	pending   string
	committed string
	cancel    context.CancelFunc
	listeners []func(SearchResult)
	closed    bool

	// pendingRuns counts scheduled and running searches.
	pendingRuns sync.WaitGroup
}

func (s *Store) NewSearcher(debounce time.Duration) *Searcher {
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	return &Searcher{store: s, debounce: debounce}
}

// Subscribe registers fn for every settled query.
func (s *Searcher) Subscribe(fn func(SearchResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// stopTimerLocked cancels a scheduled search that has not started.
func (s *Searcher) stopTimerLocked() {
	if s.timer != nil && s.timer.Stop() {
		s.pendingRuns.Done()
	}
	s.timer = nil
}

// SetQuery records an edit. A blank query cancels any pending search and
// reports an empty result immediately.
func (s *Searcher) SetQuery(q string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	s.stopTimerLocked()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if strings.TrimSpace(q) == "" {
		s.committed = ""
		listeners := append([]func(SearchResult){}, s.listeners...)
		s.mu.Unlock()
		for _, fn := range listeners {
			fn(SearchResult{Query: q})
		}
		return
	}

	s.pending = q
	s.pendingRuns.Add(1)
	s.timer = time.AfterFunc(s.debounce, func() { s.run(seq, q) })
	s.mu.Unlock()
}

func (s *Searcher) run(seq uint64, q string) {
	defer s.pendingRuns.Done()

	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.committed = q
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	posts, err := s.store.Search(ctx, q)
	cancel()

	s.mu.Lock()
	if seq != s.seq || errors.Is(err, context.Canceled) {
		s.mu.Unlock()
		return
	}
	listeners := append([]func(SearchResult){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(SearchResult{Query: q, Posts: posts, Err: err})
	}
}

// HasQuery reports whether the settled query is non-blank. When it is
// false callers show the full post list instead of search results.
func (s *Searcher) HasQuery() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(s.committed) != ""
}

// Flush runs a scheduled search now instead of waiting out the quiet
// period, and returns once every search has delivered its result.
func (s *Searcher) Flush() {
	s.mu.Lock()
	if !s.closed && s.timer != nil && s.timer.Stop() {
		s.timer = nil
		seq, q := s.seq, s.pending
		s.mu.Unlock()
		s.run(seq, q)
	} else {
		s.mu.Unlock()
	}
	s.pendingRuns.Wait()
}

// Close stops pending timers and waits for a running search to return.
func (s *Searcher) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.pendingRuns.Wait()
}
