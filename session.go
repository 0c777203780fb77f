package catalogsearch

import (
	"context"
	"sync"
	"time"

	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/google/uuid"
)

// User-facing status messages.
const (
	MessageNoResults    = "Sorry, no locations match your search query."
	MessageSearchFailed = "An error occurred while searching. Please check your internet connection or try again later."
)

// Result is one match.
type Result struct {
	// ID is the id of the matched node.
	ID string
	// Name is the display name: the resolved target's name, or the id.
	Name string
	// Node is the matched node as registered in the catalog, which for a
	// reference is the reference itself, not its target. It is nil for
	// fast-path hits the catalog does not hold.
	Node *catalog.Node
}

func resultOf(n *catalog.Node) Result {
	return Result{ID: n.ID(), Name: n.DisplayName(), Node: n}
}

// Session is the state of one search. All methods are safe for concurrent use.
type Session struct {
	id      string
	query   string
	mode    Mode
	started time.Time
	done    chan struct{}

	mu        sync.Mutex
	results   []Result
	message   string
	err       error
	canceled  bool
	searching bool
	complete  bool
}

func newSession(query string, mode Mode) *Session {
	return &Session{
		id:        uuid.NewString(),
		query:     query,
		mode:      mode.normalize(),
		started:   time.Now(),
		done:      make(chan struct{}),
		searching: true,
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Query returns the query text as given.
func (s *Session) Query() string { return s.query }

// Mode returns the effective search mode.
func (s *Session) Mode() Mode { return s.mode }

// Started returns when the session was created.
func (s *Session) Started() time.Time { return s.started }

// Results returns a copy of the results found so far, in discovery order.
func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

// Len returns the number of results found so far.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Message returns the status message, or "" if none is set.
func (s *Session) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Err returns the error that failed the search, once complete.
// Superseded sessions never report an error.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// IsCanceled reports whether the session was superseded or canceled.
func (s *Session) IsCanceled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

// IsSearching reports whether the search is still running.
func (s *Session) IsSearching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searching
}

// IsComplete reports whether the search has finished, successfully or not.
// A canceled session completes without a message.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

// Done is closed when the session completes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session completes or ctx is done, and returns the
// session's error.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel marks the session canceled. From then on its results and message no
// longer change. Work in flight is not interrupted.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.canceled = true
	s.mu.Unlock()
}

// add appends a match unless the session was canceled.
func (s *Session) add(r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled || s.complete {
		return false
	}
	s.results = append(s.results, r)
	return true
}

// assign replaces the results unless the session was canceled.
func (s *Session) assign(results []Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled || s.complete {
		return false
	}
	s.results = results
	return true
}

// finish completes the session. A canceled session keeps its message and
// error unset; otherwise a failure sets MessageSearchFailed and an empty
// result set MessageNoResults. It reports whether the outcome was kept.
func (s *Session) finish(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete {
		return false
	}

	s.searching = false
	s.complete = true
	defer close(s.done)

	if s.canceled {
		return false
	}

	switch {
	case err != nil:
		s.err = err
		s.message = MessageSearchFailed
	case len(s.results) == 0:
		s.message = MessageNoResults
	}
	return true
}

// finishEmpty completes a blank-query session: no results and no message.
func (s *Session) finishEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searching = false
	s.complete = true
	close(s.done)
}
