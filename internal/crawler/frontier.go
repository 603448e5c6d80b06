package crawler

import (
	"container/list"
	"sync"
)

// frontier is the shared work queue: a FIFO of canonical URLs with
// visited/queued sets for duplicate suppression.
type frontier struct {
	mu      sync.Mutex
	queue   *list.List
	visited map[string]struct{}
	queued  map[string]struct{}
}

func newFrontier() *frontier {
	return &frontier{
		queue:   list.New(),
		visited: make(map[string]struct{}),
		queued:  make(map[string]struct{}),
	}
}

// Push adds a canonical URL unless it is already queued or visited.
func (f *frontier) Push(canonicalURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.visited[canonicalURL]; exists {
		return false
	}
	if _, exists := f.queued[canonicalURL]; exists {
		return false
	}

	f.queue.PushBack(canonicalURL)
	f.queued[canonicalURL] = struct{}{}
	return true
}

// Pop removes and returns the next URL, marking it visited.
func (f *frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	elem := f.queue.Front()
	if elem == nil {
		return "", false
	}
	canonicalURL := f.queue.Remove(elem).(string)
	delete(f.queued, canonicalURL)
	f.visited[canonicalURL] = struct{}{}
	return canonicalURL, true
}

// IsEmpty returns true if no URLs are queued.
func (f *frontier) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len() == 0
}

// VisitedCount returns the number of URLs taken from the queue so far.
func (f *frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
