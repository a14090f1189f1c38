// Package diagnostics remembers the most recent failed call per upstream endpoint.
package diagnostics

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Failure struct {
	Endpoint      string    `json:"endpoint"`
	Operation     string    `json:"operation"`
	Provider      string    `json:"provider"`
	Outcome       string    `json:"outcome"`
	ExceptionCode string    `json:"exception_code,omitempty"`
	Message       string    `json:"message"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
	At            time.Time `json:"at"`
	Count         uint64    `json:"count"`
}

// Recorder is bounded by the number of distinct endpoints it tracks.
type Recorder struct {
	mu    sync.Mutex
	cache *lru.Cache[string, Failure]
	now   func() time.Time
}

func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = 256
	}
	c, _ := lru.New[string, Failure](size)
	return &Recorder{cache: c, now: time.Now}
}

// Record replaces the endpoint's last failure and bumps its count.
func (r *Recorder) Record(f Failure) {
	if f.At.IsZero() {
		f.At = r.now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.cache.Peek(f.Endpoint); ok {
		f.Count = prev.Count
	}
	f.Count++
	r.cache.Add(f.Endpoint, f)
}

func (r *Recorder) Get(endpoint string) (Failure, bool) {
	return r.cache.Get(endpoint)
}

// Recent returns all tracked failures, newest first.
func (r *Recorder) Recent() []Failure {
	keys := r.cache.Keys()
	out := make([]Failure, 0, len(keys))
	for _, k := range keys {
		if f, ok := r.cache.Peek(k); ok {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}

func (r *Recorder) Len() int { return r.cache.Len() }
