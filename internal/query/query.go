// Package query is the portal's client-side cache.
//
// Reads are keyed. Concurrent readers of one key share a single in-flight
// call, and a resolved value is served from memory until the key is
// invalidated. A failed read keeps whatever data was cached before and marks
// the entry as errored, so callers can fall back to stale data.
//
// Writes go through Mutation, which runs a function once and fires
// OnSuccess/OnError followed by OnSettled. Mutations never touch the read
// cache; callers invalidate the keys they affect.
package query

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies one cached read, e.g. Key{"students"}.
type Key []string

// String path-escapes each part and joins them with "/", so distinct keys
// never collide.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// StudentsKey is the key of the full student collection.
var StudentsKey = Key{"students"}

// State is a snapshot of one key.
type State[T any] struct {
	Data      T
	HasData   bool
	IsLoading bool
	IsError   bool
	Err       error
	UpdatedAt time.Time
}

// Client holds every cached read. The zero value is not usable; call NewClient.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	log     *slog.Logger
	now     func() time.Time
}

type entry struct {
	data      any
	hasData   bool
	err       error
	stale     bool
	inflight  int
	gen       uint64 // bumped by Invalidate
	dataGen   uint64 // gen the cached data was fetched under
	updatedAt time.Time
}

// NewClient creates an empty cache. A nil logger discards output.
func NewClient(log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		entries: make(map[string]*entry),
		log:     log,
		now:     time.Now,
	}
}

// entryLocked returns the entry for id, creating it. c.mu must be held.
func (c *Client) entryLocked(id string) *entry {
	e, ok := c.entries[id]
	if !ok {
		e = &entry{stale: true}
		c.entries[id] = e
	}
	return e
}

// Invalidate marks key as stale. The next Fetch calls the backend again,
// even if a call for key is in flight right now.
func (c *Client) Invalidate(key Key) {
	id := key.String()

	c.mu.Lock()
	e := c.entryLocked(id)
	e.stale = true
	e.gen++
	c.mu.Unlock()

	c.group.Forget(id)
	c.log.Debug("query invalidated", slog.String("key", id))
}

// Fetch returns the cached value for key, calling fn when there is none or
// it was invalidated. Callers waiting on the same key share one call to fn.
//
// Once started, fn runs to completion even if ctx is cancelled; the caller
// just stops waiting and receives a loading snapshot.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) State[T] {
	id := key.String()

	c.mu.Lock()
	e := c.entryLocked(id)
	if e.hasData && !e.stale {
		st := snapshot[T](e)
		c.mu.Unlock()
		return st
	}
	c.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		gen := c.begin(id)
		v, err := fn(detached)
		c.settle(id, gen, v, err)
		return v, err
	})

	select {
	case <-ch:
	case <-ctx.Done():
	}
	return Peek[T](c, key)
}

// Peek returns the current snapshot of key without fetching.
func Peek[T any](c *Client, key Key) State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return State[T]{}
	}
	return snapshot[T](e)
}

func (c *Client) begin(id string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(id)
	e.inflight++
	return e.gen
}

func (c *Client) settle(id string, gen uint64, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(id)
	e.inflight--

	// A newer generation already settled; this result is older than it.
	if e.hasData && gen < e.dataGen {
		c.log.Debug("query result superseded", slog.String("key", id))
		return
	}

	if err != nil {
		// Keep previous data; the entry stays stale so the next Fetch retries.
		e.err = err
		e.stale = true
		c.log.Warn("query failed", slog.String("key", id), slog.String("error", err.Error()))
		return
	}

	e.data = v
	e.hasData = true
	e.dataGen = gen
	e.err = nil
	e.updatedAt = c.now()
	// Invalidated while the call was running: the result may predate the write.
	e.stale = e.gen != gen
	c.log.Debug("query resolved", slog.String("key", id))
}

func snapshot[T any](e *entry) State[T] {
	st := State[T]{
		HasData:   e.hasData,
		IsLoading: e.inflight > 0,
		IsError:   e.err != nil,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
	}
	if v, ok := e.data.(T); ok {
		st.Data = v
	}
	return st
}
