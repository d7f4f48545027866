// Package cache provides a small in-memory response cache for the Readwise service.
// Entries expire after a fixed TTL and the cache is bounded with LRU eviction.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/readwise-mcp/internal/common"
)

const (
	DefaultTTL        = 300 * time.Second
	DefaultMaxEntries = 256
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

type entry struct {
	key        string
	value      interface{}
	insertedAt time.Time
}

// Service is a mutex-guarded TTL cache with LRU eviction.
type Service struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        Clock
	order      *list.List
	items      map[string]*list.Element
	logger     arbor.ILogger
}

// Option configures the cache service.
type Option func(*Service)

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		s.now = clock
	}
}

// WithMaxEntries bounds the number of entries. Zero or less disables the bound.
func WithMaxEntries(n int) Option {
	return func(s *Service) {
		s.maxEntries = n
	}
}

// NewService creates a cache whose entries live for ttl. A non-positive ttl
// falls back to DefaultTTL and a nil logger to the global one.
func NewService(ttl time.Duration, logger arbor.ILogger, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	s := &Service{
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value for key if present and younger than the TTL.
// Expired entries are removed on read.
func (s *Service) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return nil, false
	}

	e := el.Value.(*entry)
	if s.now().Sub(e.insertedAt) >= s.ttl {
		s.removeElement(el)
		s.logger.Debug().Str("key", key).Msg("Cache entry expired")
		return nil, false
	}

	s.order.MoveToFront(el)
	return e.value, true
}

// Set stores value under key, replacing any previous entry and resetting its age.
func (s *Service) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.insertedAt = now
		s.order.MoveToFront(el)
		return
	}

	s.items[key] = s.order.PushFront(&entry{key: key, value: value, insertedAt: now})

	for s.maxEntries > 0 && s.order.Len() > s.maxEntries {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.removeElement(oldest)
		s.logger.Debug().
			Str("key", oldest.Value.(*entry).key).
			Int("max_entries", s.maxEntries).
			Msg("Cache entry evicted")
	}
}

// Delete removes key if present.
func (s *Service) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		s.removeElement(el)
	}
}

// DeletePrefix removes every key starting with prefix and returns how many
// entries were removed.
func (s *Service) DeletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, el := range s.items {
		if strings.HasPrefix(key, prefix) {
			s.removeElement(el)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including ones not yet found expired.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *Service) removeElement(el *list.Element) {
	s.order.Remove(el)
	delete(s.items, el.Value.(*entry).key)
}
