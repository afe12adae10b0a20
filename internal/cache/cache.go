// Package cache keeps pipeline results between requests and computes the
// publication-aligned expiry that the result store and the HTTP cache
// headers share.
package cache

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Default clamp bounds for the refresh-aligned TTL.
const (
	DefaultMinTTL = time.Minute
	DefaultMaxTTL = 24 * time.Hour
)

// Policy describes when cached results go stale: entries live until the next
// occurrence of the publication refresh hour, clamped to [Min, Max].
type Policy struct {
	// RefreshHour is the local hour (0-23) at which the agency is assumed to
	// have published fresh numbers.
	RefreshHour int
	// Location is the timezone the refresh hour is expressed in. Nil means
	// UTC.
	Location *time.Location
	// Min and Max clamp the computed TTL. Zero values fall back to the
	// package defaults.
	Min time.Duration
	Max time.Duration
}

// NextRefresh returns the next occurrence of the refresh hour strictly after
// now.
func (p Policy) NextRefresh(now time.Time) time.Time {
	local := now.In(p.location())
	next := time.Date(local.Year(), local.Month(), local.Day(), p.RefreshHour, 0, 0, 0, p.location())
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// TTL returns the clamped duration from now until the next refresh instant.
func (p Policy) TTL(now time.Time) time.Duration {
	ttl := p.NextRefresh(now).Sub(now)

	min := p.Min
	if min <= 0 {
		min = DefaultMinTTL
	}
	max := p.Max
	if max <= 0 {
		max = DefaultMaxTTL
	}
	if ttl < min {
		ttl = min
	}
	if ttl > max {
		ttl = max
	}
	return ttl
}

func (p Policy) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.UTC
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a small LRU of values that expire on the policy's refresh
// boundary. The store never reaches for the wall clock itself; callers pass
// the time in, which keeps expiry testable.
type Store[V any] struct {
	policy Policy
	lru    *lru.Cache[string, entry[V]]
}

// NewStore builds a Store holding at most size entries.
func NewStore[V any](size int, policy Policy) (*Store[V], error) {
	if size <= 0 {
		size = 8
	}
	backing, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("build lru: %w", err)
	}
	return &Store[V]{policy: policy, lru: backing}, nil
}

// Get returns the cached value when present and not yet expired. Expired
// entries are evicted on the way out.
func (s *Store[V]) Get(key string, now time.Time) (V, bool) {
	var zero V
	item, ok := s.lru.Get(key)
	if !ok {
		return zero, false
	}
	if !now.Before(item.expiresAt) {
		s.lru.Remove(key)
		return zero, false
	}
	return item.value, true
}

// Put stores value until the next refresh instant after now.
func (s *Store[V]) Put(key string, value V, now time.Time) {
	s.lru.Add(key, entry[V]{value: value, expiresAt: now.Add(s.policy.TTL(now))})
}

// Len reports the number of live entries, expired ones included until their
// next Get.
func (s *Store[V]) Len() int {
	return s.lru.Len()
}
