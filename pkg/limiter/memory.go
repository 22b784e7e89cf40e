package limiter

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = 5 * time.Minute

// bucket holds the recent request timestamps for one identifier. window is
// the width used by the identifier's most recent check; the sweep needs it to
// decide when every entry has aged out.
type bucket struct {
	stamps []time.Time
	window time.Duration
}

// MemoryStore is an in-process WindowStore backed by a Go map.
//
// It is safe for concurrent use by multiple goroutines, but its state is
// local to the process and is not shared across replicas. Use RedisStore when
// you need a single global limit across multiple instances.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	sweepEvery time.Duration
	stop       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// NewMemoryStore constructs a MemoryStore with empty state and starts its
// background sweep. A non-positive sweepEvery selects the 5 minute default.
// Call Close to stop the sweep.
func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	if sweepEvery <= 0 {
		sweepEvery = defaultSweepInterval
	}
	m := &MemoryStore{
		buckets:    make(map[string]*bucket),
		sweepEvery: sweepEvery,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// RecordAndCount implements WindowStore. The returned count excludes the
// current attempt. Attempts at or over the limit are not recorded, so a
// denied caller does not keep its own window extended.
func (m *MemoryStore) RecordAndCount(_ context.Context, key string, now time.Time, window time.Duration, limit int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{}
		m.buckets[key] = b
	}

	cutoff := now.Add(-window)
	live := b.stamps[:0]
	for _, ts := range b.stamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	b.stamps = live
	b.window = window

	count := int64(len(live))
	if count < limit {
		b.stamps = append(b.stamps, now)
	}
	return count, nil
}

func (m *MemoryStore) sweepLoop() {
	defer close(m.done)
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// sweep drops identifiers whose every record has aged out, bounding memory
// growth from one-off callers. It takes the same lock as RecordAndCount, so
// it can never race a concurrent check into dropping a live entry.
func (m *MemoryStore) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, b := range m.buckets {
		if len(b.stamps) == 0 || !b.stamps[len(b.stamps)-1].After(now.Add(-b.window)) {
			delete(m.buckets, key)
		}
	}
}

// Close stops the background sweep and waits for it to exit. The store stays
// usable afterwards; only the sweep goroutine is released. Safe to call more
// than once.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
	return nil
}
