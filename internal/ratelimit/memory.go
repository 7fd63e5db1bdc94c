package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count   int64
	resetAt time.Time
}

// MemoryStore хранит счётчики в памяти процесса. Не переживает перезапуск
// и не разделяется между репликами.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket)}
}

// Incr реализует Store. Все операции идут под одним мьютексом.
func (s *MemoryStore) Incr(_ context.Context, key string, now time.Time, window time.Duration) (Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{count: 0, resetAt: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++
	return Bucket{Count: b.count, ResetAt: b.resetAt}, nil
}

// Len возвращает количество отслеживаемых ключей.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Cleanup удаляет счётчики, окно которых закончилось к моменту now.
func (s *MemoryStore) Cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, b := range s.buckets {
		if !now.Before(b.resetAt) {
			delete(s.buckets, k)
		}
	}
}

// StartJanitor периодически чистит устаревшие счётчики до отмены ctx.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				s.Cleanup(now)
			}
		}
	}()
}
