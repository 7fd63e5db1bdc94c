// Package ratelimit реализует ограничение частоты запросов фиксированным окном.
//
// Счётчик ключа сбрасывается, когда текущее время выходит за границу окна.
// На стыке двух окон возможно до 2×max запросов подряд: для защиты от перебора
// этого достаточно, для точных квот нет. Хранилище счётчиков передаётся
// в конструктор: MemoryStore действует в пределах одного процесса
// (при N репликах фактический лимит max×N), RedisStore общий для всех реплик.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidLimit неверные параметры окна или лимита.
var ErrInvalidLimit = errors.New("invalid rate limit parameters")

// Bucket состояние счётчика ключа после атомарного инкремента.
type Bucket struct {
	Count   int64
	ResetAt time.Time
}

// Store атомарно сбрасывает или увеличивает счётчик ключа.
// Чтение, проверка и инкремент одного ключа не должны гоняться между собой.
type Store interface {
	Incr(ctx context.Context, key string, now time.Time, window time.Duration) (Bucket, error)
}

// Decision итог проверки лимита.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // ненулевой только при отказе
}

// Limiter проверяет лимиты поверх Store.
type Limiter struct {
	store Store
	now   func() time.Time
}

// Option настраивает Limiter.
type Option func(*Limiter)

// WithClock подменяет источник времени, используется в тестах.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New создаёт Limiter поверх переданного хранилища.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check учитывает запрос по ключу и решает, пропускать ли его.
// Ошибка хранилища возвращается как есть, решение о fail-open принимает вызывающий.
func (l *Limiter) Check(ctx context.Context, key string, window time.Duration, maxCount int) (Decision, error) {
	const op = "ratelimit.Check"
	if window <= 0 || maxCount <= 0 {
		return Decision{}, fmt.Errorf("%s: %w: window=%s max=%d", op, ErrInvalidLimit, window, maxCount)
	}

	now := l.now()
	b, err := l.store.Incr(ctx, key, now, window)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	d := Decision{
		Allowed: b.Count <= int64(maxCount),
		Count:   b.Count,
		Limit:   maxCount,
		ResetAt: b.ResetAt,
	}
	if rem := int64(maxCount) - b.Count; rem > 0 {
		d.Remaining = int(rem)
	}
	if !d.Allowed {
		d.RetryAfter = max(0, b.ResetAt.Sub(now))
	}
	return d, nil
}
