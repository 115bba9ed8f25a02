package app

import (
	"context"
	"sync"

	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
)

var ErrCheckoutInProgress = apperr.New(apperr.ErrConflict, "checkout already in progress")

// LocalLocker is a Locker for a single process. Use the redis locker when
// several api instances share one store.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(_ context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrCheckoutInProgress
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
