package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLeaseTTL = time.Hour

// Lease grants one worker instance the right to run a maintenance cycle.
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
}

// RedisLease is a SETNX lease that only its holder may release.
type RedisLease struct {
	store  leaseStore
	key    string
	ttl    time.Duration
	holder string
}

func NewRedisLease(store leaseStore, key string, ttl time.Duration) (*RedisLease, error) {
	if store == nil {
		return nil, errors.New("lease store required")
	}
	if key == "" {
		return nil, errors.New("lease key required")
	}
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &RedisLease{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLease) Acquire(ctx context.Context) (bool, error) {
	holder := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, holder, l.ttl)
	if err != nil {
		return false, fmt.Errorf("claim lease %s: %w", l.key, err)
	}
	if ok {
		l.holder = holder
	}
	return ok, nil
}

// Release is a no-op when the lease expired and another instance took it.
func (l *RedisLease) Release(ctx context.Context) error {
	if l.holder == "" {
		return nil
	}
	holder := l.holder
	l.holder = ""
	if _, err := l.store.DelIfValue(ctx, l.key, holder); err != nil {
		return fmt.Errorf("release lease %s: %w", l.key, err)
	}
	return nil
}
