// Package session keeps POS carts in Redis, keyed by a per-terminal handle.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/retailpos-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/redis"
)

// Session is a stored cart and who opened it.
type Session struct {
	ID         uuid.UUID  `json:"id"`
	OperatorID *uuid.UUID `json:"operator_id,omitempty"`
	Cart       cart.Cart  `json:"cart"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Store persists sessions as JSON. Every save renews the TTL.
type Store struct {
	redis redis.CartStore
	ttl   time.Duration
}

func NewStore(store redis.CartStore, ttl time.Duration) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &Store{redis: store, ttl: ttl}, nil
}

func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, _, err := s.load(ctx, id)
	return sess, err
}

// load also returns the stored payload so a later Replace can detect
// writes that happened in between.
func (s *Store) load(ctx context.Context, id uuid.UUID) (*Session, string, error) {
	raw, err := s.redis.Get(ctx, s.redis.CartKey(id.String()))
	if err != nil {
		if redis.IsNil(err) {
			return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "cart not found or expired")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return &sess, raw, nil
}

func (s *Store) Save(ctx context.Context, sess *Session) error {
	payload, err := encodeSession(sess)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.redis.CartKey(sess.ID.String()), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

// Replace writes sess only if the stored payload still equals prev. A false
// result means the cart changed or expired since it was loaded.
func (s *Store) Replace(ctx context.Context, sess *Session, prev string) (bool, error) {
	payload, err := encodeSession(sess)
	if err != nil {
		return false, err
	}
	swapped, err := s.redis.SetIfValue(ctx, s.redis.CartKey(sess.ID.String()), prev, payload, s.ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return swapped, nil
}

func encodeSession(sess *Session) (string, error) {
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	return string(payload), nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.redis.Del(ctx, s.redis.CartKey(id.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}
