package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"blameja-pos/internal/cart"
)

const (
	cartKeyPrefix    = "cart:"
	checkoutSuffix   = ":checkout"
	checkoutLockTTL  = 2 * time.Minute
	maxUpdateRetries = 32
)

var (
	// ErrCartLocked is returned while a checkout holds the cart.
	ErrCartLocked = errors.New("cart is locked by a checkout")

	// ErrCartContention is returned when concurrent writers kept winning
	// every retry of an update.
	ErrCartContention = errors.New("cart is being modified concurrently")
)

// releaseScript deletes the checkout lock only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CartStore keeps draft carts in Redis. Every read or write slides the TTL.
type CartStore interface {
	Get(ctx context.Context, id string) (*cart.Draft, error)
	Save(ctx context.Context, d *cart.Draft) error
	// Update applies fn to the stored draft inside an optimistic
	// transaction, so concurrent updates of one cart are never lost.
	Update(ctx context.Context, id string, fn func(d *cart.Draft) error) (*cart.Draft, error)
	// Claim takes the checkout lock. Only one caller holds it at a time and
	// Update fails with ErrCartLocked while it is held.
	Claim(ctx context.Context, id string) (token string, err error)
	Release(ctx context.Context, id, token string) error
	// Delete removes the draft together with its checkout lock.
	Delete(ctx context.Context, id string) error
}

type redisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartStore(client *redis.Client, ttl time.Duration) CartStore {
	return &redisCartStore{client: client, ttl: ttl}
}

func cartKey(id string) string {
	return cartKeyPrefix + id
}

func checkoutKey(id string) string {
	return cartKeyPrefix + id + checkoutSuffix
}

func decodeDraft(id string, data []byte) (*cart.Draft, error) {
	var d cart.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode cart %s: %w", id, err)
	}
	if d.Lines == nil {
		d.Lines = []cart.Line{}
	}
	return &d, nil
}

func (s *redisCartStore) Get(ctx context.Context, id string) (*cart.Draft, error) {
	data, err := s.client.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", id, err)
	}
	if err := s.client.Expire(ctx, cartKey(id), s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to refresh cart %s: %w", id, err)
	}
	return decodeDraft(id, data)
}

func (s *redisCartStore) Save(ctx context.Context, d *cart.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode cart %s: %w", d.ID, err)
	}
	if err := s.client.Set(ctx, cartKey(d.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart %s: %w", d.ID, err)
	}
	return nil
}

func (s *redisCartStore) Update(ctx context.Context, id string, fn func(d *cart.Draft) error) (*cart.Draft, error) {
	key, lock := cartKey(id), checkoutKey(id)

	var result *cart.Draft
	txf := func(tx *redis.Tx) error {
		locked, err := tx.Exists(ctx, lock).Result()
		if err != nil {
			return fmt.Errorf("failed to check checkout lock: %w", err)
		}
		if locked > 0 {
			return ErrCartLocked
		}

		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load cart %s: %w", id, err)
		}
		d, err := decodeDraft(id, data)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}

		out, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to encode cart %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		if err == nil {
			result = d
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key, lock)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("failed to update cart %s: %w", id, ErrCartContention)
}

func (s *redisCartStore) Claim(ctx context.Context, id string) (string, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, checkoutKey(id), token, checkoutLockTTL).Result()
	if err != nil {
		return "", fmt.Errorf("failed to lock cart %s: %w", id, err)
	}
	if !ok {
		return "", ErrCartLocked
	}
	return token, nil
}

func (s *redisCartStore) Release(ctx context.Context, id, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{checkoutKey(id)}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to unlock cart %s: %w", id, err)
	}
	return nil
}

func (s *redisCartStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, cartKey(id), checkoutKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart %s: %w", id, err)
	}
	return nil
}
