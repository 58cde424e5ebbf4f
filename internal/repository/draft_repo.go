package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"hpmarcas/internal/cart"
)

const draftKeyPrefix = "pdv:draft:"

// draftEnvelope wraps the cart with a recovery marker. Any saved draft is a
// potential recovery; the first Load after a save surfaces restored=true and
// acknowledges it so it is not re-shown.
type draftEnvelope struct {
	Cart            *cart.Cart `json:"cart"`
	PendingRecovery bool       `json:"pending_recovery"`
}

// redisDraftStore is the production cart.DraftStore: in-progress PDV carts
// live in Redis under a TTL so an abandoned terminal eventually cleans up.
type redisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDraftStore(rdb *redis.Client, ttl time.Duration) cart.DraftStore {
	return &redisDraftStore{rdb: rdb, ttl: ttl}
}

func (s *redisDraftStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	data, err := json.Marshal(draftEnvelope{Cart: c, PendingRecovery: true})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, draftKeyPrefix+sessionID, data, s.ttl).Err()
}

func (s *redisDraftStore) Load(ctx context.Context, sessionID string) (*cart.Cart, bool, error) {
	key := draftKeyPrefix + sessionID
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var env draftEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, err
	}

	restored := env.PendingRecovery
	if restored {
		// Acknowledge so the recovery notice is surfaced only once.
		env.PendingRecovery = false
		if ack, err := json.Marshal(env); err == nil {
			s.rdb.Set(ctx, key, ack, s.ttl)
		}
	}
	return env.Cart, restored, nil
}

func (s *redisDraftStore) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, draftKeyPrefix+sessionID).Err()
}
