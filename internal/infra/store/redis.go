// Package store provides SessionStore adapters: a Redis-backed store shared
// across browser contexts (the durable cross-tab store) and an in-memory
// store for tests and single-process development.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
)

// wellKnownKeys are the keys Clear removes. The store holds nothing else.
var wellKnownKeys = []string{
	domain.StoreKeyAuthToken,
	domain.StoreKeyCustomer,
	domain.StoreKeyAreas,
	domain.StoreKeySelectedArea,
	domain.StoreKeyLegacyCustomerID,
}

// Redis is a SessionStore backed by Redis. Every mutation is published on a
// per-namespace channel so other contexts (tabs, other BFF instances) can
// re-derive their state, mirroring browser storage events.
type Redis struct {
	client    *redis.Client
	namespace string
	origin    string
	logger    *zap.Logger
}

// NewRedis creates a Redis session store scoped to one namespace (one
// browser identity). The origin id distinguishes this context's own writes
// in the signals it publishes.
func NewRedis(client *redis.Client, namespace string, logger *zap.Logger) *Redis {
	return &Redis{
		client:    client,
		namespace: namespace,
		origin:    uuid.NewString(),
		logger:    logger,
	}
}

// Origin returns this store context's origin id.
func (s *Redis) Origin() string { return s.origin }

func (s *Redis) key(k string) string {
	return fmt.Sprintf("sess:%s:%s", s.namespace, k)
}

func (s *Redis) channel() string {
	return fmt.Sprintf("sess:%s:events", s.namespace)
}

// Get reads one key. A missing key is (_, false, nil), not an error.
func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store get %s: %w", key, err)
	}
	return v, true, nil
}

// Set writes one key and publishes a mutation signal.
func (s *Redis) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("store set %s: %w", key, err)
	}
	s.publish(ctx, key)
	return nil
}

// Delete removes one key and publishes a mutation signal.
func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("store delete %s: %w", key, err)
	}
	s.publish(ctx, key)
	return nil
}

// Clear removes every well-known key (logout) and publishes one signal.
func (s *Redis) Clear(ctx context.Context) error {
	keys := make([]string, 0, len(wellKnownKeys))
	for _, k := range wellKnownKeys {
		keys = append(keys, s.key(k))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("store clear: %w", err)
	}
	s.publish(ctx, "")
	return nil
}

// Subscribe delivers mutation signals published on this namespace. The
// cancel func closes the subscription and the channel.
func (s *Redis) Subscribe(ctx context.Context) (<-chan domain.StoreSignal, func(), error) {
	pubsub := s.client.Subscribe(ctx, s.channel())
	// Force the subscription to be established before returning so no
	// publish made after Subscribe is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("store subscribe: %w", err)
	}

	out := make(chan domain.StoreSignal, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var sig domain.StoreSignal
			if err := json.Unmarshal([]byte(msg.Payload), &sig); err != nil {
				// Unknown payload still means the store changed; deliver an
				// empty signal so the listener over-triggers rather than
				// misses a change.
				s.logger.Warn("store: unparsable signal payload", zap.Error(err))
			}
			out <- sig
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}

func (s *Redis) publish(ctx context.Context, key string) {
	payload, _ := json.Marshal(domain.StoreSignal{Key: key, Origin: s.origin})
	if err := s.client.Publish(ctx, s.channel(), string(payload)).Err(); err != nil {
		// Best effort: a lost signal means a tab stays stale until its next
		// own action, never corrupted state.
		s.logger.Warn("store: publish failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
