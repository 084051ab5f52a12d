package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/internal/store"
)

// RedisCache is an optional out-of-process SubstateCache backend,
// wiring the teacher's go-redis/v8 dependency (present in its go.mod
// but, unlike logrus/sqlx/goja/prometheus, never actually dialed by
// any teacher file — grepping the tree turns up no redis.NewClient
// call) behind the same SubstateCache interface MemoryCache satisfies.
// Values are gob-encoded, the same wire choice internal/store's
// SQLStore makes for substate payloads, since the payload shape is
// closed over by this module rather than externally consumed.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(id node.SubstateId) string {
	return fmt.Sprintf("substate:%s/%s.%s", id.NodeId.Encode(), id.Offset.Kind.String(), id.Offset.Name)
}

func (c *RedisCache) Get(id node.SubstateId) (store.Substate, bool) {
	raw, err := c.client.Get(context.Background(), redisKey(id)).Bytes()
	if err != nil {
		return store.Substate{}, false
	}
	var payload gobSubstate
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&payload); err != nil {
		return store.Substate{}, false
	}
	return store.Substate{Value: payload.Value, Referenced: payload.Referenced}, true
}

func (c *RedisCache) Set(id node.SubstateId, val store.Substate) {
	var buf bytes.Buffer
	payload := gobSubstate{Value: val.Value, Referenced: val.Referenced}
	if err := gob.NewEncoder(&buf).Encode(&payload); err != nil {
		return
	}
	c.client.Set(context.Background(), redisKey(id), buf.Bytes(), c.ttl)
}

func (c *RedisCache) Invalidate(id node.SubstateId) {
	c.client.Del(context.Background(), redisKey(id))
}

// gobSubstate is store.Substate's wire twin: gob requires a
// concretely-registered type for the any-typed Value field, so encoding
// it here relies on the same gob registry store.RegisterValueType
// writes to. No package in this module calls RegisterValueType; a value
// whose type nobody has registered fails to encode and Set skips it.
type gobSubstate struct {
	Value      any
	Referenced []ids.NodeId
}
