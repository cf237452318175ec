package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

// verificationCache is an opt-in, short-TTL cache of verification
// results keyed by token hash. Per-request re-verification is the
// default; enabling this trades a bounded staleness window for latency.
// Record writes must call Invalidate to keep the window honest.
type verificationCache struct {
	lru *expirable.LRU[string, *admin.Record]
}

const verificationCacheSize = 1024

func newVerificationCache(ttl time.Duration) *verificationCache {
	return &verificationCache{
		lru: expirable.NewLRU[string, *admin.Record](verificationCacheSize, nil, ttl),
	}
}

// hashToken derives the cache key. The raw token never enters the cache.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (c *verificationCache) get(token string) (*admin.Record, bool) {
	return c.lru.Get(hashToken(token))
}

func (c *verificationCache) put(token string, record *admin.Record) {
	c.lru.Add(hashToken(token), record)
}

// invalidate drops every cached result for the given derived record
// key. Called after authorization record writes.
func (c *verificationCache) invalidate(recordKey string) {
	for _, key := range c.lru.Keys() {
		if record, ok := c.lru.Peek(key); ok && record.Key == recordKey {
			c.lru.Remove(key)
		}
	}
}
