package grantkit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
)

const (
	cachePrefix     = "grantkit"
	cacheTagPrefix  = "grantkit:tag"
	defaultCacheTTL = time.Minute
)

// Cache memoizes read paths in Redis. It is strictly an optimization: every
// read produces identical results with the cache disabled, and a nil *Cache
// bypasses caching entirely. Entries are registered in tag sets keyed by the
// subject, the target, and the pair, so mutating operations can invalidate
// precisely and synchronously.
type Cache struct {
	client *redis.Client
	ttl    map[OpKind]time.Duration
	log    logr.Logger
}

// NewCache instantiates the cache layer. The TTL map configures expiry per
// operation kind independently; missing kinds fall back to one minute.
func NewCache(client *redis.Client, ttls map[OpKind]time.Duration) *Cache {
	return &Cache{client: client, ttl: ttls, log: logr.Discard()}
}

func (c *Cache) setLogger(log logr.Logger) {
	if c != nil {
		c.log = log.WithName("cache")
	}
}

func (c *Cache) ttlFor(op OpKind) time.Duration {
	if c.ttl != nil {
		if d, ok := c.ttl[op]; ok && d > 0 {
			return d
		}
	}
	return defaultCacheTTL
}

// get loads a cached value into dest. A miss or any Redis fault returns
// false; faults degrade to a store read and are only logged.
func (c *Cache) get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.log.V(1).Info("cache read failed", "key", key, "error", err.Error())
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		c.log.V(1).Info("cache entry corrupt", "key", key, "error", err.Error())
		return false
	}
	return true
}

// set stores a value and registers the key under each tag set. Tag sets
// carry the same expiry as their newest entry so they cannot outlive it
// by more than one invalidation cycle.
func (c *Cache) set(ctx context.Context, op OpKind, key string, value any, tags ...string) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.V(1).Info("cache marshal failed", "key", key, "error", err.Error())
		return
	}

	ttl := c.ttlFor(op)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, payload, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tag, key)
		pipe.Expire(ctx, tag, ttl+time.Minute)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.V(1).Info("cache write failed", "key", key, "error", err.Error())
	}
}

// invalidateRefs removes every entry whose key space touches the pair, the
// subject alone, or the target alone. Called once per mutating operation,
// before it returns.
func (c *Cache) invalidateRefs(ctx context.Context, subject, target Ref) {
	if c == nil || c.client == nil {
		return
	}
	c.invalidateTags(ctx, tagPair(subject, target), tagSubject(subject), tagTarget(target))
}

func (c *Cache) invalidateTags(ctx context.Context, tags ...string) {
	for _, tag := range tags {
		members, err := c.client.SMembers(ctx, tag).Result()
		if err != nil && err != redis.Nil {
			c.log.V(1).Info("cache invalidation read failed", "tag", tag, "error", err.Error())
			continue
		}
		if len(members) > 0 {
			if err := c.client.Del(ctx, members...).Err(); err != nil {
				c.log.V(1).Info("cache invalidation delete failed", "tag", tag, "error", err.Error())
			}
		}
		if err := c.client.Del(ctx, tag).Err(); err != nil {
			c.log.V(1).Info("cache tag delete failed", "tag", tag, "error", err.Error())
		}
	}
}

// invalidateAll drops the whole grantkit namespace. Used by tenant-scoped
// bulk deletes, where the affected pairs are not enumerable up front.
func (c *Cache) invalidateAll(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, cachePrefix+":*", 200).Result()
		if err != nil {
			c.log.V(1).Info("cache scan failed", "error", err.Error())
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.log.V(1).Info("cache flush delete failed", "error", err.Error())
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// ============================================================================
// KEY AND TAG LAYOUT
// ============================================================================

func cacheKey(op OpKind, parts ...string) string {
	return cachePrefix + ":" + string(op) + ":" + strings.Join(parts, ":")
}

func keyHasRole(subject, target Ref, roleKeyHash string) string {
	return cacheKey(OpHasRole, subject.Type, subject.ID, target.Type, target.ID, roleKeyHash)
}

func keyHasAnyRole(subject, target Ref) string {
	return cacheKey(OpHasAnyRole, subject.Type, subject.ID, target.Type, target.ID)
}

func keyRoleOn(subject, target Ref) string {
	return cacheKey(OpRoleOn, subject.Type, subject.ID, target.Type, target.ID)
}

func keyParticipants(target Ref, roleKeyHash string) string {
	if roleKeyHash == "" {
		return cacheKey(OpParticipants, target.Type, target.ID)
	}
	return cacheKey(OpParticipants, target.Type, target.ID, roleKeyHash)
}

func keyAssignedTargets(subject Ref, targetType string) string {
	return cacheKey(OpAssignedTargets, subject.Type, subject.ID, targetType)
}

func tagPair(subject, target Ref) string {
	return cacheTagPrefix + ":pair:" + subject.String() + ":" + target.String()
}

func tagSubject(subject Ref) string {
	return cacheTagPrefix + ":subject:" + subject.String()
}

func tagTarget(target Ref) string {
	return cacheTagPrefix + ":target:" + target.String()
}

// roleKeyHash shortens a storage key (ciphertexts can be long) to a bounded
// cache key component.
func roleKeyHash(storageKey string) string {
	sum := sha256.Sum256([]byte(storageKey))
	return hex.EncodeToString(sum[:8])
}
