package compute

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	instanceKeyPrefix = "ec2:instance:" // snapshot JSON per instance: ec2:instance:{instance_id}

	// Entries older than this are refreshed from the provider. Short on
	// purpose: the cache only amortizes bursts of list/get requests.
	freshnessWindow = 10 * time.Second
)

// Describer is implemented by the Provisioner.
type Describer interface {
	Describe(ctx context.Context, instanceIDs []string) ([]InstanceSnapshot, error)
}

// InstanceCache serves instance snapshots out of Redis, batching a single
// provider call for whatever is missing or stale. It is advisory: callers
// must tolerate absent snapshots, and concurrent refreshes may overwrite
// each other (last writer wins).
type InstanceCache struct {
	client   *redis.Client
	describe Describer
}

func NewInstanceCache(client *redis.Client, describe Describer) *InstanceCache {
	return &InstanceCache{client: client, describe: describe}
}

// Get returns snapshots for the requested instance ids, keyed by id. Never
// fails: a provider error degrades the result to the cache hits gathered
// so far, a cache error degrades to a full provider fetch.
func (c *InstanceCache) Get(ctx context.Context, instanceIDs []string) map[string]InstanceSnapshot {
	result := make(map[string]InstanceSnapshot, len(instanceIDs))
	if len(instanceIDs) == 0 {
		return result
	}

	keys := make([]string, len(instanceIDs))
	for i, id := range instanceIDs {
		keys[i] = instanceKeyPrefix + id
	}

	missing := instanceIDs
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Printf("[instance-cache] mget failed, treating all as misses: %v", err)
	} else {
		missing = make([]string, 0, len(instanceIDs))
		for i, v := range vals {
			raw, ok := v.(string)
			if !ok {
				missing = append(missing, instanceIDs[i])
				continue
			}
			var snap InstanceSnapshot
			if err := json.Unmarshal([]byte(raw), &snap); err != nil {
				missing = append(missing, instanceIDs[i])
				continue
			}
			result[snap.InstanceID] = snap
		}
	}

	if len(missing) == 0 {
		return result
	}

	snapshots, err := c.describe.Describe(ctx, missing)
	if err != nil {
		// Degraded result: whatever the cache had. Callers render servers
		// without live instance data rather than failing the request.
		log.Printf("[instance-cache] describe failed for %d instance(s): %v", len(missing), err)
		return result
	}

	pipe := c.client.Pipeline()
	for _, snap := range snapshots {
		result[snap.InstanceID] = snap

		data, err := json.Marshal(snap)
		if err != nil {
			continue
		}
		// Wholesale replace; entries are never partially merged.
		pipe.Set(ctx, instanceKeyPrefix+snap.InstanceID, data, freshnessWindow)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[instance-cache] refresh write failed: %v", err)
	}

	return result
}
