package cache

import (
	"time"

	"sharify/internal/querykeys"
)

const keyPrefix = "sharify:"

// Key returns the Redis key for a query key.
func Key(k querykeys.Key) string {
	return keyPrefix + k.String()
}

// TTL is how long a cached read of family f may live before a refetch.
func TTL(f querykeys.Family) time.Duration {
	switch f {
	case querykeys.Post, querykeys.Comments:
		return 10 * time.Minute
	case querykeys.PublicProfile, querykeys.Profile:
		return 5 * time.Minute
	case querykeys.Resources, querykeys.Resource:
		return 30 * time.Minute
	default:
		return 2 * time.Minute
	}
}
