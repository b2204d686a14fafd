package cache

import "fmt"

// NewCache creates a new result cache based on the given cache type.
// Supported types: "memory", "redis"
func NewCache(cacheType string, redisCfg RedisConfig) (ResultCache, error) {
	switch cacheType {
	case "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(redisCfg)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}
