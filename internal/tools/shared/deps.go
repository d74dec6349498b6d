package shared

import (
	"time"

	"graham/internal/adapters/redis"
	"graham/pkg/logger"
)

// Deps carries the cross-cutting dependencies data tools need. Cache is
// optional; tools fall through to their upstream API when it is nil.
type Deps struct {
	Log      *logger.Logger
	Cache    *redis.Client
	CacheTTL time.Duration
}

// HasCache reports whether a response cache is configured.
func (d Deps) HasCache() bool {
	return d.Cache != nil
}
