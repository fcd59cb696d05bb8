package queue

import "time"

// Config holds the configuration for the dispatch queue.
type Config struct {
	LeaseDuration      time.Duration `env:"QUEUE_LEASE_DURATION" envDefault:"5m"`
	DefaultMaxAttempts int           `env:"QUEUE_DEFAULT_MAX_ATTEMPTS" envDefault:"3"`
	RedisKeyPrefix     string        `env:"QUEUE_REDIS_KEY_PREFIX" envDefault:"notifykit:queue"`
}
