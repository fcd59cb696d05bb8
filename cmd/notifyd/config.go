package main

import "time"

// appConfig selects storage drivers and worker behavior. Driver and
// provider values decide which optional config structs are loaded, so a
// pure in-memory dev setup starts with no environment at all.
type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"notifyd"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"` // memory | postgres
	QueueDriver   string `env:"QUEUE_DRIVER" envDefault:"memory"`   // memory | redis | postgres

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"dev"` // dev | smtp | postmark | none
	DevMailDir    string `env:"DEV_MAIL_DIR" envDefault:"tmp/mail"`

	TemplateSeedFile string `env:"TEMPLATE_SEED_FILE"`

	QueuePrefix       string        `env:"QUEUE_REDIS_PREFIX" envDefault:"notifykit"`
	MaxAttempts       int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`
	Concurrency       int           `env:"WORKER_CONCURRENCY" envDefault:"5"`
	PollInterval      time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"250ms"`
	BackoffInitial    time.Duration `env:"WORKER_BACKOFF_INITIAL" envDefault:"1s"`
	BackoffMax        time.Duration `env:"WORKER_BACKOFF_MAX" envDefault:"30s"`
	BackoffMultiplier float64       `env:"WORKER_BACKOFF_MULTIPLIER" envDefault:"2"`
}
