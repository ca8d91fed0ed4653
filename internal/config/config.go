package config

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"

	errs "github.com/iamwavecut/pquota/internal/errors"
)

const envPrefix = "PQ_"

type (
	Config struct {
		TelegramAPIToken string `env:"TOKEN,required"`
		DefaultLanguage  string `env:"LANG,default=en"`
		LogLevel         int    `env:"LOG_LEVEL,default=4"`
		DotPath          string `env:"DOT_PATH,default=~/.pquota"`
		DBFile           string `env:"DB_FILE,default=pquota.db"`
		UpdateTimeout    int    `env:"UPDATE_TIMEOUT,default=60"`
		Moderation       Moderation
		Observability    Observability
	}

	Moderation struct {
		EventQueueSize int           `env:"EVENT_QUEUE_SIZE,default=1024"`
		EventTimeout   time.Duration `env:"EVENT_TIMEOUT,default=30s"`
		DeleteRPS      float64       `env:"DELETE_RPS,default=20"`
	}

	Observability struct {
		MetricsAddr string `env:"METRICS_ADDR,default=:2112"`
	}
)

// Load reads the configuration from PQ_ prefixed environment variables.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper(envPrefix, lookuper),
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, fmt.Errorf("%w: process env config: %w", errs.ErrConfiguration, err)
	}
	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, fmt.Errorf("%w: expand dot path: %w", errs.ErrConfiguration, err)
	}
	cfg.DotPath = dotPath
	if cfg.Moderation.EventQueueSize <= 0 {
		return nil, fmt.Errorf("%w: event queue size must be positive", errs.ErrConfiguration)
	}
	if cfg.Moderation.DeleteRPS <= 0 {
		return nil, fmt.Errorf("%w: delete rps must be positive", errs.ErrConfiguration)
	}
	log.Traceln("loaded config")
	return cfg, nil
}
