package module

import (
	"time"

	"stackscout/internal/platform/config"
)

// Options controls webhook verification. Values may also be read from env
type Options struct {
	Secret    string
	Tolerance time.Duration
	// History appends accepted snapshots to ClickHouse when a client is wired
	History bool
}

// FromConfig reads options using the WEBHOOK_ prefix
func FromConfig(cfg config.Conf) Options {
	w := cfg.Prefix("WEBHOOK_")
	return Options{
		Secret:    w.MayString("SECRET", ""),
		Tolerance: w.MayDuration("TOLERANCE", 5*time.Minute),
		History:   w.MayBool("HISTORY", true),
	}
}

func merge(base, over Options) Options {
	if over.Secret != "" {
		base.Secret = over.Secret
	}
	if over.Tolerance > 0 {
		base.Tolerance = over.Tolerance
	}
	return base
}
