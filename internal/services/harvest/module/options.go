package module

import (
	"time"

	"golang.org/x/text/language"

	"stackscout/internal/platform/config"
)

// Options controls harvest behavior. Values may also be read from env
type Options struct {
	RankLimit         int
	TargetLocale      language.Tag
	Async             bool
	DownstreamTimeout time.Duration
}

// FromConfig reads options using the HARVEST_ prefix
func FromConfig(cfg config.Conf) Options {
	h := cfg.Prefix("HARVEST_")
	return Options{
		RankLimit:         h.MayInt("RANK_LIMIT", 25),
		TargetLocale:      h.MayLocale("TARGET_LOCALE", language.SimplifiedChinese),
		Async:             h.MayBool("ASYNC", true),
		DownstreamTimeout: h.MayDuration("DOWNSTREAM_TIMEOUT", 2*time.Minute),
	}
}
