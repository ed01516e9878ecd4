package github

import "stackscout/internal/platform/config"

// OptionsFromConfig reads GITHUB_API_URL, GITHUB_TOKENS and the rate knobs
func OptionsFromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("GITHUB_")
	return Options{
		BaseURL:    c.MayString("API_URL", ""),
		Tokens:     c.MayCSV("TOKENS", nil),
		Timeout:    c.MayDuration("TIMEOUT", defaultTimeout),
		MaxRetries: c.MayInt("MAX_RETRIES", defaultMaxRetries),
		RPS:        c.MayFloat64("RPS", 2),
		Burst:      c.MayInt("BURST", 4),
	}
}
