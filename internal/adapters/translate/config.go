package translate

import "stackscout/internal/platform/config"

// OptionsFromConfig reads client options using the TRANSLATE_ prefix
// an empty BaseURL means translation is disabled
func OptionsFromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("TRANSLATE_")
	return Options{
		BaseURL: c.MayString("URL", ""),
		APIKey:  c.MayString("API_KEY", ""),
		Source:  c.MayString("SOURCE", defaultSource),
		Timeout: c.MayDuration("TIMEOUT", defaultTimeout),
		RPS:     c.MayFloat64("RPS", 1),
		Burst:   c.MayInt("BURST", 2),
	}
}
