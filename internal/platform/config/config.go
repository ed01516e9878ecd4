// Package config reads service configuration from prefixed environment variables
// bad values are logged and replaced by the default, missing required ones panic
package config

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"stackscout/internal/platform/config/raw"
	"stackscout/internal/platform/logger"
)

// Conf is a namespaced view over the environment, e.g. New().Prefix("ANALYSIS_")
type Conf struct{ env raw.Env }

// New is the root view
func New() Conf { return Conf{env: raw.New()} }

// Prefix nests p under c's prefix
func (c Conf) Prefix(p string) Conf { return Conf{env: c.env.Prefix(p)} }

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	v, ok := c.env.Lookup(key)
	if !ok {
		logger.Get().Panic().Str("key", c.env.Key(key)).Msg("missing required env")
	}
	return v
}

// MayString returns def when key is unset or blank
func (c Conf) MayString(key, def string) string { return c.env.Get(key, def) }

// MayInt parses a base 10 integer
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

// MayFloat64 parses a float
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool parses anything strconv.ParseBool accepts
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

// MayDuration parses a Go duration such as 250ms or 2h
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayLocale parses a BCP 47 tag such as zh-CN
func (c Conf) MayLocale(key string, def language.Tag) language.Tag {
	return may(c, key, def, language.Parse)
}

// MayCSV splits a comma separated list, dropping blank items
func (c Conf) MayCSV(key string, def []string) []string {
	v, ok := c.env.Lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	v, ok := c.env.Lookup(key)
	if !ok {
		return def
	}
	out, err := parse(v)
	if err != nil {
		logger.Get().Warn().Err(err).Str("key", c.env.Key(key)).Str("value", v).Msg("invalid env value, using default")
		return def
	}
	return out
}
