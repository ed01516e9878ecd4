// Package raw reads prefixed environment variables and never logs
// logger builds its options on it, so it must not import logger
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Env is a prefixed view of the process environment
type Env struct{ prefix string }

// New is the unprefixed view
func New() Env { return Env{} }

// Prefix nests p under the current prefix
func (e Env) Prefix(p string) Env { return Env{prefix: e.prefix + p} }

// Key is the full variable name for k
func (e Env) Key(k string) string { return e.prefix + k }

// Lookup returns the trimmed value, ok is false when it is unset or blank
func (e Env) Lookup(k string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(e.Key(k)))
	return v, v != ""
}

// Get is Lookup with a fallback
func (e Env) Get(k, def string) string {
	if v, ok := e.Lookup(k); ok {
		return v
	}
	return def
}

// Bool accepts anything strconv.ParseBool does, plus yes and no
func (e Env) Bool(k string, def bool) bool {
	v, ok := e.Lookup(k)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "yes", "y", "on":
		return true
	case "no", "n", "off":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
