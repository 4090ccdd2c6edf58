// Package config reads service settings from prefixed environment variables.
// Malformed optional values log a warning and fall back to the default
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"timejar/internal/platform/config/raw"
	"timejar/internal/platform/logger"
)

// Conf is a namespaced view over the environment, e.g. "CORE_MERGE_" or "SERVICE_PGSQL_"
type Conf struct{ prefix string }

// New returns the unprefixed root
func New() Conf { return Conf{} }

// Prefix returns a child view, e.g. cfg.Prefix("CORE_EXPORT_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// may parses key with parse, or returns def when the key is unset or does not parse
func may[T any](c Conf, key string, def T, kind string, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().
			Str("key", c.key(key)).
			Str("value", s).
			Str("default", fmt.Sprint(def)).
			Msgf("invalid %s, using default", kind)
		return def
	}
	return v
}

// MayString returns the trimmed value or def
func (c Conf) MayString(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the integer value or def
func (c Conf) MayInt(key string, def int) int {
	return may(c, key, def, "int", strconv.Atoi)
}

// MayBool accepts the same spellings as the bootstrap reader (1, true, yes, on and their negations)
func (c Conf) MayBool(key string, def bool) bool {
	return may(c, key, def, "bool", func(s string) (bool, error) {
		v, ok := raw.ParseBool(s)
		if !ok {
			return false, strconv.ErrSyntax
		}
		return v, nil
	})
}

// MayDuration returns a time.ParseDuration value or def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, "duration", time.ParseDuration)
}

// MayLocation resolves an IANA zone name ("Local" and "UTC" included).
// An unknown zone panics rather than shifting every wall clock timestamp
func (c Conf) MayLocation(key string, def *time.Location) *time.Location {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		logger.Get().Panic().Err(err).Str("key", c.key(key)).Str("value", s).Msg("unknown time zone")
	}
	return loc
}

// MayCSV splits a comma separated value and drops blanks; def when nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for p := range strings.SplitSeq(c.lookup(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
