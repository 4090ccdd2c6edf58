// Package raw reads environment variables during bootstrap.
// The logger reads its own settings through it, so it must not import the logger or config
package raw

import (
	"os"
	"slices"
	"strconv"
	"strings"
)

// Conf is a prefixed view over the environment, e.g. "LOG_"
type Conf struct{ prefix string }

// New returns the unprefixed root
func New() Conf { return Conf{} }

// Prefix returns a child view with p appended to the prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.prefix + key)) }

// Get returns the trimmed value or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// ParseBool accepts 1/0, true/false, yes/no and on/off in any case
func ParseBool(s string) (v, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// GetBool reads a flag through ParseBool; anything unrecognized yields def
func (c Conf) GetBool(key string, def bool) bool {
	if v, ok := ParseBool(c.lookup(key)); ok {
		return v
	}
	return def
}

// GetInt parses a non negative integer; anything else yields def
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.Atoi(c.lookup(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// GetEnum returns the lower cased value when it is one of allowed, else def
func (c Conf) GetEnum(key, def string, allowed ...string) string {
	v := strings.ToLower(c.lookup(key))
	if slices.Contains(allowed, v) {
		return v
	}
	return def
}
