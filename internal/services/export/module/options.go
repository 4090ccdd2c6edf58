package module

import (
	"time"

	"timejar/internal/platform/config"
)

// Options holds configuration options for the export module
type Options struct {
	Dir string `validate:"required"`

	// Key is only needed by the RescueTime client
	Key        string
	BaseURL    string `validate:"omitempty,url"`
	Timeout    time.Duration
	MaxTries   int `validate:"gte=1,lte=20"`
	RetryBase  time.Duration
	WindowDays int `validate:"gte=1,lte=31"`
	Gzip       bool
}

// FromConfig reads the export options from config with CORE_EXPORT_ prefix
func FromConfig(cfg config.Conf) Options {
	e := cfg.Prefix("CORE_EXPORT_")
	return Options{
		Dir:        e.MayString("DIR", ""),
		Key:        e.MayString("KEY", ""),
		BaseURL:    e.MayString("BASE_URL", ""),
		Timeout:    e.MayDuration("TIMEOUT", 60*time.Second),
		MaxTries:   e.MayInt("MAX_TRIES", 5),
		RetryBase:  e.MayDuration("RETRY_BASE", 500*time.Millisecond),
		WindowDays: e.MayInt("WINDOW_DAYS", 30),
		Gzip:       e.MayBool("GZIP", false),
	}
}
