package module

import (
	"time"

	"timejar/internal/platform/config"
)

// Options holds configuration options for the merge module
type Options struct {
	// Zone the naive snapshot timestamps are read in
	Location     *time.Location `validate:"required"`
	StrictDecode bool

	Workers       int   `validate:"gte=0,lte=64"`
	BatchSize     int   `validate:"gte=1,lte=100000"`
	ProgressEvery int   `validate:"gte=1"`
	MaxBytes      int64 `validate:"gte=0"`

	SinkRetries int `validate:"gte=1,lte=20"`
	RetryBase   time.Duration

	RunTimeout    time.Duration
	LoadTimeout   time.Duration
	SinkTimeout   time.Duration
	LedgerTimeout time.Duration

	// Sinks; all off by default so a merge can just count and report
	SinkPG    bool
	SinkCH    bool
	SinkKafka bool

	EnsureSchema bool
	Ledger       bool
	EnableLeases bool
	LeaseTTL     time.Duration `validate:"required_if=EnableLeases true"`
}

// FromConfig reads the merge options from config with CORE_MERGE_ prefix
func FromConfig(cfg config.Conf) Options {
	m := cfg.Prefix("CORE_MERGE_")
	return Options{
		Location:      m.MayLocation("TIMEZONE", time.Local),
		StrictDecode:  m.MayBool("STRICT_DECODE", true),
		Workers:       m.MayInt("WORKERS", 0),
		BatchSize:     m.MayInt("BATCH", 1000),
		ProgressEvery: m.MayInt("PROGRESS_EVERY", 10000),
		MaxBytes:      int64(m.MayInt("MAX_BYTES", 0)),
		SinkRetries:   m.MayInt("SINK_RETRIES", 3),
		RetryBase:     m.MayDuration("RETRY_BASE", 250*time.Millisecond),
		RunTimeout:    m.MayDuration("RUN_TIMEOUT", 0),
		LoadTimeout:   m.MayDuration("LOAD_TIMEOUT", 2*time.Minute),
		SinkTimeout:   m.MayDuration("SINK_TIMEOUT", 30*time.Second),
		LedgerTimeout: m.MayDuration("LEDGER_TIMEOUT", 5*time.Second),
		SinkPG:        m.MayBool("SINK_PG", false),
		SinkCH:        m.MayBool("SINK_CH", false),
		SinkKafka:     m.MayBool("SINK_KAFKA", false),
		EnsureSchema:  m.MayBool("ENSURE_SCHEMA", true),
		Ledger:        m.MayBool("LEDGER", true),
		EnableLeases:  m.MayBool("LEASES", true),
		LeaseTTL:      m.MayDuration("LEASE_TTL", time.Hour),
	}
}
