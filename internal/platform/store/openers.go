package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"timejar/internal/core/version"
	perr "timejar/internal/platform/errors"
	chx "timejar/internal/platform/store/ch"
	"timejar/internal/platform/store/pg"
)

const (
	defaultConnectRetries = 6
	defaultPingTimeout    = 3 * time.Second
	backoffStart          = 150 * time.Millisecond
	backoffCeiling        = 2 * time.Second
)

// pgTracer composes the SQL log and latency tracers the config and options ask for
func pgTracer(cfg PGConfig, s *Store) pg.QueryTracer {
	var logT, metT pg.QueryTracer
	if cfg.LogSQL {
		logT = pg.LogTracer(s.Log)
	}
	if s.metrics != nil {
		metT = pg.MetricsTracer(s.metrics)
	}
	return pg.Tracers(logT, metT)
}

// openPG builds the pool, waits for the server, then wraps it in the sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		Slow:     cfg.PG.Slow,
		AppName:  cfg.AppName,
	}, pgTracer(cfg.PG, s), nil)
	if err != nil {
		return nil, err
	}

	// ping the pool directly so the boot loop does not show up in SQL traces
	attempts := 0
	ping := func() error {
		attempts++
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout(cfg.PG))
		defer cancel()
		if err := p.Pool.Ping(toCtx); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			s.Log.Warn().Err(err).Int("attempt", attempts).Msg("store: postgres not ready")
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(connectPolicy(cfg.PG), ctx)); err != nil {
		p.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", attempts)
	}

	return newPGAdapter(p), nil
}

func connectPolicy(c PGConfig) backoff.BackOff {
	retries := c.ConnectRetries
	if retries <= 0 {
		retries = defaultConnectRetries
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = backoffStart
	eb.MaxInterval = backoffCeiling
	eb.MaxElapsedTime = 0
	return backoff.WithMaxRetries(eb, uint64(retries))
}

func pingTimeout(c PGConfig) time.Duration {
	if c.PingTimeout > 0 {
		return c.PingTimeout
	}
	return defaultPingTimeout
}

func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:          cfg.CH.URL,
		MaxOpenConns: cfg.CH.MaxOpenConns,
		Role:         cfg.CH.Role,
		Build:        version.Info(cfg.AppName),
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
