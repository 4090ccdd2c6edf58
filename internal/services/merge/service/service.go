// Package service provides the merge service implementation
package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"timejar/internal/core/dal"
	"timejar/internal/modkit/repokit"
	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/logger"
	"timejar/internal/services/merge/domain"
	"timejar/internal/services/merge/guardrails"
)

const (
	defaultBatchSize     = 1000
	defaultProgressEvery = 10000
	defaultSinkRetries   = 3
	defaultRetryBase     = 250 * time.Millisecond
)

// Config holds configuration options for the merge service
type Config struct {
	// Decoding
	Location     *time.Location // nil -> time.Local
	StrictDecode bool

	// Concurrent loads; <=0 loads lazily on the consuming goroutine
	Workers int

	// Entries per sink batch; <=0 -> 1000
	BatchSize int

	// Progress log cadence in entries; <=0 -> 10000
	ProgressEvery int

	// Per-batch sink retry; <=0 -> 3 attempts starting at 250ms
	SinkRetries int
	RetryBase   time.Duration

	// Timeouts applied via guardrails
	Timeouts guardrails.Timeouts
}

// Service implements domain.RunnerPort
type Service struct {
	Load  dal.LoadFunc
	Sinks []domain.Sink
	Cfg   Config

	// Optional run ledger; used when DB is non nil
	DB     repokit.TxRunner
	Ledger repokit.Binder[domain.LedgerRepo]

	// Optional lease so two merges never write the same database at once
	Lease guardrails.Lease

	metrics *Metrics
	newID   func() string
	now     func() time.Time
}

// New constructs the merge service
func New(load dal.LoadFunc, sinks []domain.Sink, cfg Config, m *Metrics) *Service {
	if load == nil {
		panic("merge.Service requires a non nil LoadFunc")
	}
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Service{
		Load:    load,
		Sinks:   sinks,
		Cfg:     cfg,
		metrics: m,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// WithLedger records every run in merge_runs
func (s *Service) WithLedger(db repokit.TxRunner, b repokit.Binder[domain.LedgerRepo]) *Service {
	s.DB, s.Ledger = db, b
	return s
}

// WithLease guards every run with l
func (s *Service) WithLease(l guardrails.Lease) *Service {
	s.Lease = l
	return s
}

// Run implements domain.RunnerPort. Recoverable pipeline errors are counted and logged;
// the returned error is the fatal one, if any
func (s *Service) Run(ctx context.Context, sources []dal.Source) (domain.Summary, error) {
	runID := s.newID()
	ctx = logger.WithRun(ctx, runID)

	var sum domain.Summary
	body := func(ctx context.Context) error {
		sum = s.run(ctx, runID, sources)
		return sum.Fatal
	}
	if s.Lease == nil {
		err := body(ctx)
		return sum, err
	}
	err := s.Lease(ctx, body)
	if errors.Is(err, guardrails.ErrLeaseHeld) {
		logger.C(ctx).Warn().Msg("merge: another run holds the lease, skipping")
		sum.RunID = runID
		sum.Fatal = err
	}
	return sum, err
}

// RecentRuns implements domain.HistoryPort
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if s.DB == nil || s.Ledger == nil {
		return nil, perr.Unavailablef("merge: run ledger is disabled")
	}
	return s.Ledger.Bind(s.DB).RecentRuns(ctx, limit)
}

func (s *Service) run(ctx context.Context, runID string, sources []dal.Source) domain.Summary {
	log := logger.C(ctx)
	tos := s.Cfg.Timeouts
	ctx, cancel := guardrails.WithRun(ctx, tos)
	defer cancel()

	sum := domain.Summary{
		RunID:   runID,
		Sources: len(sources),
		Written: map[string]int{},
		Started: s.now(),
	}
	s.startLedger(ctx, sum, sources)

	log.Info().
		Int("sources", len(sources)).
		Bool("strict", s.Cfg.StrictDecode).
		Int("workers", s.Cfg.Workers).
		Int("sinks", len(s.Sinks)).
		Msg("merge: run started")

	p := dal.New(sources, s.boundLoad(ctx),
		dal.WithPool(s.pool()),
		dal.WithLocation(s.Cfg.Location),
		dal.WithStrictDecode(s.Cfg.StrictDecode),
		dal.WithObserver(dal.ObserverFunc(func(st dal.SourceStats) {
			sum.Duplicates += st.Duplicates
			s.metrics.SourceDone(st)
			log.Info().
				Str("source", st.Source.Path).
				Int("rows", st.Rows).
				Int("filtered", st.Filtered()).
				Int("order_errors", st.OrderErrors).
				Int("grand_total", st.GrandTotal).
				Msg("merge: source merged")
		})),
	)

	progress := s.Cfg.ProgressEvery
	if progress <= 0 {
		progress = defaultProgressEvery
	}
	b := newBatcher(runID, s.Cfg.BatchSize, func(batch domain.Batch) error {
		return s.writeAll(ctx, batch, sum.Written)
	})

	for r := range p.Entries() {
		s.metrics.result(r.Kind())
		switch r.Kind() {
		case dal.KindOK:
			e, _ := r.Value()
			sum.Entries++
			if sum.Entries%progress == 0 {
				log.Info().Int("entries", sum.Entries).Msg("merge: progress")
			}
			if err := b.add(r.Source(), e); err != nil {
				sum.Fatal = err
			}
		case dal.KindLoadError:
			sum.LoadErrors++
			log.Error().Err(r.Err()).Str("source", r.Source().Path).Msg("merge: snapshot skipped")
		case dal.KindOrderError:
			sum.OrderErrors++
			log.Warn().Err(r.Err()).Str("source", r.Source().Path).Msg("merge: row out of order")
		case dal.KindDecodeError:
			sum.DecodeErrors++
			log.Warn().Err(r.Err()).Str("source", r.Source().Path).Msg("merge: row not decodable")
		case dal.KindFatal:
			sum.Fatal = r.Err()
		}
		if sum.Fatal == nil && ctx.Err() != nil {
			sum.Fatal = ctx.Err()
		}
		if sum.Fatal != nil {
			break
		}
	}
	if sum.Fatal == nil {
		sum.Fatal = b.flush()
	}

	sum.Elapsed = s.now().Sub(sum.Started)
	s.finishLedger(ctx, sum)
	s.metrics.runDone(sum.Status(), sum.Elapsed, sum.Fatal != nil, s.now())

	evt := log.Info()
	if sum.Fatal != nil {
		evt = log.Error().Err(sum.Fatal)
	}
	evt.Int("entries", sum.Entries).
		Int("load_errors", sum.LoadErrors).
		Int("order_errors", sum.OrderErrors).
		Int("decode_errors", sum.DecodeErrors).
		Int("duplicates", sum.Duplicates).
		Dur("elapsed", sum.Elapsed).
		Str("status", sum.Status()).
		Msg("merge: run finished")
	return sum
}

func (s *Service) pool() dal.Pool {
	if s.Cfg.Workers > 0 {
		return dal.NewBoundedPool(s.Cfg.Workers)
	}
	return dal.SyncPool{}
}

// boundLoad applies the per-load timeout to the injected LoadFunc
func (s *Service) boundLoad(ctx context.Context) dal.LoadFunc {
	load := s.Load
	tos := s.Cfg.Timeouts
	return func(src dal.Source) (dal.Document, error) {
		lctx, cancel := guardrails.ForLoad(ctx, tos)
		defer cancel()
		doc, err := guardrails.Bound(lctx, func() (dal.Document, error) { return load(src) })
		if err != nil && lctx.Err() != nil && errors.Is(err, lctx.Err()) {
			return doc, perr.Wrapf(err, perr.ErrorCodeUnavailable, "load %s", src.Path)
		}
		return doc, err
	}
}

// writeAll hands the batch to every sink in order; the first failure ends the run
func (s *Service) writeAll(ctx context.Context, b domain.Batch, written map[string]int) error {
	for _, sink := range s.Sinks {
		n, err := s.writeOne(ctx, sink, b)
		if err != nil {
			return perr.WithOp(err, "sink "+sink.Name())
		}
		written[sink.Name()] += n
	}
	return nil
}

// writeOne retries retryable sink failures with exponential backoff
func (s *Service) writeOne(ctx context.Context, sink domain.Sink, b domain.Batch) (int, error) {
	attempts := s.Cfg.SinkRetries
	if attempts <= 0 {
		attempts = defaultSinkRetries
	}
	base := s.Cfg.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = base
	eb.MaxInterval = 10 * time.Second
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	log := logger.C(logger.WithSource(ctx, b.Source.Path))
	var n int
	op := func() error {
		sctx, cancel := guardrails.ForSink(ctx, s.Cfg.Timeouts)
		defer cancel()
		t0 := time.Now()
		w, err := sink.Write(sctx, b)
		s.metrics.sinkWrite(sink.Name(), w, time.Since(t0), err)
		if err == nil {
			n = w
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if !perr.Retryable(err) {
			return backoff.Permanent(err)
		}
		log.Warn().Err(err).Str("sink", sink.Name()).Int("entries", b.Len()).Msg("merge: sink write failed, retrying")
		return err
	}
	err := backoff.Retry(op, policy)
	return n, err
}

func (s *Service) startLedger(ctx context.Context, sum domain.Summary, sources []dal.Source) {
	if s.DB == nil || s.Ledger == nil {
		return
	}
	rs := domain.RunStart{
		RunID:   sum.RunID,
		Sources: len(sources),
		Strict:  s.Cfg.StrictDecode,
		Started: sum.Started,
	}
	if len(sources) > 0 {
		rs.First, rs.Last = sources[0].Path, sources[len(sources)-1].Path
	}
	lctx, cancel := guardrails.ForLedger(ctx, s.Cfg.Timeouts)
	defer cancel()
	// best effort; the ledger never blocks a merge
	if err := repokit.InTx(lctx, s.DB, s.Ledger, func(r domain.LedgerRepo) error {
		return r.StartRun(lctx, rs)
	}); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("merge: ledger start failed")
	}
}

func (s *Service) finishLedger(ctx context.Context, sum domain.Summary) {
	if s.DB == nil || s.Ledger == nil {
		return
	}
	// a canceled run still gets its ledger row closed
	lctx, cancel := guardrails.ForLedger(context.WithoutCancel(ctx), s.Cfg.Timeouts)
	defer cancel()
	if err := repokit.InTx(lctx, s.DB, s.Ledger, func(r domain.LedgerRepo) error {
		return r.FinishRun(lctx, sum)
	}); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("merge: ledger finish failed")
	}
}
