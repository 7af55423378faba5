package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/pipeline"
	"finboard/internal/transfer"
)

// Recorder receives service-level measurements. *metrics.Collector
// satisfies it.
type Recorder interface {
	cache.Observer
	ObserveCommand(command string, err error)
	ObserveImport(format string, rows int)
	SetTransactionCount(n int)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string)              {}
func (nopRecorder) CacheMiss(string)             {}
func (nopRecorder) ObserveCommand(string, error) {}
func (nopRecorder) ObserveImport(string, int)    {}
func (nopRecorder) SetTransactionCount(int)      {}

// Options configures a DashboardService.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Recorder  Recorder
	Logger    *log.Logger
	Now       func() time.Time
}

const viewCacheName = "views"

// DashboardService applies ledger commands and serves derived views, caching
// each view per ledger revision and filter.
type DashboardService struct {
	store    *ledger.Store
	views    *cache.LRUCache[pipeline.View]
	manager  *cache.Manager
	recorder Recorder
	logger   *log.Logger
	now      func() time.Time
}

func NewDashboardService(store *ledger.Store, opts Options) *DashboardService {
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	views := cache.NewLRUCache[pipeline.View](opts.CacheSize, opts.CacheTTL,
		cache.WithName(viewCacheName),
		cache.WithObserver(opts.Recorder))

	manager := cache.NewManager(opts.Logger)
	manager.Register(views)

	s := &DashboardService{
		store:    store,
		views:    views,
		manager:  manager,
		recorder: opts.Recorder,
		logger:   opts.Logger.WithComponent(log.ComponentDashboard),
		now:      opts.Now,
	}
	s.recorder.SetTransactionCount(len(store.Snapshot().Transactions))
	return s
}

// Start runs the view cache sweeper until ctx ends or Close is called.
func (s *DashboardService) Start(ctx context.Context) {
	s.manager.StartCleanup(ctx, time.Minute)
}

// Apply runs cmd and returns the view for spec after it.
func (s *DashboardService) Apply(ctx context.Context, cmd ledger.Command, spec pipeline.FilterSpec) (pipeline.View, ledger.Outcome, error) {
	out, err := s.store.Apply(ctx, cmd)
	s.recorder.ObserveCommand(cmd.Name(), err)
	if err != nil {
		if errors.Is(err, transfer.ErrInvalidImport) {
			s.logger.WarnContext(ctx, "Import rejected", log.FieldError, err)
		}
		return pipeline.View{}, ledger.Outcome{}, err
	}

	if imp, ok := cmd.(ledger.ImportFile); ok {
		s.recorder.ObserveImport(string(imp.Format), out.Affected)
	}
	if out.Affected > 0 {
		s.recorder.SetTransactionCount(len(s.store.Snapshot().Transactions))
	}

	return s.View(ctx, spec), out, nil
}

// View returns the derived view of the current ledger under spec.
func (s *DashboardService) View(ctx context.Context, spec pipeline.FilterSpec) pipeline.View {
	snap := s.store.Snapshot()
	key := strconv.FormatUint(snap.Revision, 10) + "|" + spec.Key()

	if v, ok := s.views.Get(key); ok {
		// Key folds query case and drops Ignored; echo the caller's spec.
		v.Filter = spec
		return v
	}

	v := pipeline.BuildView(snap.Transactions, snap.Budgets, snap.Theme, spec)
	s.views.Set(key, v)
	s.logger.DebugContext(ctx, "View built",
		log.FieldRevision, snap.Revision,
		log.FieldCount, v.Count)
	return v
}

// Find returns one transaction by ID.
func (s *DashboardService) Find(id string) (core.Transaction, error) {
	return s.store.Find(id)
}

// Export returns the export document of the current ledger.
func (s *DashboardService) Export() transfer.Document {
	return s.store.Export(s.now())
}

// Now is the service clock, used for demo seeding.
func (s *DashboardService) Now() time.Time {
	return s.now()
}

// SeedIfEmpty loads demo data into an empty ledger.
func (s *DashboardService) SeedIfEmpty(ctx context.Context) error {
	_, _, err := s.Apply(ctx, ledger.SeedDemo{Now: s.now()}, pipeline.FilterSpec{})
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	return nil
}

// Revision is the ledger revision, exposed for readiness checks.
func (s *DashboardService) Revision() uint64 {
	return s.store.Revision()
}

// Close stops the cache sweeper.
func (s *DashboardService) Close() error {
	s.manager.Stop()
	s.views.Purge()
	return nil
}
