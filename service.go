package grantkit

import (
	"context"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"github.com/fernandezvara/dbkit"
)

// Service is the assignment store: the single source of truth for which
// subject holds which role on which target. It validates roles through the
// registry, computes storage keys through the codec, consults the tenant
// guard on new assignments, routes queries through the cross-store planner,
// and keeps the cache layer coherent on every write.
//
// Error Handling:
// Database operations use dbkit's chainable error wrapping; engine-level
// failures come back as *Error values wrapping the sentinel errors in
// errors.go, so callers classify with errors.Is or the IsX helpers:
//
//	err := service.Assign(ctx, subject, target, "admin")
//	switch {
//	case grantkit.IsRoleNotFound(err):
//	    // unregistered role, a usage error
//	case grantkit.IsTenantIntegrityViolation(err):
//	    // cross-tenant pair, surface to the caller
//	}
type Service struct {
	db       dbkit.IDB
	registry *Registry

	strategy     Strategy
	multitenancy bool
	autoScope    bool

	guard     *tenantGuard
	cache     *Cache
	planner   *planner
	sink      EventSink
	log       logr.Logger
	txMonitor *txMonitor
}

// Option configures a Service.
type Option func(*Service)

// WithStrategy sets the assignment strategy. Default is replace.
func WithStrategy(strategy Strategy) Option {
	return func(s *Service) { s.strategy = strategy }
}

// WithCache attaches the cache layer. Without it every read goes to the
// store; results are identical either way.
func WithCache(cache *Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithEventSink attaches a domain event sink. Default discards events.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithLogger sets the logger. Default logs to stderr via stdr.
func WithLogger(l logr.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMultitenancy enables the tenant integrity guard. With autoScope the
// service resolves both sides' tenant contexts itself through the resolver;
// without it callers pass WithTenant per assignment.
func WithMultitenancy(resolver TenantResolver, autoScope bool) Option {
	return func(s *Service) {
		s.multitenancy = true
		s.autoScope = autoScope
		s.guard = newTenantGuard(resolver)
	}
}

// WithEntitySource registers where entities of a type tag live, for the
// query planner's listing operations.
func WithEntitySource(typeTag string, src EntitySource) Option {
	return func(s *Service) { s.planner.register(typeTag, src) }
}

// NewService creates a new GrantKit service.
//
// Example:
//
//	registry, _ := grantkit.NewRegistry(codec, roles...)
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := grantkit.NewService(registry, db,
//	    grantkit.WithStrategy(grantkit.StrategyAdd),
//	    grantkit.WithCache(grantkit.NewCache(redisClient, cfg.TTLs())),
//	)
func NewService(registry *Registry, db dbkit.IDB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		registry:  registry,
		strategy:  StrategyReplace,
		planner:   newPlanner(db),
		sink:      NopSink{},
		log:       stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("grantkit"),
		txMonitor: newTxMonitor(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache.setLogger(s.log)
	return s
}

// Registry returns the role registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Strategy returns the active assignment strategy.
func (s *Service) Strategy() Strategy {
	return s.strategy
}

// WriteMetrics returns statistics for the transactional write path.
func (s *Service) WriteMetrics() WriteMetrics {
	return s.txMonitor.metrics()
}

// ResetWriteMetrics resets the write path statistics.
func (s *Service) ResetWriteMetrics() {
	s.txMonitor.reset()
}

// publish hands an event to the sink. Sink failures never fail the mutation
// that produced the event.
func (s *Service) publish(ctx context.Context, event Event) {
	if err := s.sink.Publish(ctx, event); err != nil {
		s.log.Error(err, "event publish failed", "kind", string(event.Kind),
			"subject", event.Subject.String(), "target", event.Target.String())
	}
}
