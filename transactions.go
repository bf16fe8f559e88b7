package grantkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// inTransaction runs fn inside a database transaction, handing it the
// transactional handle. When the service is already operating on a
// transaction, a savepoint is used. The replace strategy's delete-then-insert
// runs through here so no role-less gap is ever observable.
func (s *Service) inTransaction(ctx context.Context, fn func(db dbkit.IDB) error) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	case *dbkit.DBKit:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	default:
		err = NewError(ErrDatabase, "transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	s.txMonitor.record(time.Since(start), err == nil)
	return err
}

// Transaction executes fn within a database transaction with automatic
// commit/rollback. Operations performed through the service inside fn see
// the transactional state.
//
// Example:
//
//	err := service.Transaction(ctx, func(ctx context.Context, txs *grantkit.Service) error {
//	    if err := txs.Assign(ctx, user, org, "admin"); err != nil {
//	        return err // rollback
//	    }
//	    return txs.Assign(ctx, user, project, "editor") // commit when nil
//	})
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context, txs *Service) error) error {
	return s.inTransaction(ctx, func(db dbkit.IDB) error {
		return fn(ctx, s.withDB(db))
	})
}

// ReadOnlyTransaction executes fn within a read-only transaction, for
// multi-query reads that need a consistent snapshot.
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, txs *Service) error) error {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return NewError(ErrDatabase, "read-only transaction requires a dbkit.DBKit instance")
	}
	return db.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), func(tx *dbkit.Tx) error {
		return fn(ctx, s.withDB(tx))
	})
}

// withDB returns a shallow copy of the service bound to another database
// handle, sharing registry, cache, sink, and monitor state.
func (s *Service) withDB(db dbkit.IDB) *Service {
	clone := *s
	clone.db = db
	clone.planner = newPlanner(db)
	for typeTag, src := range s.planner.sources {
		clone.planner.register(typeTag, src)
	}
	return &clone
}
