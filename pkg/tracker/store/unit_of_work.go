package store

import (
	"context"

	"gorm.io/gorm"
)

// StepFunc is one mutation executed inside a unit of work.
type StepFunc func(tx *gorm.DB) error

// UnitOfWork is a single store transaction driven as a sequence of named
// steps. The first failing step rolls the transaction back and closes the
// unit; callers should defer Rollback, which is a no-op once closed.
type UnitOfWork struct {
	tx    *gorm.DB
	op    string
	steps []string
	done  bool
}

// Begin opens a transaction for op.
func (s *Store) Begin(ctx context.Context, op string) (*UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, newError(ErrQuery, op, tx.Error)
	}
	return &UnitOfWork{tx: tx, op: op}, nil
}

// Store returns a reader bound to the transaction. Its lookups see the
// unit's own writes and hold whatever row locks they take until the unit
// closes.
func (u *UnitOfWork) Store() *Store {
	return &Store{db: u.tx}
}

// Step runs fn inside the transaction.
func (u *UnitOfWork) Step(name string, fn StepFunc) error {
	if u.done {
		return newError(ErrStep, name, ErrUnitClosed)
	}
	if err := fn(u.tx); err != nil {
		u.Rollback()
		return newError(ErrStep, name, err)
	}
	u.steps = append(u.steps, name)
	return nil
}

// Commit commits the transaction and closes the unit.
func (u *UnitOfWork) Commit() error {
	if u.done {
		return newError(ErrCommit, u.op, ErrUnitClosed)
	}
	u.done = true
	if err := u.tx.Commit().Error; err != nil {
		return newError(ErrCommit, u.op, err)
	}
	return nil
}

// Rollback aborts the transaction unless the unit is already closed.
func (u *UnitOfWork) Rollback() {
	if u.done {
		return
	}
	u.done = true
	u.tx.Rollback()
}

// Steps returns the names of the steps that completed, in order.
func (u *UnitOfWork) Steps() []string {
	return append([]string(nil), u.steps...)
}
