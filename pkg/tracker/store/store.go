// Package store is the typed graph accessor layer over gorm. Reads return
// fully drained cursors; writes happen only inside a UnitOfWork.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Store wraps a gorm connection.
type Store struct {
	db *gorm.DB
}

// New creates a store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// collect runs q and scans every row into a T. Submission failures are
// query errors; anything that goes wrong while iterating is a cursor error.
func collect[T any](s *Store, op string, q *gorm.DB) ([]T, error) {
	rows, err := q.Rows()
	if err != nil {
		return nil, newError(ErrQuery, op, err)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		var item T
		if err := s.db.ScanRows(rows, &item); err != nil {
			return nil, newError(ErrCursor, op, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(ErrCursor, op, err)
	}
	return items, nil
}

// first loads a single record into dest. A missing record is reported as
// (false, nil).
func first(op string, q *gorm.DB, dest interface{}) (bool, error) {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, newError(ErrQuery, op, err)
	}
	return true, nil
}

func count(op string, q *gorm.DB) (int64, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, newError(ErrQuery, op, err)
	}
	return n, nil
}
