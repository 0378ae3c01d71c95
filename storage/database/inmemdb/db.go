// Package inmemdb provides in-memory repository implementations used by
// tests and local tooling. They enforce the same invariants as the
// Postgres repositories, including uniqueness of (student, date)
// attendance records.
package inmemdb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
)

type DB struct {
	mu      sync.RWMutex
	users   map[string]*user.User
	records map[string]*attendance.Record

	// BeforeCreateRecord, when set, runs right before an attendance insert
	// takes the table lock. Tests use it to interleave a competing writer
	// between a sheet's existence snapshot and its insert.
	BeforeCreateRecord func(rec attendance.Record)
}

func Open() (*DB, error) {
	return &DB{
		users:   make(map[string]*user.User),
		records: make(map[string]*attendance.Record),
	}, nil
}
