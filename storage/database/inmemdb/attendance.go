package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) GetRecordsByStudent(_ context.Context, studentID string) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.records {
		if rec.StudentID == studentID {
			records = append(records, *rec)
		}
	}
	return records, nil
}

func (repo *attendanceRepository) GetRecordsByDate(_ context.Context, date attendance.Date) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.records {
		if rec.Date.Equal(date) {
			records = append(records, *rec)
		}
	}
	return records, nil
}

func (repo *attendanceRepository) GetRecord(_ context.Context, studentID string, date attendance.Date) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, rec := range repo.db.records {
		if rec.StudentID == studentID && rec.Date.Equal(date) {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	if hook := repo.db.BeforeCreateRecord; hook != nil {
		hook(rec)
	}

	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// uniqueness backstop on the (student, date) natural key
	for _, existing := range repo.db.records {
		if existing.StudentID == rec.StudentID && existing.Date.Equal(rec.Date) {
			return attendance.Record{}, attendance.ErrDuplicateRecord
		}
	}

	rec.ID = uuid.New().String()
	repo.db.records[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) UpdateRecordStatus(_ context.Context, id string, status attendance.Status) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec, ok := repo.db.records[id]
	if !ok {
		return attendance.ErrRecordNotFound
	}
	rec.Status = status
	return nil
}
