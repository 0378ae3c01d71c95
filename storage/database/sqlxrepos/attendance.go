package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

// uniqueViolation is the psql error code raised by the
// attendance_student_date_key constraint.
const uniqueViolation = "23505"

type dbRecord struct {
	ID        string          `db:"id"`
	StudentID string          `db:"student_id"`
	Date      attendance.Date `db:"date"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r dbRecord) domain() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		Date:      r.Date,
		Status:    attendance.Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

func domainRecords(rows []dbRecord) []attendance.Record {
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.domain())
	}
	return records
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) GetRecordsByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	var rows []dbRecord
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM attendance WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "getting records by student")
	}
	return domainRecords(rows), nil
}

func (repo *attendanceRepository) GetRecordsByDate(ctx context.Context, date attendance.Date) ([]attendance.Record, error) {
	var rows []dbRecord
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM attendance WHERE date = $1`, date)
	if err != nil {
		return nil, errors.Wrap(err, "getting records by date")
	}
	return domainRecords(rows), nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, studentID string, date attendance.Date) (attendance.Record, error) {
	var row dbRecord
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM attendance WHERE student_id = $1 AND date = $2`, studentID, date)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting record")
	}
	return row.domain(), nil
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO attendance (id, student_id, date, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.StudentID, rec.Date, string(rec.Status), rec.CreatedAt.UTC(),
	)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return attendance.Record{}, attendance.ErrDuplicateRecord
		}
		return attendance.Record{}, errors.Wrap(err, "inserting record")
	}
	return rec, nil
}

func (repo *attendanceRepository) UpdateRecordStatus(ctx context.Context, id string, status attendance.Status) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE attendance SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return errors.Wrap(err, "updating record status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}
