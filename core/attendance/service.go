package attendance

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

// WarningThreshold is the attendance rate below which a student is
// flagged as not meeting requirements.
const WarningThreshold = 75.0

var (
	// errors
	ErrRecordNotFound = errors.New("attendance record not found")
	// ErrDuplicateRecord is the store's uniqueness backstop rejecting a
	// second record for the same (student, date) pair. It is expected
	// control flow, recovered by retrying as an update.
	ErrDuplicateRecord   = errors.New("attendance record already exists for this student and date")
	ErrStudentNotOnSheet = errors.New("student not on sheet")
)

type (
	// Repository is the only boundary to the attendance store. It executes
	// single reads and writes; all merging logic lives in the service.
	Repository interface {
		GetRecordsByStudent(ctx context.Context, studentID string) ([]Record, error)
		GetRecordsByDate(ctx context.Context, date Date) ([]Record, error)
		GetRecord(ctx context.Context, studentID string, date Date) (Record, error)
		// CreateRecord inserts a new record, assigning its ID. It returns
		// ErrDuplicateRecord when a record for (StudentID, Date) already
		// exists; the store is required to enforce that uniqueness.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		UpdateRecordStatus(ctx context.Context, id string, status Status) error
	}

	Service interface {
		// OpenSheet seeds a sheet for date from the student roster and the
		// date's existing records.
		OpenSheet(ctx context.Context, date Date) (*Sheet, error)
		// SaveSheet reconciles every marked draft into the store. Writes run
		// concurrently; the result reports per-student failures without
		// rolling back writes that succeeded.
		SaveSheet(ctx context.Context, sheet *Sheet) SaveResult
		// History returns a student's records, newest first.
		History(ctx context.Context, studentID string) ([]Record, error)
		// Rate computes a student's attendance summary.
		Rate(ctx context.Context, studentID string) (RateSummary, error)
	}

	service struct {
		repo   Repository
		usrSvc user.Service
		log    core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, log core.Logger) Service {
	return &service{
		repo:   repo,
		usrSvc: usrSvc,
		log:    log,
	}
}

// StudentError is one failed write in a batch save.
type StudentError struct {
	StudentID string
	Err       error
}

// SaveResult is the combined outcome of a batch save. Partial success is
// possible: records written before a sibling failure stay written.
type SaveResult struct {
	Saved  int
	Failed []StudentError
}

func (r SaveResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		msgs = append(msgs, f.StudentID+": "+f.Err.Error())
	}
	return errors.Errorf("saving attendance for %d student(s): %s", len(r.Failed), strings.Join(msgs, "; "))
}

func (svc *service) OpenSheet(ctx context.Context, date Date) (*Sheet, error) {
	roster, err := svc.usrSvc.ListStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching roster")
	}
	existing, err := svc.repo.GetRecordsByDate(ctx, date)
	if err != nil {
		return nil, errors.Wrap(err, "fetching records for date")
	}
	return NewSheet(date, roster, existing), nil
}

func (svc *service) SaveSheet(ctx context.Context, sheet *Sheet) SaveResult {
	marked := sheet.Marked()
	if len(marked) == 0 {
		return SaveResult{}
	}

	// all per-student writes are independent; run them concurrently and
	// wait for every one to settle
	errs := make([]error, len(marked))
	var wg sync.WaitGroup
	for i, draft := range marked {
		wg.Add(1)
		go func(i int, draft Draft) {
			defer wg.Done()
			errs[i] = svc.saveDraft(ctx, sheet.Date, draft)
		}(i, draft)
	}
	wg.Wait()

	var res SaveResult
	for i, err := range errs {
		if err != nil {
			svc.log.Error("saving attendance draft", err)
			res.Failed = append(res.Failed, StudentError{StudentID: marked[i].Student.ID, Err: err})
			continue
		}
		res.Saved++
	}
	return res
}

// saveDraft upserts one draft: update when a record id is known, insert
// otherwise. A duplicate-insert rejection means a concurrent writer got
// there first; the record is re-fetched and the write retried as an
// update, preserving the one-record-per-(student,date) invariant.
func (svc *service) saveDraft(ctx context.Context, date Date, draft Draft) error {
	if draft.recordID != "" {
		return svc.repo.UpdateRecordStatus(ctx, draft.recordID, draft.Status)
	}

	rec := Record{
		StudentID: draft.Student.ID,
		Date:      date,
		Status:    draft.Status,
		CreatedAt: time.Now().UTC(),
	}
	_, err := svc.repo.CreateRecord(ctx, rec)
	if errors.Cause(err) != ErrDuplicateRecord {
		return err
	}

	// benign conflict: somebody inserted this (student, date) since the
	// sheet was opened
	existing, err := svc.repo.GetRecord(ctx, draft.Student.ID, date)
	if err != nil {
		return errors.Wrap(err, "re-fetching conflicting record")
	}
	return svc.repo.UpdateRecordStatus(ctx, existing.ID, draft.Status)
}

func (svc *service) History(ctx context.Context, studentID string) ([]Record, error) {
	records, err := svc.repo.GetRecordsByStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching student records")
	}
	SortRecordsByDateDesc(records)
	return records, nil
}

// RateSummary is a student's computed attendance rate.
type RateSummary struct {
	Records    int     `json:"records"`
	Percentage float64 `json:"percentage"`
	// Warning flags a rate below WarningThreshold.
	Warning bool `json:"warning"`
}

func (svc *service) Rate(ctx context.Context, studentID string) (RateSummary, error) {
	records, err := svc.repo.GetRecordsByStudent(ctx, studentID)
	if err != nil {
		return RateSummary{}, errors.Wrap(err, "fetching student records")
	}
	pct := Percentage(records)
	return RateSummary{
		Records:    len(records),
		Percentage: pct,
		Warning:    pct < WarningThreshold,
	}, nil
}
