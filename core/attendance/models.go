package attendance

import (
	"database/sql/driver"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/user"
)

// Status of one student on one date.
type Status string

const (
	// StatusUnmarked is the zero value: no mark has been made yet.
	// It is never persisted.
	StatusUnmarked Status = ""
	StatusPresent  Status = "present"
	StatusAbsent   Status = "absent"
)

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

const dateLayout = "2006-01-02"

// Date is a calendar date with no time component, normalized to UTC midnight.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, errors.Wrapf(err, "parsing date %q", s)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) { return d.Time, nil }

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return errors.Errorf("cannot scan %T into Date", src)
}

// Record is one student's persisted attendance for one date.
// At most one Record exists per (StudentID, Date) pair; after creation
// only its Status is ever mutated.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Date      Date      `json:"date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// SortRecordsByDateDesc orders records newest first, the way histories
// are presented.
func SortRecordsByDateDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[j].Date.Before(records[i].Date.Time)
	})
}

// Percentage computes the present-ratio of records in [0, 100].
// An empty record set is 0, not an error.
func Percentage(records []Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var present int
	for _, rec := range records {
		if rec.Status == StatusPresent {
			present++
		}
	}
	return 100 * float64(present) / float64(len(records))
}

// Draft is one student's unsaved mark on a sheet.
type Draft struct {
	Student           user.User `json:"student"`
	Status            Status    `json:"status"`
	HadExistingRecord bool      `json:"had_existing_record"`

	recordID string // id of the persisted record, when one exists
}

// Sheet is the in-memory staging area for one date's marks, owned by a
// single editing session. It is reconciled into Records on save and
// discarded afterwards; it is never persisted itself.
type Sheet struct {
	Date   Date    `json:"date"`
	Drafts []Draft `json:"drafts"`
}

// NewSheet seeds a sheet from the roster, prefilled from the existing
// records snapshot for that date.
func NewSheet(date Date, roster []user.User, existing []Record) *Sheet {
	byStudent := make(map[string]Record, len(existing))
	for _, rec := range existing {
		byStudent[rec.StudentID] = rec
	}

	drafts := make([]Draft, 0, len(roster))
	for _, student := range roster {
		draft := Draft{Student: student}
		if rec, ok := byStudent[student.ID]; ok {
			draft.Status = rec.Status
			draft.HadExistingRecord = true
			draft.recordID = rec.ID
		}
		drafts = append(drafts, draft)
	}
	return &Sheet{Date: date, Drafts: drafts}
}

// Clone returns an independent copy of the sheet. Marks applied to the
// copy never show on the original.
func (s *Sheet) Clone() *Sheet {
	drafts := make([]Draft, len(s.Drafts))
	copy(drafts, s.Drafts)
	return &Sheet{Date: s.Date, Drafts: drafts}
}

// Mark sets the draft status for one student. In-memory only.
func (s *Sheet) Mark(studentID string, status Status) error {
	for i := range s.Drafts {
		if s.Drafts[i].Student.ID == studentID {
			s.Drafts[i].Status = status
			return nil
		}
	}
	return ErrStudentNotOnSheet
}

// MarkAll bulk-sets every draft to status. In-memory only; no store I/O
// happens until an explicit save.
func (s *Sheet) MarkAll(status Status) {
	for i := range s.Drafts {
		s.Drafts[i].Status = status
	}
}

// Marked returns the drafts a save operation covers: every entry whose
// status is not unmarked. Unmarked entries are never written and do not
// clear prior records.
func (s *Sheet) Marked() []Draft {
	marked := make([]Draft, 0, len(s.Drafts))
	for _, d := range s.Drafts {
		if d.Status != StatusUnmarked {
			marked = append(marked, d)
		}
	}
	return marked
}
