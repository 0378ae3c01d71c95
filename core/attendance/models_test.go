package attendance

import (
	"testing"
	"time"

	"github.com/trezcool/mahudhurio/core/user"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Date
		wantErr bool
	}{
		{name: "valid", in: "2021-09-06", want: NewDate(2021, time.September, 6)},
		{name: "single digit day", in: "2021-09-6", wantErr: true},
		{name: "time component", in: "2021-09-06T10:00:00Z", wantErr: true},
		{name: "garbage", in: "lol", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) failed: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateOf_truncatesToMidnightUTC(t *testing.T) {
	in := time.Date(2021, time.September, 6, 23, 59, 59, 0, time.FixedZone("EAT", 3*3600))
	got := DateOf(in)
	want := NewDate(2021, time.September, 6)
	if !got.Equal(want) {
		t.Errorf("DateOf() = %v, want %v", got, want)
	}
}

func TestPercentage(t *testing.T) {
	recs := func(statuses ...Status) []Record {
		records := make([]Record, 0, len(statuses))
		for _, s := range statuses {
			records = append(records, Record{Status: s})
		}
		return records
	}

	tests := []struct {
		name    string
		records []Record
		want    float64
	}{
		{name: "no records", records: nil, want: 0},
		{name: "all present", records: recs(StatusPresent, StatusPresent), want: 100},
		{name: "all absent", records: recs(StatusAbsent, StatusAbsent), want: 0},
		{name: "three of four", records: recs(StatusPresent, StatusPresent, StatusPresent, StatusAbsent), want: 75},
		{name: "half", records: recs(StatusPresent, StatusAbsent), want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.records); got != tt.want {
				t.Errorf("Percentage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortRecordsByDateDesc(t *testing.T) {
	d1 := NewDate(2021, time.September, 6)
	d2 := NewDate(2021, time.September, 7)
	d3 := NewDate(2021, time.September, 8)

	records := []Record{{Date: d1}, {Date: d3}, {Date: d2}}
	SortRecordsByDateDesc(records)

	want := []Date{d3, d2, d1}
	for i, rec := range records {
		if !rec.Date.Equal(want[i]) {
			t.Errorf("records[%d].Date = %v, want %v", i, rec.Date, want[i])
		}
	}
}

func TestNewSheet(t *testing.T) {
	date := NewDate(2021, time.September, 6)
	roster := []user.User{
		{ID: "s1", Name: "Amani"},
		{ID: "s2", Name: "Baraka"},
		{ID: "s3", Name: "Chiku"},
	}
	existing := []Record{
		{ID: "r2", StudentID: "s2", Date: date, Status: StatusAbsent},
	}

	sheet := NewSheet(date, roster, existing)

	if len(sheet.Drafts) != len(roster) {
		t.Fatalf("len(Drafts) = %d, want %d", len(sheet.Drafts), len(roster))
	}
	for _, draft := range sheet.Drafts {
		switch draft.Student.ID {
		case "s2":
			if draft.Status != StatusAbsent {
				t.Errorf("s2 Status = %q, want %q", draft.Status, StatusAbsent)
			}
			if !draft.HadExistingRecord {
				t.Error("s2 HadExistingRecord = false, want true")
			}
			if draft.recordID != "r2" {
				t.Errorf("s2 recordID = %q, want %q", draft.recordID, "r2")
			}
		default:
			if draft.Status != StatusUnmarked {
				t.Errorf("%s Status = %q, want unmarked", draft.Student.ID, draft.Status)
			}
			if draft.HadExistingRecord {
				t.Errorf("%s HadExistingRecord = true, want false", draft.Student.ID)
			}
		}
	}
}

func TestSheet_Mark(t *testing.T) {
	date := NewDate(2021, time.September, 6)
	sheet := NewSheet(date, []user.User{{ID: "s1"}}, nil)

	if err := sheet.Mark("s1", StatusPresent); err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}
	if got := sheet.Drafts[0].Status; got != StatusPresent {
		t.Errorf("Status = %q, want %q", got, StatusPresent)
	}

	if err := sheet.Mark("nobody", StatusPresent); err != ErrStudentNotOnSheet {
		t.Errorf("Mark() error = %v, want %v", err, ErrStudentNotOnSheet)
	}
}

func TestSheet_MarkedSkipsUnmarked(t *testing.T) {
	date := NewDate(2021, time.September, 6)
	sheet := NewSheet(date, []user.User{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}, nil)

	_ = sheet.Mark("s1", StatusPresent)
	_ = sheet.Mark("s3", StatusAbsent)

	marked := sheet.Marked()
	if len(marked) != 2 {
		t.Fatalf("len(Marked()) = %d, want 2", len(marked))
	}
	for _, draft := range marked {
		if draft.Student.ID == "s2" {
			t.Error("unmarked draft s2 included in Marked()")
		}
	}
}

func TestSheet_MarkAll(t *testing.T) {
	date := NewDate(2021, time.September, 6)
	sheet := NewSheet(date, []user.User{{ID: "s1"}, {ID: "s2"}}, nil)

	sheet.MarkAll(StatusPresent)

	for _, draft := range sheet.Drafts {
		if draft.Status != StatusPresent {
			t.Errorf("%s Status = %q, want %q", draft.Student.ID, draft.Status, StatusPresent)
		}
	}
	if len(sheet.Marked()) != 2 {
		t.Errorf("len(Marked()) = %d, want 2", len(sheet.Marked()))
	}
}

func TestSheet_Clone(t *testing.T) {
	date := NewDate(2021, time.September, 6)
	sheet := NewSheet(date, []user.User{{ID: "s1"}, {ID: "s2"}}, []Record{
		{ID: "r1", StudentID: "s1", Date: date, Status: StatusPresent},
	})

	clone := sheet.Clone()
	clone.MarkAll(StatusAbsent)
	if err := clone.Mark("s2", StatusPresent); err != nil {
		t.Fatalf("Mark() failed, %v", err)
	}

	// the original keeps its seeded state
	if got := sheet.Drafts[0].Status; got != StatusPresent {
		t.Errorf("original s1 Status = %q, want %q", got, StatusPresent)
	}
	if got := sheet.Drafts[1].Status; got != StatusUnmarked {
		t.Errorf("original s2 Status = %q, want %q", got, StatusUnmarked)
	}

	// the copy carries the seeded record IDs so saves still update in place
	if got := clone.Drafts[0].recordID; got != "r1" {
		t.Errorf("clone s1 recordID = %q, want %q", got, "r1")
	}
	if got := clone.Drafts[0].Status; got != StatusAbsent {
		t.Errorf("clone s1 Status = %q, want %q", got, StatusAbsent)
	}
}
