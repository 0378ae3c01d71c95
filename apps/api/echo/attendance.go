package echoapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
)

var msgInvalidDate = "invalid date, expected YYYY-MM-DD"

// sheetCache holds the open draft sheets, one per (teacher, date) editing
// session. Entries live until the sheet is saved or the session ends.
type sheetCache struct {
	mu     sync.Mutex
	sheets map[string]*attendance.Sheet
}

func newSheetCache() *sheetCache {
	return &sheetCache{sheets: make(map[string]*attendance.Sheet)}
}

func (c *sheetCache) key(teacherID string, date attendance.Date) string {
	return teacherID + "|" + date.String()
}

func (c *sheetCache) get(teacherID string, date attendance.Date) (*attendance.Sheet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sheet, ok := c.sheets[c.key(teacherID, date)]
	return sheet, ok
}

func (c *sheetCache) put(teacherID string, sheet *attendance.Sheet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sheets[c.key(teacherID, sheet.Date)] = sheet
}

func (c *sheetCache) drop(teacherID string, date attendance.Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sheets, c.key(teacherID, date))
}

func (c *sheetCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sheets = make(map[string]*attendance.Sheet)
}

type attendanceApi struct {
	svc      attendance.Service
	usrSvc   user.Service
	sheets   *sheetCache
	metrics  *metricsCollector
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	svc attendance.Service,
	usrSvc user.Service,
	sheets *sheetCache,
	metrics *metricsCollector,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:      svc,
		usrSvc:   usrSvc,
		sheets:   sheets,
		metrics:  metrics,
		validate: validate,
	}

	tg := g.Group("/teacher", gateMiddleware(user.RoleTeacher, usrSvc))
	tg.GET("/students", api.queryStudents)
	tg.GET("/students/:id/attendance", api.studentHistory)
	tg.GET("/attendance", api.openSheet)
	tg.POST("/attendance", api.saveSheet)

	sg := g.Group("/student", gateMiddleware(user.RoleStudent, usrSvc))
	sg.GET("/attendance", api.ownHistory)
	sg.GET("/attendance/rate", api.ownRate)
}

// Handlers

func (api *attendanceApi) queryStudents(ctx echo.Context) error {
	students, err := api.usrSvc.ListStudents(ctx.Request().Context())
	if err != nil {
		// fail-soft: render the (empty) roster and log the failure
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "listing students"))
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *attendanceApi) studentHistory(ctx echo.Context) error {
	student, err := api.usrSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}
	records, err := api.svc.History(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "fetching student history")
	}
	return ctx.JSON(http.StatusOK, records)
}

// openSheet returns the draft sheet for ?date (default: today, UTC), seeded
// from the roster and the date's saved records. Reopening the same date in
// the same session returns the cached draft with its unsaved marks intact.
func (api *attendanceApi) openSheet(ctx echo.Context) error {
	date, err := queryDate(ctx)
	if err != nil {
		return err
	}
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if sheet, ok := api.sheets.get(teacher.ID, date); ok {
		return ctx.JSON(http.StatusOK, sheet)
	}

	sheet, err := api.svc.OpenSheet(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "opening sheet")
	}
	api.sheets.put(teacher.ID, sheet)
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *attendanceApi) saveSheet(ctx echo.Context) error {
	var data SaveSheetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveSheetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	date, err := attendance.ParseDate(data.Date)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: msgInvalidDate})
	}
	teacher, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// the cached sheet is shared with concurrent requests for the same
	// (teacher, date); marks go on a private copy
	var sheet *attendance.Sheet
	if cached, ok := api.sheets.get(teacher.ID, date); ok {
		sheet = cached.Clone()
	} else if sheet, err = api.svc.OpenSheet(ctx.Request().Context(), date); err != nil {
		return errors.Wrap(err, "opening sheet")
	}

	if data.MarkAll != "" {
		sheet.MarkAll(attendance.Status(data.MarkAll))
	}
	for _, entry := range data.Entries {
		if err = sheet.Mark(entry.StudentID, attendance.Status(entry.Status)); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "entries", Error: err.Error()})
		}
	}

	res := api.svc.SaveSheet(ctx.Request().Context(), sheet)
	api.metrics.recordSheetSave(res.Saved, len(res.Failed))
	api.sheets.drop(teacher.ID, date)

	return ctx.JSON(http.StatusOK, newSaveSheetResponse(res))
}

func (api *attendanceApi) ownHistory(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	records, err := api.svc.History(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "fetching history")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) ownRate(ctx echo.Context) error {
	student, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	summary, err := api.svc.Rate(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "computing rate")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func queryDate(ctx echo.Context) (attendance.Date, error) {
	raw := ctx.QueryParam("date")
	if raw == "" {
		return attendance.DateOf(time.Now().UTC()), nil
	}
	date, err := attendance.ParseDate(raw)
	if err != nil {
		return attendance.Date{}, core.NewValidationError(nil, core.FieldError{Field: "date", Error: msgInvalidDate})
	}
	return date, nil
}

type (
	SheetEntry struct {
		StudentID string `json:"student_id" validate:"required"`
		Status    string `json:"status" validate:"required,oneof=present absent"`
	}

	SaveSheetRequest struct {
		Date    string       `json:"date" validate:"required"`
		MarkAll string       `json:"mark_all" validate:"omitempty,oneof=present absent"`
		Entries []SheetEntry `json:"entries" validate:"dive"`
	}

	FailedEntry struct {
		StudentID string `json:"student_id"`
		Error     string `json:"error"`
	}

	SaveSheetResponse struct {
		Saved  int           `json:"saved"`
		Failed []FailedEntry `json:"failed"`
	}
)

func (sr *SaveSheetRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(sr)
}

func newSaveSheetResponse(res attendance.SaveResult) SaveSheetResponse {
	out := SaveSheetResponse{Saved: res.Saved, Failed: []FailedEntry{}}
	for _, f := range res.Failed {
		out.Failed = append(out.Failed, FailedEntry{StudentID: f.StudentID, Error: f.Err.Error()})
	}
	return out
}
