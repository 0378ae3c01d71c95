package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
)

// translator renders struct validation errors; set once on server construction.
var translator ut.Translator

type (
	ServerDeps struct {
		Addr           string
		DisableReqLogs bool
		Logger         core.Logger
		UserSvc        user.Service
		AttendanceSvc  attendance.Service
		Hub            *session.Hub
		Registry       *prometheus.Registry
		Validate       *validator.Validate
		Translator     ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		gate     *session.Gate
		stopGate func()
		sheets   *sheetCache
		metrics  *metricsCollector
		shutdown chan os.Signal
		errs     chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	translator = deps.Translator

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		gate:     session.NewGate(deps.Hub),
		sheets:   newSheetCache(),
		metrics:  newMetricsCollector(deps.Registry),
		shutdown: make(chan os.Signal, 1),
		errs:     make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.metrics.middleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.SignalShutdown)
	s.app.Debug = debug

	// logging out (or any transition away from a teacher session) discards
	// cached draft sheets; unsaved marks never outlive the session
	s.gate.OnChange(func(state session.State) {
		if state != session.StateTeacher {
			s.sheets.clear()
		}
	})
	s.stopGate = s.gate.Start(context.Background())

	s.app.GET("/", home)
	s.app.GET("/metrics", metricsHandler(s.deps.Registry))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Hub, s.deps.Validate)
	registerAttendanceAPI(v1, s.deps.AttendanceSvc, s.deps.UserSvc, s.sheets, s.metrics, s.deps.Validate)
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

// Errors reports fatal listener errors.
func (s *Server) Errors() <-chan error { return s.errs }

// ShutdownSignal reports OS signals and internal shutdown requests.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown requests a graceful shutdown from within the app.
func (s *Server) SignalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopGate != nil {
		s.stopGate()
	}
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Mahudhurio API!")
}
