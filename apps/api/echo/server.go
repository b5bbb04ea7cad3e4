package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/coursetool"
	"github.com/trezcool/coursetools/core/enrollment"
	"github.com/trezcool/coursetools/core/task"
	"github.com/trezcool/coursetools/core/upgrade"
	"github.com/trezcool/coursetools/core/user"
)

type (
	Deps struct {
		Conf          *core.Config
		Logger        core.Logger
		UserSvc       *user.Service
		PasswordReset *user.PasswordReset
		CourseSvc     *course.Service
		DeadlineSvc   *upgrade.Service
		EnrollmentSvc *enrollment.Service
		Tools         *coursetool.Manager
		Tasks         *task.Queue
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		address  string
		shutdown chan os.Signal
		deps     *Deps
		app      *echo.Echo
	}
)

var _ Server = (*server)(nil)

// NewServer returns the API server. shutdown receives a SIGTERM when a handler hits a shutdown error.
func NewServer(address string, shutdown chan os.Signal, deps *Deps) Server {
	s := &server{
		address:  address,
		shutdown: shutdown,
		deps:     deps,
		app:      echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.INFO)
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.HideBanner = conf.TestMode
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	auth := newAuthenticator(conf, s.deps.UserSvc)

	registerUserAPI(v1, auth, s.deps)
	registerToolAPI(v1, auth, s.deps.Tools)
	registerEnrollmentAPI(v1, auth, s.deps.EnrollmentSvc)
	registerAdminAPI(v1, auth, s.deps)
}

func (s *server) Start() error {
	return s.app.Start(s.address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
