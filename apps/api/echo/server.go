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

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/core/session"
	uploadsvc "github.com/intelliscript/intelliscript/services/uploads"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		SessionSvc *session.Service
		ChatSvc    *chat.Service
		Renderer   *chat.Renderer
		Uploader   *uploadsvc.Client
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		app      *echo.Echo
		conf     *core.Config
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		app:      echo.New(),
		conf:     deps.Conf,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(deps)
	return s
}

func (s *server) setup(deps ServerDeps) {
	conf := deps.Conf

	s.app.HideBanner = conf.TestMode
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home(conf))

	v1 := s.app.Group("/v1")
	jwtConf := newJWTConfig(conf)
	auth := []echo.MiddlewareFunc{middleware.JWTWithConfig(jwtConf), sessionMiddleware(deps.SessionSvc)}

	registerSessionAPI(v1, auth, deps.SessionSvc, deps.ChatSvc, jwtConf, conf, deps.Validate)
	registerChatAPI(v1, auth, deps.ChatSvc, deps.Renderer, deps.Validate)
	registerUploadAPI(v1, auth, deps.Uploader)
	registerHistoryAPI(v1, auth, deps.ChatSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(conf *core.Config) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to "+conf.AppName+" API!")
	}
}
