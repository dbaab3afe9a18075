package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/core/session"
)

type sessionApi struct {
	svc      *session.Service
	chatSvc  *chat.Service
	jwtConf  middleware.JWTConfig
	conf     *core.Config
	validate *validator.Validate
}

func registerSessionAPI(
	g *echo.Group,
	auth []echo.MiddlewareFunc,
	svc *session.Service,
	chatSvc *chat.Service,
	jwtConf middleware.JWTConfig,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := sessionApi{
		svc:      svc,
		chatSvc:  chatSvc,
		jwtConf:  jwtConf,
		conf:     conf,
		validate: validate,
	}

	sg := g.Group("/session")

	// un-authed endpoints
	sg.POST("", api.start) // role selection

	// authed endpoints
	sg.GET("", api.retrieve, auth...)
	sg.DELETE("", api.end, auth...) // logout
}

// Handlers

func (api *sessionApi) start(ctx echo.Context) error {
	var data sessionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to sessionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Start(ctx.Request().Context(), data.NewSession)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	token, err := GenerateToken(GetSessionClaims(sess, api.conf), api.jwtConf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, sessionResponse{Token: token, Session: sess})
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) end(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if err = api.chatSvc.Clear(ctx.Request().Context(), sess); err != nil {
		return errors.Wrap(err, "clearing transcript")
	}
	if err = api.svc.End(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "ending session")
	}
	return ctx.NoContent(http.StatusNoContent)
}
