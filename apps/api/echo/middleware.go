package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core/session"
)

// roleMiddleware only lets sessions whose role ranks at least min through.
func roleMiddleware(min session.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			if sess.Role.AtLeast(min) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(session.RoleAdmin)
}
