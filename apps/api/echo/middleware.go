package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// adminOnly lets through the requests of active admins. Roles are read from the store, not from the token,
// so demoted or deactivated admins are refused right away.
func (a *authenticator) adminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := a.contextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsActive || !usr.IsAdmin() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
