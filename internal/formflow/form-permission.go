// Middleware проверки прав доступа к управлению формами и маршрутами согласования.
// Изменять формы, маршруты и просматривать ответы может только администратор; остальным доступ запрещается.
package formflow

import (
	"errors"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/labstack/echo/v4"
)

func (s *Services) FormPermissionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		has, err := hasAdminPermissions(c)
		if err != nil {
			return EError(c, err)
		}
		if !has {
			return EErrorDefined(c, apierrors.ErrFormForbidden)
		}
		return next(c)
	}
}

func hasAdminPermissions(c echo.Context) (bool, error) {
	switch ctx := c.(type) {
	case FormContext:
		return ctx.Role == RoleAdmin, nil
	case AuthContext:
		return ctx.Role == RoleAdmin, nil
	}
	return false, errors.New("wrong context")
}
