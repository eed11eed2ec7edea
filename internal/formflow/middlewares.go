// Middleware аутентификации formflow. Сервис работает за шлюзом: личность и роль актора приходят в заголовках X-Actor-Id и X-Actor-Role, проверка подписи выполняется на шлюзе.
package formflow

import (
	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
)

const (
	HeaderActorId   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"

	RoleAdmin  = "admin"
	RoleMember = "member"
)

type AuthContext struct {
	echo.Context

	ActorId uuid.NullUUID
	Role    string
}

// AuthMiddleware требует присутствия идентификатора актора в запросе.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actorId, err := uuid.FromString(c.Request().Header.Get(HeaderActorId))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrSubmissionForbidden)
		}
		return next(AuthContext{
			Context: c,
			ActorId: uuid.NullUUID{UUID: actorId, Valid: true},
			Role:    c.Request().Header.Get(HeaderActorRole),
		})
	}
}

// OptionalAuthMiddleware пропускает запрос и без актора. Используется на публичных точках форм.
func OptionalAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := AuthContext{Context: c, Role: c.Request().Header.Get(HeaderActorRole)}
		if actorId, err := uuid.FromString(c.Request().Header.Get(HeaderActorId)); err == nil {
			ctx.ActorId = uuid.NullUUID{UUID: actorId, Valid: true}
		}
		return next(ctx)
	}
}
