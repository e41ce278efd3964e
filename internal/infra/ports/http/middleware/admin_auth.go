package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/qrave1/PairSpeak/internal/infra/appctx"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminMiddleware пускает admin по jwt или сервисного клиента по ключу X-Admin-Key.
// Должен стоять после IdentityMiddleware.
func AdminMiddleware(adminKeyHash string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p, ok := appctx.Principal(c.Request().Context()); ok && p.IsAdmin() {
				return next(c)
			}

			key := c.Request().Header.Get(AdminKeyHeader)
			if key != "" && adminKeyHash != "" &&
				bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)) == nil {
				return next(c)
			}

			return c.JSON(http.StatusForbidden, map[string]string{"error": "admin only"})
		}
	}
}
