package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/infra/appctx"
)

type TokenVerifier interface {
	Verify(token string) (models.Principal, error)
}

// IdentityMiddleware кладет в контекст личность из jwt.
// Без токена пропускает как guest, если allowAnonymous. Невалидный токен - всегда 401.
func IdentityMiddleware(verifier TokenVerifier, allowAnonymous bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)

			principal := models.AnonymousPrincipal()

			if token == "" {
				if !allowAnonymous {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or malformed jwt"})
				}
			} else {
				p, err := verifier.Verify(token)
				if err != nil {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired jwt"})
				}

				principal = p
			}

			c.SetRequest(
				c.Request().WithContext(
					appctx.WithPrincipal(c.Request().Context(), principal),
				),
			)

			return next(c)
		}
	}
}

// extractToken: cookie, затем Authorization, затем query (браузерный ws не умеет заголовки)
func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie("jwt"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if header := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}

	return c.QueryParam("token")
}
