package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims are the claims of tokens issued by the stand-in.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// requireToken verifies a bearer token signed with secret against the
// server clock and stores its claims under "claims".
func requireToken(secret []byte, now func() time.Time) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, detail("Not authenticated"))
			}

			scheme, raw, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				return c.JSON(http.StatusUnauthorized, detail("Invalid authorization header"))
			}

			claims := &Claims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(now))
			if err != nil || !tkn.Valid {
				return c.JSON(http.StatusUnauthorized, detail("Could not validate credentials"))
			}

			c.Set("claims", claims)
			return next(c)
		}
	}
}
