package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"library-desk/internal/application/auth"
	"library-desk/internal/infrastructure/config"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// ContextKeyLibrarianID 認証済み司書IDを格納するecho.Contextのキー
const ContextKeyLibrarianID = "librarian_id"

// AuthMiddleware 司書向けJWT認証ミドルウェア
func AuthMiddleware(cfg *config.JWTConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(ctx, "Missing authorization header", nil)
				return unauthorized(c, "Missing authorization header")
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || scheme != "Bearer" || tokenString == "" {
				logger.Warn(ctx, "Invalid authorization header format", nil)
				return unauthorized(c, "Invalid authorization header format")
			}

			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(cfg.Secret), nil
			})
			if err != nil || !token.Valid {
				fields := map[string]interface{}{}
				if err != nil {
					fields["error"] = err.Error()
				}
				logger.Warn(ctx, "Invalid token", fields)
				return unauthorized(c, "Invalid or expired token")
			}

			// 発行者が設定されている場合のみ検証
			if cfg.Issuer != "" {
				if iss, _ := claims.GetIssuer(); iss != cfg.Issuer {
					logger.Warn(ctx, "Unexpected token issuer", map[string]interface{}{
						"issuer": iss,
					})
					return unauthorized(c, "Invalid or expired token")
				}
			}

			librarianID, ok := claims["librarian_id"].(string)
			if !ok || librarianID == "" {
				logger.Warn(ctx, "Missing librarian_id in token claims", nil)
				return unauthorized(c, "Missing librarian_id in token")
			}

			if role, _ := claims["role"].(string); role != auth.RoleLibrarian {
				logger.Warn(ctx, "Token role is not allowed", map[string]interface{}{
					"librarian_id": librarianID,
					"role":         role,
				})
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "forbidden",
					Message: "Librarian role is required",
				})
			}

			c.Set(ContextKeyLibrarianID, librarianID)

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
