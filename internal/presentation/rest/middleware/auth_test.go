package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"library-desk/internal/application/auth"
	"library-desk/internal/infrastructure/config"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.JWTConfig{
		Secret: "test-secret",
		Issuer: "library-desk",
	}
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedID     string
	}{
		{
			name: "正常系: 有効な司書トークン",
			header: "Bearer " + signToken(t, cfg.Secret, jwt.MapClaims{
				"librarian_id": "lib-1",
				"role":         auth.RoleLibrarian,
				"iss":          "library-desk",
				"exp":          future,
			}),
			expectedStatus: http.StatusOK,
			expectedID:     "lib-1",
		},
		{
			name:           "異常系: Authorizationヘッダーがない",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: Bearer形式でない",
			header:         "Token abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: 不正なトークン",
			header:         "Bearer invalid-token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 異なるシークレットで署名",
			header: "Bearer " + signToken(t, "wrong-secret", jwt.MapClaims{
				"librarian_id": "lib-1",
				"role":         auth.RoleLibrarian,
				"iss":          "library-desk",
				"exp":          future,
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 期限切れ",
			header: "Bearer " + signToken(t, cfg.Secret, jwt.MapClaims{
				"librarian_id": "lib-1",
				"role":         auth.RoleLibrarian,
				"iss":          "library-desk",
				"exp":          time.Now().Add(-time.Minute).Unix(),
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: expがない",
			header: "Bearer " + signToken(t, cfg.Secret, jwt.MapClaims{
				"librarian_id": "lib-1",
				"role":         auth.RoleLibrarian,
				"iss":          "library-desk",
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 発行者が異なる",
			header: "Bearer " + signToken(t, cfg.Secret, jwt.MapClaims{
				"librarian_id": "lib-1",
				"role":         auth.RoleLibrarian,
				"iss":          "someone-else",
				"exp":          future,
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: librarian_idが数値",
			header: "Bearer " + signToken(t, cfg.Secret, jwt.MapClaims{
				"librarian_id": 123,
				"role":         auth.RoleLibrarian,
				"iss":          "library-desk",
				"exp":          future,
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 司書ロールでない",
			header: "Bearer " + signToken(t, cfg.Secret, jwt.MapClaims{
				"librarian_id": "lib-1",
				"role":         "member",
				"iss":          "library-desk",
				"exp":          future,
			}),
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/desk/views", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotID string
			handler := AuthMiddleware(cfg, logger)(func(c echo.Context) error {
				gotID, _ = c.Get(ContextKeyLibrarianID).(string)
				return c.String(http.StatusOK, "ok")
			})

			err := handler(c)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedID, gotID)
		})
	}
}

func TestAuthMiddleware_AcceptsIssuedToken(t *testing.T) {
	cfg := &config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "library-desk",
	}
	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))

	issued, err := auth.NewAuthApplicationService(cfg, logger).GenerateToken(context.Background(), &auth.GenerateTokenRequest{
		LibrarianID: "lib-42",
	})
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", issued.TokenType+" "+issued.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := AuthMiddleware(cfg, logger)(func(c echo.Context) error {
		assert.Equal(t, "lib-42", c.Get(ContextKeyLibrarianID))
		return c.NoContent(http.StatusNoContent)
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
