package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"library-desk/internal/application/auth"
	"library-desk/internal/application/desk"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/domain/returnflow"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// domainError ドメインエラーとHTTPレスポンスの対応
type domainError struct {
	target error
	status int
	code   string
	log    string
}

// domainErrors 上から順に判定する
var domainErrors = []domainError{
	{member.ErrMemberNotFound, http.StatusNotFound, "member_not_found", "Member not found"},
	{issuance.ErrIssuanceNotFound, http.StatusNotFound, "transaction_not_found", "Transaction not found"},
	{desk.ErrViewNotFound, http.StatusNotFound, "view_not_found", "Desk view not found"},
	{issuance.ErrAlreadyReturned, http.StatusConflict, "already_returned", "Book already returned"},
	{member.ErrVersionConflict, http.StatusConflict, "version_conflict", "Member version conflict"},
	{returnflow.ErrInvalidTransition, http.StatusConflict, "invalid_transition", "Invalid return flow transition"},
	{member.ErrBalanceOutOfRange, http.StatusUnprocessableEntity, "balance_out_of_range", "Balance out of range"},
	{member.ErrInvalidMemberID, http.StatusBadRequest, "invalid_member_id", "Invalid member id"},
	{issuance.ErrInvalidIssuanceID, http.StatusBadRequest, "invalid_transaction_id", "Invalid transaction id"},
	{desk.ErrTransactionNotListed, http.StatusBadRequest, "transaction_not_listed", "Transaction not listed"},
	{auth.ErrLibrarianIDRequired, http.StatusBadRequest, "invalid_request", "Librarian ID is required"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	for _, d := range domainErrors {
		if errors.Is(err, d.target) {
			logger.Warn(ctx, d.log, map[string]interface{}{
				"error": err.Error(),
				"path":  c.Request().URL.Path,
			})
			return c.JSON(d.status, ErrorResponse{
				Error:   d.code,
				Message: err.Error(),
			})
		}
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー（データソース障害を含む）
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
