package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	circulationapp "library-desk/internal/application/circulation"
	"library-desk/internal/domain/identifier"
)

// CirculationHandler 貸出管理の内部APIハンドラー
//
// 返却画面のデータソースと同じ3つの操作をREST（APIキー認証）で公開する。
type CirculationHandler struct {
	circulationService *circulationapp.CirculationApplicationService
}

// NewCirculationHandler 新しいCirculationHandlerを作成
func NewCirculationHandler(circulationService *circulationapp.CirculationApplicationService) *CirculationHandler {
	return &CirculationHandler{
		circulationService: circulationService,
	}
}

// GetIssuedBooks 会員に貸し出し中の書籍一覧
// @Summary 貸出一覧を取得（内部API）
// @Tags circulation
// @Produce json
// @Param member_id path string true "会員ID" example(7)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} circulation.IssuedBooksDTO "貸出一覧"
// @Failure 400 {object} ErrorResponse "無効な会員ID"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /internal/v1/members/{member_id}/issued-books [get]
func (h *CirculationHandler) GetIssuedBooks(c echo.Context) error {
	list, err := h.circulationService.IssuedBooks(c.Request().Context(), identifier.Parse(c.Param("member_id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, circulationapp.NewIssuedBooksDTO(list))
}

// GetMember 会員情報
// @Summary 会員を取得（内部API）
// @Tags circulation
// @Produce json
// @Param member_id path string true "会員ID" example(7)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} circulation.MemberDTO "会員"
// @Failure 400 {object} ErrorResponse "無効な会員ID"
// @Failure 404 {object} ErrorResponse "会員が存在しない"
// @Router /internal/v1/members/{member_id} [get]
func (h *CirculationHandler) GetMember(c echo.Context) error {
	m, err := h.circulationService.Member(c.Request().Context(), identifier.Parse(c.Param("member_id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, circulationapp.NewMemberDTO(m))
}

// ReturnBook 書籍を返却し、料金を会員残高に計上する
// @Summary 書籍を返却（内部API）
// @Tags circulation
// @Produce json
// @Param transaction_id path string true "貸出記録ID" example(12)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} circulation.IssuanceDTO "返却後の貸出記録"
// @Failure 400 {object} ErrorResponse "無効な貸出記録ID"
// @Failure 404 {object} ErrorResponse "貸出記録が存在しない"
// @Failure 409 {object} ErrorResponse "返却済み"
// @Router /internal/v1/transactions/{transaction_id}/return [post]
func (h *CirculationHandler) ReturnBook(c echo.Context) error {
	returned, err := h.circulationService.ReturnBook(c.Request().Context(), identifier.Parse(c.Param("transaction_id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, circulationapp.NewIssuanceDTO(returned))
}
