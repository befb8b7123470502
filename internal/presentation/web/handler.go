package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	deskapp "library-desk/internal/application/desk"
	"library-desk/internal/domain/returnflow"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// errorPage エラーページの表示内容
type errorPage struct {
	Message   string
	HomeRoute string
}

// Handler サーバー描画の返却画面ハンドラー
//
// 操作はすべてPOSTで受け、処理後に画面へリダイレクトする（PRG）。
type Handler struct {
	deskService *deskapp.DeskApplicationService
	display     deskapp.DisplayOptions
	homeRoute   string
	logger      *otelinfra.Logger
}

// NewHandler 新しいHandlerを作成
func NewHandler(deskService *deskapp.DeskApplicationService, display deskapp.DisplayOptions, homeRoute string, logger *otelinfra.Logger) *Handler {
	if homeRoute == "" {
		homeRoute = returnflow.DefaultHomeRoute
	}
	return &Handler{
		deskService: deskService,
		display:     display,
		homeRoute:   homeRoute,
		logger:      logger,
	}
}

// Register ルートを登録する
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/members/return", h.Lookup)
	e.GET("/members/:member_id/return", h.Mount)
	e.GET("/views/:view_id", h.Show)
	e.POST("/views/:view_id/select", h.Select)
	e.POST("/views/:view_id/cancel", h.Cancel)
	e.POST("/views/:view_id/confirm", h.Confirm)
	e.POST("/views/:view_id/dismiss", h.Dismiss)
}

// Home ホーム画面
func (h *Handler) Home(c echo.Context) error {
	return c.Render(http.StatusOK, pageHome, nil)
}

// Lookup ホーム画面のフォームから会員の返却画面へ
func (h *Handler) Lookup(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/members/"+url.PathEscape(c.QueryParam("member_id"))+"/return")
}

// Mount 会員の返却画面を開き、画面IDのURLへリダイレクトする
func (h *Handler) Mount(c echo.Context) error {
	snapshot, err := h.deskService.Mount(c.Request().Context(), c.Param("member_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusSeeOther, viewPath(snapshot.ViewID))
}

// Show 返却画面を描画する
func (h *Handler) Show(c echo.Context) error {
	snapshot, err := h.deskService.View(c.Request().Context(), c.Param("view_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, pageDesk, deskapp.Project(snapshot, h.display))
}

// Select 行の返却ボタン
func (h *Handler) Select(c echo.Context) error {
	viewID := c.Param("view_id")
	_, err := h.deskService.Select(c.Request().Context(), viewID, c.FormValue("transaction_id"))
	return h.back(c, viewID, err)
}

// Cancel 確認モーダルのキャンセル
func (h *Handler) Cancel(c echo.Context) error {
	viewID := c.Param("view_id")
	_, err := h.deskService.Cancel(c.Request().Context(), viewID)
	return h.back(c, viewID, err)
}

// Confirm 確認モーダルの返却確定
func (h *Handler) Confirm(c echo.Context) error {
	viewID := c.Param("view_id")
	_, err := h.deskService.Confirm(c.Request().Context(), viewID)
	return h.back(c, viewID, err)
}

// Dismiss 結果モーダルのOK。遷移先へリダイレクトする
func (h *Handler) Dismiss(c echo.Context) error {
	viewID := c.Param("view_id")
	nav := deskapp.NavigatorFunc(func(route string) error {
		return c.Redirect(http.StatusSeeOther, route)
	})
	if err := h.deskService.Dismiss(c.Request().Context(), viewID, nav); err != nil {
		return h.back(c, viewID, err)
	}
	return nil
}

// back 操作のあと画面に戻る
//
// 二重送信や一覧から消えた行の選択は、画面を描画し直すだけにする。
func (h *Handler) back(c echo.Context, viewID string, err error) error {
	if err != nil && !errors.Is(err, returnflow.ErrInvalidTransition) && !errors.Is(err, deskapp.ErrTransactionNotListed) {
		return h.fail(c, err)
	}
	if err != nil {
		h.logger.Warn(c.Request().Context(), "Ignored desk action", map[string]interface{}{
			"view_id": viewID,
			"error":   err.Error(),
		})
	}
	return c.Redirect(http.StatusSeeOther, viewPath(viewID))
}

// fail エラーページを描画する
func (h *Handler) fail(c echo.Context, err error) error {
	if errors.Is(err, deskapp.ErrViewNotFound) {
		return c.Render(http.StatusNotFound, pageError, errorPage{
			Message:   "This page has expired.",
			HomeRoute: h.homeRoute,
		})
	}

	h.logger.Error(c.Request().Context(), "Desk page failed", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.Render(http.StatusInternalServerError, pageError, errorPage{
		Message:   "Something went wrong.",
		HomeRoute: h.homeRoute,
	})
}

func viewPath(viewID string) string {
	return "/views/" + url.PathEscape(viewID)
}
