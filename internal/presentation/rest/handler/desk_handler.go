package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	deskapp "library-desk/internal/application/desk"
)

// DeskHandler 返却画面のJSON APIハンドラー
//
// 画面の状態はサーバー側で保持し、各操作のレスポンスとして描画用のViewModelを返す。
type DeskHandler struct {
	deskService *deskapp.DeskApplicationService
	display     deskapp.DisplayOptions
}

// NewDeskHandler 新しいDeskHandlerを作成
func NewDeskHandler(deskService *deskapp.DeskApplicationService, display deskapp.DisplayOptions) *DeskHandler {
	return &DeskHandler{
		deskService: deskService,
		display:     display,
	}
}

// MountView 返却画面を開く
// @Summary 返却画面を開く
// @Description 会員の貸出一覧と会員情報を取得し、新しい返却画面を作成します
// @Tags desk
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body MountViewRequest true "返却画面の作成リクエスト"
// @Success 201 {object} desk.ViewModel "作成された返却画面"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /desk/views [post]
func (h *DeskHandler) MountView(c echo.Context) error {
	var reqBody MountViewRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	snapshot, err := h.deskService.Mount(c.Request().Context(), reqBody.MemberID)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/api/v1/desk/views/"+snapshot.ViewID)
	return c.JSON(http.StatusCreated, deskapp.Project(snapshot, h.display))
}

// GetView 返却画面の現在の状態を取得
// @Summary 返却画面を取得
// @Tags desk
// @Produce json
// @Security Bearer
// @Param view_id path string true "返却画面ID"
// @Success 200 {object} desk.ViewModel "返却画面"
// @Failure 404 {object} ErrorResponse "返却画面が存在しない"
// @Router /desk/views/{view_id} [get]
func (h *DeskHandler) GetView(c echo.Context) error {
	snapshot, err := h.deskService.View(c.Request().Context(), c.Param("view_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deskapp.Project(snapshot, h.display))
}

// ChangeMember 表示中の会員を切り替える
// @Summary 会員を切り替える
// @Description 会員IDが変わると2本のクエリを再発行し、キャッシュを使わない再取得も1回行います
// @Tags desk
// @Accept json
// @Produce json
// @Security Bearer
// @Param view_id path string true "返却画面ID"
// @Param request body ChangeMemberRequest true "会員切り替えリクエスト"
// @Success 200 {object} desk.ViewModel "返却画面"
// @Failure 404 {object} ErrorResponse "返却画面が存在しない"
// @Router /desk/views/{view_id}/member [put]
func (h *DeskHandler) ChangeMember(c echo.Context) error {
	var reqBody ChangeMemberRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	snapshot, err := h.deskService.ChangeMember(c.Request().Context(), c.Param("view_id"), reqBody.MemberID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deskapp.Project(snapshot, h.display))
}

// Refresh 2本のクエリを再取得する
// @Summary クエリを再取得
// @Tags desk
// @Produce json
// @Security Bearer
// @Param view_id path string true "返却画面ID"
// @Success 200 {object} desk.ViewModel "返却画面"
// @Failure 404 {object} ErrorResponse "返却画面が存在しない"
// @Router /desk/views/{view_id}/refresh [post]
func (h *DeskHandler) Refresh(c echo.Context) error {
	snapshot, err := h.deskService.Refresh(c.Request().Context(), c.Param("view_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deskapp.Project(snapshot, h.display))
}

// Select 返却する貸出記録を選び、確認モーダルを開く
// @Summary 返却する貸出記録を選択
// @Tags desk
// @Accept json
// @Produce json
// @Security Bearer
// @Param view_id path string true "返却画面ID"
// @Param request body SelectTransactionRequest true "選択リクエスト"
// @Success 200 {object} desk.ViewModel "返却画面"
// @Failure 400 {object} ErrorResponse "一覧にない貸出記録"
// @Failure 409 {object} ErrorResponse "現在の状態では選択できない"
// @Router /desk/views/{view_id}/select [post]
func (h *DeskHandler) Select(c echo.Context) error {
	var reqBody SelectTransactionRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction_id is required")
	}

	snapshot, err := h.deskService.Select(c.Request().Context(), c.Param("view_id"), reqBody.TransactionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deskapp.Project(snapshot, h.display))
}

// Cancel 確認モーダルを閉じる
// @Summary 確認モーダルを閉じる
// @Tags desk
// @Produce json
// @Security Bearer
// @Param view_id path string true "返却画面ID"
// @Success 200 {object} desk.ViewModel "返却画面"
// @Failure 409 {object} ErrorResponse "現在の状態ではキャンセルできない"
// @Router /desk/views/{view_id}/cancel [post]
func (h *DeskHandler) Cancel(c echo.Context) error {
	snapshot, err := h.deskService.Cancel(c.Request().Context(), c.Param("view_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deskapp.Project(snapshot, h.display))
}

// Confirm 返却を確定する
// @Summary 返却を確定
// @Description 選択中の貸出記録を返却し、成功時は2本のクエリを再取得して結果モーダルを開きます
// @Tags desk
// @Produce json
// @Security Bearer
// @Param view_id path string true "返却画面ID"
// @Success 200 {object} desk.ViewModel "返却画面"
// @Failure 409 {object} ErrorResponse "送信中など現在の状態では確定できない"
// @Router /desk/views/{view_id}/confirm [post]
func (h *DeskHandler) Confirm(c echo.Context) error {
	snapshot, err := h.deskService.Confirm(c.Request().Context(), c.Param("view_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deskapp.Project(snapshot, h.display))
}

// Dismiss 結果モーダルを閉じる
// @Summary 結果モーダルを閉じる
// @Description 返却画面を破棄し、クライアントが遷移すべきルートを返します
// @Tags desk
// @Produce json
// @Security Bearer
// @Param view_id path string true "返却画面ID"
// @Success 200 {object} DismissResponse "遷移先"
// @Failure 409 {object} ErrorResponse "結果モーダルが表示されていない"
// @Router /desk/views/{view_id}/dismiss [post]
func (h *DeskHandler) Dismiss(c echo.Context) error {
	var resp DismissResponse
	nav := deskapp.NavigatorFunc(func(route string) error {
		resp.NavigateTo = route
		return nil
	})

	if err := h.deskService.Dismiss(c.Request().Context(), c.Param("view_id"), nav); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
