package handler

// MountViewRequest 返却画面を開くリクエスト
// @Description 会員IDはルートパラメータと同じく文字列で受け取り、整数に変換できない値もそのまま下流へ渡す
type MountViewRequest struct {
	MemberID string `json:"member_id" example:"7"`
}

// ChangeMemberRequest 表示中の会員を切り替えるリクエスト
// @Description 表示中の会員を切り替えるリクエスト
type ChangeMemberRequest struct {
	MemberID string `json:"member_id" example:"8"`
}

// SelectTransactionRequest 返却する貸出記録を選ぶリクエスト
// @Description 返却する貸出記録を選ぶリクエスト
type SelectTransactionRequest struct {
	TransactionID string `json:"transaction_id" example:"12"`
}

// DismissResponse 結果モーダルを閉じたときのレスポンス
// @Description クライアントが遷移すべきルート
type DismissResponse struct {
	NavigateTo string `json:"navigate_to" example:"/"`
}
