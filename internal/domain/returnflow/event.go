package returnflow

import (
	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
)

// Event 返却フローへの入力
type Event interface {
	eventName() string
}

// SelectRow 一覧の行の返却アイコンが押された
type SelectRow struct {
	Issuance *issuance.Issuance
}

// Cancel 確認モーダルでキャンセルが押された
type Cancel struct{}

// Confirm 確認モーダルで返却が確定された
type Confirm struct{}

// Succeeded 返却リクエストが成功した
type Succeeded struct {
	Issuance *issuance.Issuance
}

// Failed 返却リクエストが失敗した
type Failed struct {
	Err error
}

// Dismiss 結果モーダルのOKが押された
type Dismiss struct{}

func (SelectRow) eventName() string { return "select_row" }
func (Cancel) eventName() string    { return "cancel" }
func (Confirm) eventName() string   { return "confirm" }
func (Succeeded) eventName() string { return "succeeded" }
func (Failed) eventName() string    { return "failed" }
func (Dismiss) eventName() string   { return "dismiss" }

// Effect 遷移の結果として呼び出し側が実行すべき副作用
type Effect interface {
	effectName() string
}

// ReturnBookEffect 返却操作を呼び出す
type ReturnBookEffect struct {
	TransactionID identifier.ID
}

// RefetchEffect 貸出一覧と会員情報を再取得する
type RefetchEffect struct{}

// LogErrorEffect エラーをログに記録する
type LogErrorEffect struct {
	Err error
}

// NavigateEffect 指定のルートへ遷移する
type NavigateEffect struct {
	Route string
}

func (ReturnBookEffect) effectName() string { return "return_book" }
func (RefetchEffect) effectName() string    { return "refetch" }
func (LogErrorEffect) effectName() string   { return "log_error" }
func (NavigateEffect) effectName() string   { return "navigate" }
