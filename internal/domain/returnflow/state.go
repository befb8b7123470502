package returnflow

import "library-desk/internal/domain/issuance"

// Phase 返却フローのフェーズ
type Phase int

const (
	// PhaseIdle 一覧表示中（モーダルなし）
	PhaseIdle Phase = iota
	// PhaseConfirmPending 確認モーダル表示中
	PhaseConfirmPending
	// PhaseSubmitting 返却リクエスト送信中
	PhaseSubmitting
	// PhaseResult 結果モーダル表示中
	PhaseResult
)

// String フェーズ名を返す
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConfirmPending:
		return "confirm_pending"
	case PhaseSubmitting:
		return "submitting"
	case PhaseResult:
		return "result"
	default:
		return "unknown"
	}
}

// State 返却フローの状態
//
// selected はキャンセル後も保持されるが、確認モーダルが閉じている間は表示されない。
type State struct {
	phase     Phase
	selected  *issuance.Issuance
	succeeded bool
}

// Initial 初期状態を返す
func Initial() State {
	return State{phase: PhaseIdle}
}

// Phase 現在のフェーズを返す
func (s State) Phase() Phase {
	return s.phase
}

// Selected 選択中の貸出記録を返す
func (s State) Selected() *issuance.Issuance {
	return s.selected
}

// ShowConfirmModal 確認モーダルを表示するかどうか
func (s State) ShowConfirmModal() bool {
	return s.phase == PhaseConfirmPending || s.phase == PhaseSubmitting
}

// Submitting 返却リクエストの応答待ちかどうか
func (s State) Submitting() bool {
	return s.phase == PhaseSubmitting
}

// ReturnSuccess 結果モーダルの内容を返す（nilは結果モーダル非表示）
func (s State) ReturnSuccess() *bool {
	if s.phase != PhaseResult {
		return nil
	}
	ok := s.succeeded
	return &ok
}
