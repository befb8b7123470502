package returnflow

import "fmt"

// FailurePolicy 返却失敗時の扱い
type FailurePolicy int

const (
	// FailureLogOnly 失敗はログに記録するだけで、結果モーダルは表示しない
	FailureLogOnly FailurePolicy = iota
	// FailureShowResult 失敗時にも結果モーダルを表示する
	FailureShowResult
)

// DefaultHomeRoute 結果モーダルを閉じたときの遷移先
const DefaultHomeRoute = "/"

// Machine 返却フローの状態遷移を定義する
type Machine struct {
	policy    FailurePolicy
	homeRoute string
}

// NewMachine 新しいMachineを作成
func NewMachine(policy FailurePolicy, homeRoute string) *Machine {
	if homeRoute == "" {
		homeRoute = DefaultHomeRoute
	}
	return &Machine{policy: policy, homeRoute: homeRoute}
}

// Policy 失敗時のポリシーを返す
func (m *Machine) Policy() FailurePolicy {
	return m.policy
}

// Transition 状態とイベントから次の状態と副作用を求める
//
// 状態は値で受け取り値で返すため、呼び出し側の状態を書き換えない。
func (m *Machine) Transition(s State, e Event) (State, []Effect, error) {
	switch ev := e.(type) {
	case SelectRow:
		if s.phase != PhaseIdle && s.phase != PhaseConfirmPending {
			return s, nil, invalid(s, e)
		}
		if ev.Issuance == nil {
			return s, nil, fmt.Errorf("%w: no transaction selected", ErrInvalidTransition)
		}
		return State{phase: PhaseConfirmPending, selected: ev.Issuance}, nil, nil

	case Cancel:
		if s.phase != PhaseConfirmPending {
			return s, nil, invalid(s, e)
		}
		return State{phase: PhaseIdle, selected: s.selected}, nil, nil

	case Confirm:
		if s.selected == nil && (s.phase == PhaseIdle || s.phase == PhaseConfirmPending) {
			return s, nil, nil
		}
		if s.phase != PhaseConfirmPending {
			return s, nil, invalid(s, e)
		}
		next := State{phase: PhaseSubmitting, selected: s.selected}
		return next, []Effect{ReturnBookEffect{TransactionID: s.selected.TransactionID()}}, nil

	case Succeeded:
		if s.phase != PhaseSubmitting {
			return s, nil, invalid(s, e)
		}
		return State{phase: PhaseResult, succeeded: true}, []Effect{RefetchEffect{}}, nil

	case Failed:
		if s.phase != PhaseSubmitting {
			return s, nil, invalid(s, e)
		}
		effects := []Effect{LogErrorEffect{Err: ev.Err}}
		if m.policy == FailureShowResult {
			return State{phase: PhaseResult, succeeded: false}, effects, nil
		}
		return State{phase: PhaseIdle, selected: s.selected}, effects, nil

	case Dismiss:
		if s.phase != PhaseResult {
			return s, nil, invalid(s, e)
		}
		return Initial(), []Effect{NavigateEffect{Route: m.homeRoute}}, nil
	}

	return s, nil, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, e)
}

func invalid(s State, e Event) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, e.eventName(), s.phase)
}
