package desk

import "errors"

var (
	// ErrViewNotFound 返却画面が存在しない（期限切れを含む）
	ErrViewNotFound = errors.New("desk view not found")
	// ErrTransactionNotListed 選択された貸出記録が一覧に存在しない
	ErrTransactionNotListed = errors.New("transaction is not listed for this member")
	// ErrNavigatorRequired 遷移先を処理するNavigatorが渡されていない
	ErrNavigatorRequired = errors.New("navigator is required")
)
