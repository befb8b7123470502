package issuance

import (
	"context"
)

// TransactionManager DBトランザクション管理インターフェース
type TransactionManager interface {
	// WithTransaction トランザクション内で関数を実行
	//
	// fnに渡されるコンテキストにはトランザクションが紐づいており、リポジトリはそれを使用する。
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
