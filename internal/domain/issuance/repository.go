package issuance

import (
	"context"
)

// IssuanceRepository 貸出記録リポジトリインターフェース
type IssuanceRepository interface {
	// FindOpenByMemberID 会員の未返却の貸出記録一覧を取得（貸出日の古い順）
	FindOpenByMemberID(ctx context.Context, memberID int64) ([]*Issuance, error)

	// FindByID 貸出記録IDで貸出記録を取得
	FindByID(ctx context.Context, id int64) (*Issuance, error)

	// MarkReturned 返却日時を保存
	MarkReturned(ctx context.Context, i *Issuance) error
}
