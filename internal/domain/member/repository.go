package member

import "context"

// MemberRepository 会員リポジトリインターフェース
type MemberRepository interface {
	// FindByID 会員IDで会員を取得
	FindByID(ctx context.Context, id int64) (*Member, error)

	// Save 会員の残高を保存（楽観的ロック）
	Save(ctx context.Context, m *Member) error
}
