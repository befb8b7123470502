package desk

import (
	"context"

	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
)

// DataSource 返却画面が使うリモートAPI
type DataSource interface {
	IssuedBooks(ctx context.Context, memberID identifier.ID) ([]*issuance.Issuance, error)
	Member(ctx context.Context, memberID identifier.ID) (*member.Member, error)
	ReturnBook(ctx context.Context, transactionID identifier.ID) (*issuance.Issuance, error)
}

// Refetcher キャッシュを持つデータソースが実装する。強制再取得の前に呼ばれる
type Refetcher interface {
	Evict(memberID identifier.ID)
}

// MessageError データソースが返すエラーのうち、画面に出す文言を別に持つもの
//
// ログには Error() を、画面には Message() を使う。
type MessageError interface {
	error
	Message() string
}

// Navigator 画面遷移を行う
type Navigator interface {
	Navigate(route string) error
}

// NavigatorFunc 関数をNavigatorとして使うためのアダプター
type NavigatorFunc func(route string) error

// Navigate fを呼び出す
func (f NavigatorFunc) Navigate(route string) error {
	return f(route)
}
