package graphql

import "strings"

// QueryError GraphQL APIの呼び出しに失敗したときのエラー
//
// Error() は操作名付きでログ向け、Message() はサーバーが返した文言そのもの。
type QueryError struct {
	Operation string
	Err       error
}

func newQueryError(operation string, err error) *QueryError {
	return &QueryError{Operation: operation, Err: err}
}

func (e *QueryError) Error() string {
	return "failed to " + e.Operation + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Message 画面に表示する文言
func (e *QueryError) Message() string {
	return strings.TrimPrefix(e.Err.Error(), "graphql: ")
}
