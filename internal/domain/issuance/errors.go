package issuance

import "errors"

var (
	// ErrIssuanceNotFound 貸出記録が見つからないエラー
	ErrIssuanceNotFound = errors.New("transaction not found")
	// ErrInvalidIssuanceID 貸出記録IDが無効
	ErrInvalidIssuanceID = errors.New("invalid transaction id")
	// ErrInvalidFee 料金が無効
	ErrInvalidFee = errors.New("invalid fee")
	// ErrMissingReference 会員または書籍の参照がない
	ErrMissingReference = errors.New("transaction must reference a member and a book")
	// ErrAlreadyReturned 返却済みの貸出記録
	ErrAlreadyReturned = errors.New("book already returned")
	// ErrInvalidReturnDate 返却日が貸出日より前
	ErrInvalidReturnDate = errors.New("return date before issue date")
)
