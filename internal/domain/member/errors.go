package member

import "errors"

var (
	// ErrMemberNotFound 会員が見つからないエラー
	ErrMemberNotFound = errors.New("member not found")
	// ErrInvalidMemberID 会員IDが無効
	ErrInvalidMemberID = errors.New("invalid member id")
	// ErrInvalidName 氏名が無効
	ErrInvalidName = errors.New("invalid member name")
	// ErrInvalidEmail メールアドレスが無効
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPhoneNumber 電話番号が無効
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	// ErrInvalidFee 料金が無効
	ErrInvalidFee = errors.New("invalid fee")
	// ErrBalanceOutOfRange 残高が範囲外
	ErrBalanceOutOfRange = errors.New("balance out of range")
	// ErrVersionConflict 楽観的ロックの競合
	ErrVersionConflict = errors.New("member version conflict")
)
