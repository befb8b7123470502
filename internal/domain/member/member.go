package member

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxNameLength 氏名の最大長
	MaxNameLength = 100
	// MaxPhoneNumberLength 電話番号の最大長
	MaxPhoneNumberLength = 15
	// BalanceScale 残高の小数桁数
	BalanceScale = 2
)

// MaxBalance 残高の上限 (DECIMAL(10,2))
var MaxBalance = decimal.RequireFromString("99999999.99")

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Member 会員エンティティ
//
// balance は会員が図書館に支払うべき未払い残高を表し、返却時の料金はここに加算される。
type Member struct {
	id          int64
	firstName   string
	lastName    string
	email       string
	phoneNumber *string
	balance     decimal.Decimal
	version     int // 楽観的ロック用
}

// NewMember 新しいMemberエンティティを作成
func NewMember(
	id int64,
	firstName string,
	lastName string,
	email string,
	phoneNumber *string,
	balance decimal.Decimal,
	version int,
) (*Member, error) {
	if id <= 0 {
		return nil, ErrInvalidMemberID
	}
	if err := validateName(firstName); err != nil {
		return nil, err
	}
	if err := validateName(lastName); err != nil {
		return nil, err
	}
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if phoneNumber != nil && len(*phoneNumber) > MaxPhoneNumberLength {
		return nil, ErrInvalidPhoneNumber
	}
	if balance.Abs().GreaterThan(MaxBalance) {
		return nil, ErrBalanceOutOfRange
	}

	return &Member{
		id:          id,
		firstName:   firstName,
		lastName:    lastName,
		email:       email,
		phoneNumber: phoneNumber,
		balance:     balance.Round(BalanceScale),
		version:     version,
	}, nil
}

// NewReference 貸出記録に埋め込まれる会員の参照を作成する
//
// 貸出一覧のレスポンスには氏名程度しか含まれないため、IDやメールアドレスの検証は行わない。
func NewReference(id int64, firstName, lastName string, balance decimal.Decimal) *Member {
	return &Member{
		id:        id,
		firstName: firstName,
		lastName:  lastName,
		balance:   balance,
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || len([]rune(name)) > MaxNameLength {
		return ErrInvalidName
	}
	return nil
}

// ID 会員IDを返す
func (m *Member) ID() int64 {
	return m.id
}

// FirstName 名を返す
func (m *Member) FirstName() string {
	return m.firstName
}

// LastName 姓を返す
func (m *Member) LastName() string {
	return m.lastName
}

// FullName "名 姓" 形式の氏名を返す
func (m *Member) FullName() string {
	return m.firstName + " " + m.lastName
}

// Email メールアドレスを返す
func (m *Member) Email() string {
	return m.email
}

// PhoneNumber 電話番号を返す
func (m *Member) PhoneNumber() *string {
	return m.phoneNumber
}

// Balance 未払い残高を返す
func (m *Member) Balance() decimal.Decimal {
	return m.balance
}

// Version バージョンを返す（楽観的ロック用）
func (m *Member) Version() int {
	return m.version
}

// Charge 料金を残高に加算する
func (m *Member) Charge(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return ErrInvalidFee
	}
	next := m.balance.Add(fee).Round(BalanceScale)
	if next.GreaterThan(MaxBalance) {
		return ErrBalanceOutOfRange
	}
	m.balance = next
	return nil
}

// MustNewMember テスト用ヘルパー: NewMemberを呼び出し、エラーが発生した場合はpanicする
func MustNewMember(
	id int64,
	firstName string,
	lastName string,
	email string,
	phoneNumber *string,
	balance decimal.Decimal,
	version int,
) *Member {
	m, err := NewMember(id, firstName, lastName, email, phoneNumber, balance, version)
	if err != nil {
		panic(err)
	}
	return m
}
