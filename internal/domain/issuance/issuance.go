package issuance

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"library-desk/internal/domain/book"
	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/member"
)

// Issuance 貸出記録エンティティ
//
// 外部APIでは "transaction" と呼ばれる。IDはAPIから文字列で届くため、そのままの形で保持する。
type Issuance struct {
	id         string
	issueDate  time.Time
	returnDate *time.Time
	fee        decimal.Decimal
	member     *member.Member
	book       *book.Book
}

// NewIssuance 新しいIssuanceエンティティを作成
func NewIssuance(
	id string,
	issueDate time.Time,
	returnDate *time.Time,
	fee decimal.Decimal,
	m *member.Member,
	b *book.Book,
) (*Issuance, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidIssuanceID
	}
	if fee.IsNegative() {
		return nil, ErrInvalidFee
	}
	if m == nil || b == nil {
		return nil, ErrMissingReference
	}
	if returnDate != nil && returnDate.Before(issueDate) {
		return nil, ErrInvalidReturnDate
	}

	return &Issuance{
		id:         id,
		issueDate:  issueDate,
		returnDate: returnDate,
		fee:        fee,
		member:     m,
		book:       b,
	}, nil
}

// FormatID 数値IDを貸出記録IDの文字列表現に変換
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ID 貸出記録IDを返す
func (i *Issuance) ID() string {
	return i.id
}

// TransactionID 返却操作に渡す整数IDを返す
func (i *Issuance) TransactionID() identifier.ID {
	return identifier.Parse(i.id)
}

// IssueDate 貸出日時を返す
func (i *Issuance) IssueDate() time.Time {
	return i.issueDate
}

// ReturnDate 返却日時を返す（未返却の場合はnil）
func (i *Issuance) ReturnDate() *time.Time {
	return i.returnDate
}

// IsReturned 返却済みかどうか
func (i *Issuance) IsReturned() bool {
	return i.returnDate != nil
}

// Fee 料金を返す
func (i *Issuance) Fee() decimal.Decimal {
	return i.fee
}

// Member 借り手の会員を返す
func (i *Issuance) Member() *member.Member {
	return i.member
}

// Book 貸し出された書籍を返す
func (i *Issuance) Book() *book.Book {
	return i.book
}

// MarkReturned 返却日時を記録する
func (i *Issuance) MarkReturned(at time.Time) error {
	if i.IsReturned() {
		return ErrAlreadyReturned
	}
	if at.Before(i.issueDate) {
		return ErrInvalidReturnDate
	}
	i.returnDate = &at
	return nil
}

// WithMember 会員参照を差し替えたコピーを返す
func (i *Issuance) WithMember(m *member.Member) *Issuance {
	cp := *i
	cp.member = m
	return &cp
}

// MustNewIssuance テスト用ヘルパー: NewIssuanceを呼び出し、エラーが発生した場合はpanicする
func MustNewIssuance(
	id string,
	issueDate time.Time,
	returnDate *time.Time,
	fee decimal.Decimal,
	m *member.Member,
	b *book.Book,
) *Issuance {
	iss, err := NewIssuance(id, issueDate, returnDate, fee, m, b)
	if err != nil {
		panic(err)
	}
	return iss
}
