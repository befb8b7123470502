package circulation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"library-desk/internal/domain/book"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
)

// MemberDTO 会員のレスポンス表現
type MemberDTO struct {
	ID          int64   `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number"`
	Balance     string  `json:"balance"`
}

// BookDTO 書籍のレスポンス表現
type BookDTO struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationYear int    `json:"publication_year"`
	ISBN            string `json:"isbn"`
}

// IssuanceDTO 貸出記録のレスポンス表現
type IssuanceDTO struct {
	ID         string     `json:"id"`
	IssueDate  time.Time  `json:"issue_date"`
	ReturnDate *time.Time `json:"return_date"`
	Fee        string     `json:"fee"`
	Member     MemberDTO  `json:"member"`
	Book       BookDTO    `json:"book"`
}

// IssuedBooksDTO 貸出一覧のレスポンス表現
type IssuedBooksDTO struct {
	IssuedBooks []IssuanceDTO `json:"issued_books"`
}

// NewMemberDTO 会員エンティティからDTOを作成
func NewMemberDTO(m *member.Member) MemberDTO {
	return MemberDTO{
		ID:          m.ID(),
		FirstName:   m.FirstName(),
		LastName:    m.LastName(),
		Email:       m.Email(),
		PhoneNumber: m.PhoneNumber(),
		Balance:     m.Balance().StringFixed(member.BalanceScale),
	}
}

// NewIssuanceDTO 貸出記録エンティティからDTOを作成
func NewIssuanceDTO(i *issuance.Issuance) IssuanceDTO {
	dto := IssuanceDTO{
		ID:         i.ID(),
		IssueDate:  i.IssueDate(),
		ReturnDate: i.ReturnDate(),
		Fee:        i.Fee().StringFixed(member.BalanceScale),
	}
	if m := i.Member(); m != nil {
		dto.Member = NewMemberDTO(m)
	}
	if b := i.Book(); b != nil {
		dto.Book = BookDTO{
			ID:              b.ID(),
			Title:           b.Title(),
			Author:          b.Author(),
			PublicationYear: b.PublicationYear(),
			ISBN:            b.ISBN(),
		}
	}
	return dto
}

// NewIssuedBooksDTO 貸出一覧のDTOを作成
func NewIssuedBooksDTO(list []*issuance.Issuance) IssuedBooksDTO {
	dto := IssuedBooksDTO{IssuedBooks: make([]IssuanceDTO, 0, len(list))}
	for _, i := range list {
		dto.IssuedBooks = append(dto.IssuedBooks, NewIssuanceDTO(i))
	}
	return dto
}

// ToDomain DTOから会員エンティティを復元
func (d MemberDTO) ToDomain() (*member.Member, error) {
	balance, err := decimal.NewFromString(d.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", d.Balance, err)
	}
	return member.NewMember(d.ID, d.FirstName, d.LastName, d.Email, d.PhoneNumber, balance, 0)
}

// ToDomain DTOから貸出記録エンティティを復元
//
// 埋め込まれた会員は参照として扱い、会員の検証は行わない。
func (d IssuanceDTO) ToDomain() (*issuance.Issuance, error) {
	fee, err := decimal.NewFromString(d.Fee)
	if err != nil {
		return nil, fmt.Errorf("invalid fee %q: %w", d.Fee, err)
	}
	balance, err := decimal.NewFromString(d.Member.Balance)
	if err != nil {
		balance = decimal.Zero
	}

	b, err := book.NewBook(d.Book.ID, d.Book.Title, d.Book.Author, d.Book.PublicationYear, d.Book.ISBN)
	if err != nil {
		return nil, err
	}
	m := member.NewReference(d.Member.ID, d.Member.FirstName, d.Member.LastName, balance)

	return issuance.NewIssuance(d.ID, d.IssueDate, d.ReturnDate, fee, m, b)
}
