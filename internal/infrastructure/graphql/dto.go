package graphql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"library-desk/internal/domain/book"
	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
)

// バックエンドのDateTime/Date表現
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type memberNameDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type issuedBookDTO struct {
	IssueDate string        `json:"issueDate"`
	ID        string        `json:"id"`
	Member    memberNameDTO `json:"member"`
	Book      struct {
		Title           string `json:"title"`
		Author          string `json:"author"`
		PublicationYear int    `json:"publicationYear"`
	} `json:"book"`
	Fee decimal.Decimal `json:"fee"`
}

type issuedBooksResponse struct {
	IssuedBooks []issuedBookDTO `json:"issuedBooks"`
}

type memberDTO struct {
	ID          string          `json:"id"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Email       string          `json:"email"`
	PhoneNumber *string         `json:"phoneNumber"`
	Balance     decimal.Decimal `json:"balance"`
}

type getMemberResponse struct {
	GetMember *memberDTO `json:"getMember"`
}

type returnedBookDTO struct {
	Fee        decimal.Decimal `json:"fee"`
	ID         string          `json:"id"`
	IssueDate  string          `json:"issueDate"`
	ReturnDate *string         `json:"returnDate"`
	Book       struct {
		ID              string `json:"id"`
		Title           string `json:"title"`
		PublicationYear int    `json:"publicationYear"`
		ISBN            string `json:"isbn"`
	} `json:"book"`
	Member struct {
		Balance   decimal.Decimal `json:"balance"`
		LastName  string          `json:"lastName"`
		FirstName string          `json:"firstName"`
	} `json:"member"`
}

type returnBookResponse struct {
	ReturnBook *returnedBookDTO `json:"returnBook"`
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// parseNumericID GraphQLのID（文字列）を数値に変換する。数値でなければ0
func parseNumericID(raw string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func (d issuedBookDTO) toDomain(memberID identifier.ID) (*issuance.Issuance, error) {
	issueDate, err := parseDate(d.IssueDate)
	if err != nil {
		return nil, err
	}

	b, err := book.NewBook(0, d.Book.Title, d.Book.Author, d.Book.PublicationYear, "")
	if err != nil {
		return nil, err
	}

	id, _ := memberID.Int64()
	m := member.NewReference(id, d.Member.FirstName, d.Member.LastName, decimal.Zero)

	return issuance.NewIssuance(d.ID, issueDate, nil, d.Fee, m, b)
}

func (d memberDTO) toDomain() (*member.Member, error) {
	return member.NewMember(
		parseNumericID(d.ID),
		d.FirstName,
		d.LastName,
		d.Email,
		d.PhoneNumber,
		d.Balance,
		0,
	)
}

func (d returnedBookDTO) toDomain() (*issuance.Issuance, error) {
	issueDate, err := parseDate(d.IssueDate)
	if err != nil {
		return nil, err
	}

	var returnDate *time.Time
	if d.ReturnDate != nil && *d.ReturnDate != "" {
		t, err := parseDate(*d.ReturnDate)
		if err != nil {
			return nil, err
		}
		returnDate = &t
	}

	b, err := book.NewBook(parseNumericID(d.Book.ID), d.Book.Title, "", d.Book.PublicationYear, d.Book.ISBN)
	if err != nil {
		return nil, err
	}

	m := member.NewReference(0, d.Member.FirstName, d.Member.LastName, d.Member.Balance)

	return issuance.NewIssuance(d.ID, issueDate, returnDate, d.Fee, m, b)
}
