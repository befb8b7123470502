package book

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidTitle タイトルが無効
	ErrInvalidTitle = errors.New("invalid book title")
	// ErrInvalidPublicationYear 出版年が無効
	ErrInvalidPublicationYear = errors.New("invalid publication year")
)

// Book 書籍エンティティ
type Book struct {
	id              int64
	title           string
	author          string
	publicationYear int
	isbn            string
}

// NewBook 新しいBookエンティティを作成
//
// 一覧のレスポンスにはIDやISBNが含まれないことがあるため、必須なのはタイトルのみ。
func NewBook(id int64, title, author string, publicationYear int, isbn string) (*Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrInvalidTitle
	}
	if publicationYear < 0 {
		return nil, ErrInvalidPublicationYear
	}
	return &Book{
		id:              id,
		title:           title,
		author:          author,
		publicationYear: publicationYear,
		isbn:            isbn,
	}, nil
}

// ID 書籍IDを返す
func (b *Book) ID() int64 {
	return b.id
}

// Title タイトルを返す
func (b *Book) Title() string {
	return b.title
}

// Author 著者を返す
func (b *Book) Author() string {
	return b.author
}

// PublicationYear 出版年を返す
func (b *Book) PublicationYear() int {
	return b.publicationYear
}

// ISBN ISBNを返す
func (b *Book) ISBN() string {
	return b.isbn
}

// MustNewBook テスト用ヘルパー
func MustNewBook(id int64, title, author string, publicationYear int, isbn string) *Book {
	b, err := NewBook(id, title, author, publicationYear, isbn)
	if err != nil {
		panic(err)
	}
	return b
}
