package issuance

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnedEvent 書籍が返却されたことを表すドメインイベント
type ReturnedEvent struct {
	EventID       string          `json:"event_id"`
	TransactionID string          `json:"transaction_id"`
	MemberID      int64           `json:"member_id"`
	BookID        int64           `json:"book_id"`
	BookTitle     string          `json:"book_title"`
	Fee           decimal.Decimal `json:"fee"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReturnedAt    time.Time       `json:"returned_at"`
}

// NewReturnedEvent 返却済みの貸出記録からイベントを作成
func NewReturnedEvent(eventID string, i *Issuance) ReturnedEvent {
	ev := ReturnedEvent{
		EventID:       eventID,
		TransactionID: i.ID(),
		Fee:           i.Fee(),
	}
	if i.Member() != nil {
		ev.MemberID = i.Member().ID()
		ev.BalanceAfter = i.Member().Balance()
	}
	if i.Book() != nil {
		ev.BookID = i.Book().ID()
		ev.BookTitle = i.Book().Title()
	}
	if i.ReturnDate() != nil {
		ev.ReturnedAt = *i.ReturnDate()
	}
	return ev
}
