package desk

import (
	"sync"

	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/domain/returnflow"
)

// View 返却画面1つ分の状態
//
// muはネットワーク呼び出しの間は保持しない。
type View struct {
	mu         sync.Mutex
	id         string
	memberID   identifier.ID
	generation uint64
	books      QueryState[[]*issuance.Issuance]
	member     QueryState[*member.Member]
	flow       returnflow.State
}

func newView(id string, memberID identifier.ID) *View {
	return &View{
		id:       id,
		memberID: memberID,
		flow:     returnflow.Initial(),
	}
}

// ID 画面IDを返す
func (v *View) ID() string {
	return v.id
}

func (v *View) currentMemberID() identifier.ID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.memberID
}

// Snapshot ある時点の画面状態のコピー
type Snapshot struct {
	ViewID   string
	MemberID identifier.ID
	Books    QueryState[[]*issuance.Issuance]
	Member   QueryState[*member.Member]
	Flow     returnflow.State
}

// Snapshot 現在の状態のコピーを返す
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	books := v.books
	books.Data = append([]*issuance.Issuance(nil), v.books.Data...)

	return Snapshot{
		ViewID:   v.id,
		MemberID: v.memberID,
		Books:    books,
		Member:   v.member,
		Flow:     v.flow,
	}
}

// findListed 一覧に表示されている貸出記録をIDで探す
func (v *View) findListed(transactionID string) *issuance.Issuance {
	for _, i := range v.books.Data {
		if i.ID() == transactionID {
			return i
		}
	}
	return nil
}
