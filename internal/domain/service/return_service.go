package service

import (
	"fmt"
	"time"

	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
)

// ReturnService 書籍返却のドメインサービス
type ReturnService struct {
	now func() time.Time
}

// NewReturnService 新しいReturnServiceを作成
func NewReturnService(now func() time.Time) *ReturnService {
	if now == nil {
		now = time.Now
	}
	return &ReturnService{now: now}
}

// Settle 貸出記録を返却済みにし、記録されている料金を会員の残高に計上する
//
// 料金の算出は行わない。貸出記録に保存された料金をそのまま使う。
func (s *ReturnService) Settle(i *issuance.Issuance, m *member.Member) (*issuance.Issuance, error) {
	if i.Member() != nil && i.Member().ID() != 0 && i.Member().ID() != m.ID() {
		return nil, fmt.Errorf("transaction %s belongs to member %d: %w", i.ID(), i.Member().ID(), member.ErrInvalidMemberID)
	}
	if err := i.MarkReturned(s.now()); err != nil {
		return nil, err
	}
	if err := m.Charge(i.Fee()); err != nil {
		return nil, err
	}
	return i.WithMember(m), nil
}
