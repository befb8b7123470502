package circulation

import (
	"context"

	"github.com/stretchr/testify/mock"

	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
)

// MockIssuanceRepository モック貸出記録リポジトリ
type MockIssuanceRepository struct {
	mock.Mock
}

func (m *MockIssuanceRepository) FindOpenByMemberID(ctx context.Context, memberID int64) ([]*issuance.Issuance, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*issuance.Issuance), args.Error(1)
}

func (m *MockIssuanceRepository) FindByID(ctx context.Context, id int64) (*issuance.Issuance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuance.Issuance), args.Error(1)
}

func (m *MockIssuanceRepository) MarkReturned(ctx context.Context, i *issuance.Issuance) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

// MockMemberRepository モック会員リポジトリ
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) FindByID(ctx context.Context, id int64) (*member.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*member.Member), args.Error(1)
}

func (m *MockMemberRepository) Save(ctx context.Context, mem *member.Member) error {
	args := m.Called(ctx, mem)
	return args.Error(0)
}

// MockTransactionManager モックトランザクションマネージャー
type MockTransactionManager struct {
	calls int
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// 実際のトランザクションは使わず、関数を直接実行
	m.calls++
	return fn(ctx)
}

// MockEventPublisher モックイベント送信
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishReturned(ctx context.Context, event issuance.ReturnedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
