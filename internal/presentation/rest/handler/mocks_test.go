package handler

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	circulationapp "library-desk/internal/application/circulation"
	deskapp "library-desk/internal/application/desk"
	"library-desk/internal/domain/book"
	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/domain/returnflow"
	"library-desk/internal/domain/service"
	"library-desk/internal/infrastructure/messaging/kafka"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// MockDataSource モックデータソース
type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) IssuedBooks(ctx context.Context, memberID identifier.ID) ([]*issuance.Issuance, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*issuance.Issuance), args.Error(1)
}

func (m *MockDataSource) Member(ctx context.Context, memberID identifier.ID) (*member.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*member.Member), args.Error(1)
}

func (m *MockDataSource) ReturnBook(ctx context.Context, transactionID identifier.ID) (*issuance.Issuance, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuance.Issuance), args.Error(1)
}

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

// MockTransactionManager トランザクションを使わずに関数を実行する
type MockTransactionManager struct{}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var (
	issuedAt   = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	returnedAt = time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)
)

func newTestLogger() *otelinfra.Logger {
	return otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
}

func newTestMetrics(t *testing.T) *otelinfra.Metrics {
	t.Helper()
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	return metrics
}

// duneIssuance 会員7（Ana Lee）に貸し出し中の取引12
func duneIssuance() *issuance.Issuance {
	return issuance.MustNewIssuance("12", issuedAt, nil, decimal.RequireFromString("150.5"),
		member.NewReference(7, "Ana", "Lee", decimal.Zero),
		book.MustNewBook(3, "Dune", "Frank Herbert", 1965, "9780441013593"))
}

func returnedDune() *issuance.Issuance {
	i := duneIssuance()
	_ = i.MarkReturned(returnedAt)
	return i.WithMember(member.NewReference(7, "Ana", "Lee", decimal.RequireFromString("470.5")))
}

func anaLee() *member.Member {
	return member.MustNewMember(7, "Ana", "Lee", "ana@example.com", nil, decimal.RequireFromString("320"), 0)
}

// newDeskService モックデータソースを使う返却画面サービス
func newDeskService(t *testing.T, source deskapp.DataSource) *deskapp.DeskApplicationService {
	t.Helper()
	metrics := newTestMetrics(t)
	views := deskapp.NewRegistry(time.Minute, time.Minute, metrics)
	return deskapp.NewDeskApplicationService(source, returnflow.NewMachine(returnflow.FailureLogOnly, "/"), views, newTestLogger(), metrics)
}

// newCirculationService モックリポジトリを使う貸出管理サービス
func newCirculationService(t *testing.T, issuances *MockIssuanceRepository, members *MockMemberRepository) *circulationapp.CirculationApplicationService {
	t.Helper()
	return circulationapp.NewCirculationApplicationService(
		issuances,
		members,
		&MockTransactionManager{},
		service.NewReturnService(func() time.Time { return returnedAt }),
		kafka.NoopPublisher{},
		newTestLogger(),
		newTestMetrics(t),
	)
}

// stubReads 会員7の2本のクエリを設定する
func stubReads(ds *MockDataSource) {
	ds.On("IssuedBooks", mock.Anything, identifier.FromInt64(7)).Return([]*issuance.Issuance{duneIssuance()}, nil)
	ds.On("Member", mock.Anything, identifier.FromInt64(7)).Return(anaLee(), nil)
}
