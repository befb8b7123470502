package desk

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"library-desk/internal/domain/book"
	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/domain/returnflow"
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

// MockCachingDataSource Evictを持つモックデータソース
type MockCachingDataSource struct {
	MockDataSource
}

func (m *MockCachingDataSource) Evict(memberID identifier.ID) {
	m.Called(memberID)
}

// recordingNavigator 遷移先を記録する
type recordingNavigator struct {
	routes []string
}

func (n *recordingNavigator) Navigate(route string) error {
	n.routes = append(n.routes, route)
	return nil
}

var issuedAt = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

// duneIssuance 会員7（Ana Lee）に貸し出し中の取引12
func duneIssuance() *issuance.Issuance {
	return issuance.MustNewIssuance("12", issuedAt, nil, decimal.RequireFromString("150.5"),
		member.NewReference(7, "Ana", "Lee", decimal.Zero),
		book.MustNewBook(0, "Dune", "Frank Herbert", 1965, ""))
}

func emmaIssuance() *issuance.Issuance {
	return issuance.MustNewIssuance("13", issuedAt.Add(24*time.Hour), nil, decimal.RequireFromString("20"),
		member.NewReference(7, "Ana", "Lee", decimal.Zero),
		book.MustNewBook(0, "Emma", "Jane Austen", 1815, ""))
}

func returnedDune() *issuance.Issuance {
	i := duneIssuance()
	_ = i.MarkReturned(issuedAt.Add(72 * time.Hour))
	return i.WithMember(member.NewReference(0, "Ana", "Lee", decimal.RequireFromString("470.5")))
}

func anaLee() *member.Member {
	return member.MustNewMember(7, "Ana", "Lee", "ana@example.com", nil, decimal.RequireFromString("320"), 0)
}

type deskFixture struct {
	source *MockDataSource
	svc    *DeskApplicationService
	views  *Registry
	logs   *bytes.Buffer
}

func newDeskFixture(t *testing.T, source DataSource, policy returnflow.FailurePolicy) *deskFixture {
	t.Helper()

	logs := &bytes.Buffer{}
	logger := otelinfra.NewLoggerWithHandler(noop.NewTracerProvider().Tracer("test"), slog.NewJSONHandler(logs, nil))
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	views := NewRegistry(time.Minute, time.Minute, metrics)
	svc := NewDeskApplicationService(source, returnflow.NewMachine(policy, "/"), views, logger, metrics)

	f := &deskFixture{svc: svc, views: views, logs: logs}
	if ms, ok := source.(*MockDataSource); ok {
		f.source = ms
	}
	return f
}

// stubReads 会員7の2本のクエリを設定する
func stubReads(ds *MockDataSource, books []*issuance.Issuance) {
	ds.On("IssuedBooks", mock.Anything, identifier.FromInt64(7)).Return(books, nil)
	ds.On("Member", mock.Anything, identifier.FromInt64(7)).Return(anaLee(), nil)
}
