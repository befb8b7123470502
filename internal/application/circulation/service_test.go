package circulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"library-desk/internal/domain/book"
	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/domain/service"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

var (
	issuedAt   = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	returnedAt = time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)
)

func openIssuance() *issuance.Issuance {
	return issuance.MustNewIssuance("12", issuedAt, nil, decimal.RequireFromString("150.5"),
		member.NewReference(7, "Ana", "Lee", decimal.Zero),
		book.MustNewBook(3, "Dune", "Frank Herbert", 1965, "9780441013593"))
}

func ana() *member.Member {
	return member.MustNewMember(7, "Ana", "Lee", "ana@example.com", nil, decimal.RequireFromString("320"), 2)
}

type fixture struct {
	issuances *MockIssuanceRepository
	members   *MockMemberRepository
	txManager *MockTransactionManager
	publisher *MockEventPublisher
	svc       *CirculationApplicationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		issuances: new(MockIssuanceRepository),
		members:   new(MockMemberRepository),
		txManager: new(MockTransactionManager),
		publisher: new(MockEventPublisher),
	}

	// モックロガーとメトリクスを作成（実際の実装を使う）
	tracer := otel.Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	f.svc = NewCirculationApplicationService(
		f.issuances,
		f.members,
		f.txManager,
		service.NewReturnService(func() time.Time { return returnedAt }),
		f.publisher,
		logger,
		metrics,
	)
	f.svc.newEventID = func() string { return "evt-1" }
	return f
}

func TestCirculationApplicationService_IssuedBooks(t *testing.T) {
	tests := []struct {
		name       string
		memberID   identifier.ID
		setupMocks func(*MockIssuanceRepository)
		wantLen    int
		wantError  error
	}{
		{
			name:     "正常系: 貸出中の書籍を取得",
			memberID: identifier.Parse("7"),
			setupMocks: func(m *MockIssuanceRepository) {
				m.On("FindOpenByMemberID", mock.Anything, int64(7)).Return([]*issuance.Issuance{openIssuance()}, nil)
			},
			wantLen: 1,
		},
		{
			name:       "異常系: 数値でない会員ID",
			memberID:   identifier.Parse("seven"),
			setupMocks: func(m *MockIssuanceRepository) {},
			wantError:  member.ErrInvalidMemberID,
		},
		{
			name:     "異常系: リポジトリエラー",
			memberID: identifier.Parse("7"),
			setupMocks: func(m *MockIssuanceRepository) {
				m.On("FindOpenByMemberID", mock.Anything, int64(7)).Return(nil, errors.New("db error"))
			},
			wantError: errors.New("failed to find issued books: db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMocks(f.issuances)

			got, err := f.svc.IssuedBooks(context.Background(), tt.memberID)

			if tt.wantError != nil {
				require.Error(t, err)
				assert.EqualError(t, err, tt.wantError.Error())
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Len(t, got, tt.wantLen)
			}

			f.issuances.AssertExpectations(t)
		})
	}
}

func TestCirculationApplicationService_Member(t *testing.T) {
	t.Run("正常系: 会員情報を取得", func(t *testing.T) {
		f := newFixture(t)
		f.members.On("FindByID", mock.Anything, int64(7)).Return(ana(), nil)

		got, err := f.svc.Member(context.Background(), identifier.Parse("7"))
		require.NoError(t, err)
		assert.Equal(t, "Ana Lee", got.FullName())
	})

	t.Run("異常系: 会員が存在しない", func(t *testing.T) {
		f := newFixture(t)
		f.members.On("FindByID", mock.Anything, int64(404)).Return(nil, member.ErrMemberNotFound)

		got, err := f.svc.Member(context.Background(), identifier.Parse("404"))
		assert.ErrorIs(t, err, member.ErrMemberNotFound)
		assert.Nil(t, got)
	})

	t.Run("異常系: 数値でない会員ID", func(t *testing.T) {
		f := newFixture(t)

		got, err := f.svc.Member(context.Background(), identifier.Invalid())
		assert.ErrorIs(t, err, member.ErrInvalidMemberID)
		assert.Nil(t, got)
		f.members.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestCirculationApplicationService_ReturnBook(t *testing.T) {
	t.Run("正常系: 返却して料金を計上", func(t *testing.T) {
		f := newFixture(t)
		f.issuances.On("FindByID", mock.Anything, int64(12)).Return(openIssuance(), nil)
		f.members.On("FindByID", mock.Anything, int64(7)).Return(ana(), nil)
		f.issuances.On("MarkReturned", mock.Anything, mock.AnythingOfType("*issuance.Issuance")).Return(nil)
		f.members.On("Save", mock.Anything, mock.AnythingOfType("*member.Member")).Return(nil)
		f.publisher.On("PublishReturned", mock.Anything, mock.MatchedBy(func(ev issuance.ReturnedEvent) bool {
			return ev.EventID == "evt-1" && ev.TransactionID == "12" && ev.MemberID == 7 &&
				ev.BalanceAfter.Equal(decimal.RequireFromString("470.50"))
		})).Return(nil)

		got, err := f.svc.ReturnBook(context.Background(), identifier.Parse("12"))
		require.NoError(t, err)

		require.NotNil(t, got.ReturnDate())
		assert.Equal(t, returnedAt, *got.ReturnDate())
		assert.True(t, decimal.RequireFromString("470.50").Equal(got.Member().Balance()))
		assert.Equal(t, "Ana Lee", got.Member().FullName())
		assert.Equal(t, 1, f.txManager.calls)

		f.issuances.AssertExpectations(t)
		f.members.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("正常系: バージョン競合時はトランザクションごとリトライ", func(t *testing.T) {
		f := newFixture(t)
		f.issuances.On("FindByID", mock.Anything, int64(12)).Return(openIssuance(), nil).Once()
		f.issuances.On("FindByID", mock.Anything, int64(12)).Return(openIssuance(), nil).Once()
		f.members.On("FindByID", mock.Anything, int64(7)).Return(ana(), nil).Once()
		f.members.On("FindByID", mock.Anything, int64(7)).Return(ana(), nil).Once()
		f.issuances.On("MarkReturned", mock.Anything, mock.Anything).Return(nil)
		f.members.On("Save", mock.Anything, mock.Anything).Return(member.ErrVersionConflict).Once()
		f.members.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
		f.publisher.On("PublishReturned", mock.Anything, mock.Anything).Return(nil)

		got, err := f.svc.ReturnBook(context.Background(), identifier.Parse("12"))
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("470.50").Equal(got.Member().Balance()))
		assert.Equal(t, 2, f.txManager.calls)
		f.members.AssertExpectations(t)
	})

	t.Run("正常系: イベント送信に失敗しても返却は成功", func(t *testing.T) {
		f := newFixture(t)
		f.issuances.On("FindByID", mock.Anything, int64(12)).Return(openIssuance(), nil)
		f.members.On("FindByID", mock.Anything, int64(7)).Return(ana(), nil)
		f.issuances.On("MarkReturned", mock.Anything, mock.Anything).Return(nil)
		f.members.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("PublishReturned", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		got, err := f.svc.ReturnBook(context.Background(), identifier.Parse("12"))
		require.NoError(t, err)
		assert.True(t, got.IsReturned())
	})

	t.Run("異常系: すでに返却済み", func(t *testing.T) {
		f := newFixture(t)
		returned := openIssuance()
		require.NoError(t, returned.MarkReturned(returnedAt))
		f.issuances.On("FindByID", mock.Anything, int64(12)).Return(returned, nil)

		got, err := f.svc.ReturnBook(context.Background(), identifier.Parse("12"))
		assert.ErrorIs(t, err, issuance.ErrAlreadyReturned)
		assert.Nil(t, got)
		f.issuances.AssertNotCalled(t, "MarkReturned", mock.Anything, mock.Anything)
		f.publisher.AssertNotCalled(t, "PublishReturned", mock.Anything, mock.Anything)
	})

	t.Run("異常系: 貸出記録が存在しない", func(t *testing.T) {
		f := newFixture(t)
		f.issuances.On("FindByID", mock.Anything, int64(404)).Return(nil, issuance.ErrIssuanceNotFound)

		got, err := f.svc.ReturnBook(context.Background(), identifier.Parse("404"))
		assert.ErrorIs(t, err, issuance.ErrIssuanceNotFound)
		assert.Nil(t, got)
	})

	t.Run("異常系: 数値でない貸出ID", func(t *testing.T) {
		f := newFixture(t)

		got, err := f.svc.ReturnBook(context.Background(), identifier.Parse("x12"))
		assert.ErrorIs(t, err, issuance.ErrInvalidIssuanceID)
		assert.Nil(t, got)
		assert.Equal(t, 0, f.txManager.calls)
	})

	t.Run("異常系: 残高の上限を超える", func(t *testing.T) {
		f := newFixture(t)
		rich := member.MustNewMember(7, "Ana", "Lee", "ana@example.com", nil, member.MaxBalance, 0)
		f.issuances.On("FindByID", mock.Anything, int64(12)).Return(openIssuance(), nil)
		f.members.On("FindByID", mock.Anything, int64(7)).Return(rich, nil)

		got, err := f.svc.ReturnBook(context.Background(), identifier.Parse("12"))
		assert.ErrorIs(t, err, member.ErrBalanceOutOfRange)
		assert.Nil(t, got)
		f.members.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
