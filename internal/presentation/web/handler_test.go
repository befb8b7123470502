package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	deskapp "library-desk/internal/application/desk"
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

var issuedAt = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func duneIssuance() *issuance.Issuance {
	return issuance.MustNewIssuance("12", issuedAt, nil, decimal.RequireFromString("150.5"),
		member.NewReference(7, "Ana", "Lee", decimal.Zero),
		book.MustNewBook(3, "Dune", "Frank Herbert", 1965, "9780441013593"))
}

func anaLee() *member.Member {
	return member.MustNewMember(7, "Ana", "Lee", "ana@example.com", nil, decimal.RequireFromString("320"), 0)
}

func newTestEcho(t *testing.T, source *MockDataSource) *echo.Echo {
	t.Helper()

	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	renderer, err := NewRenderer()
	require.NoError(t, err)

	service := deskapp.NewDeskApplicationService(
		source,
		returnflow.NewMachine(returnflow.FailureShowResult, "/"),
		deskapp.NewRegistry(time.Minute, time.Minute, metrics),
		logger,
		metrics,
	)

	e := echo.New()
	e.Renderer = renderer
	NewHandler(service, deskapp.NewDisplayOptions("KES", "1/2/2006", time.UTC), "/", logger).Register(e)
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func post(e *echo.Echo, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// mountView 会員の返却画面を開き、画面のパスを返す
func mountView(t *testing.T, e *echo.Echo, memberID string) string {
	t.Helper()
	rec := get(e, "/members/"+memberID+"/return")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get(echo.HeaderLocation)
	require.True(t, strings.HasPrefix(location, "/views/"))
	return location
}

func TestHandler_Home(t *testing.T) {
	e := newTestEcho(t, new(MockDataSource))

	rec := get(e, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/members/return"`)
}

func TestHandler_Lookup(t *testing.T) {
	e := newTestEcho(t, new(MockDataSource))

	rec := get(e, "/members/return?member_id=7")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/members/7/return", rec.Header().Get(echo.HeaderLocation))
}

func TestHandler_ReturnScenario(t *testing.T) {
	returned := duneIssuance()
	require.NoError(t, returned.MarkReturned(issuedAt.Add(48*time.Hour)))

	source := new(MockDataSource)
	source.On("IssuedBooks", mock.Anything, identifier.FromInt64(7)).Return([]*issuance.Issuance{duneIssuance()}, nil)
	source.On("Member", mock.Anything, identifier.FromInt64(7)).Return(anaLee(), nil)
	source.On("ReturnBook", mock.Anything, identifier.FromInt64(12)).Return(returned, nil).Once()

	e := newTestEcho(t, source)
	view := mountView(t, e, "7")

	// 一覧
	rec := get(e, view)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Books Issued to Member")
	assert.Contains(t, body, "<td>Dune</td>")
	assert.Contains(t, body, "<td>1/5/2026</td>")
	assert.NotContains(t, body, "Confirm Return")

	// 行の返却ボタン
	rec = post(e, view+"/select", url.Values{"transaction_id": {"12"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, view, rec.Header().Get(echo.HeaderLocation))

	body = get(e, view).Body.String()
	assert.Contains(t, body, "Are you sure you want to return the book: Dune?")
	assert.Contains(t, body, "Ana Lee will be charged KES 150.50")

	// 返却確定
	rec = post(e, view+"/confirm", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body = get(e, view).Body.String()
	assert.Contains(t, body, "Book Return Successfully")
	assert.Contains(t, body, "The book has been successfully returned.")
	assert.NotContains(t, body, "Confirm Return")

	// 二重送信は画面に戻るだけ
	rec = post(e, view+"/confirm", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, view, rec.Header().Get(echo.HeaderLocation))

	// OKでホームへ
	rec = post(e, view+"/dismiss", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	rec = get(e, view)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "This page has expired.")

	source.AssertNumberOfCalls(t, "ReturnBook", 1)
}

func TestHandler_ConfirmFailureShowsResult(t *testing.T) {
	source := new(MockDataSource)
	source.On("IssuedBooks", mock.Anything, identifier.FromInt64(7)).Return([]*issuance.Issuance{duneIssuance()}, nil)
	source.On("Member", mock.Anything, identifier.FromInt64(7)).Return(anaLee(), nil)
	source.On("ReturnBook", mock.Anything, identifier.FromInt64(12)).Return(nil, errors.New("insufficient permissions"))

	e := newTestEcho(t, source)
	view := mountView(t, e, "7")

	post(e, view+"/select", url.Values{"transaction_id": {"12"}})
	rec := post(e, view+"/confirm", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := get(e, view).Body.String()
	assert.Contains(t, body, "Book return Failed")
	assert.Contains(t, body, "Book return failed.")
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(source *MockDataSource)
		action     func(t *testing.T, e *echo.Echo) *httptest.ResponseRecorder
		wantStatus int
		wantBody   string
		wantLoc    string
	}{
		{
			name: "正常系: クエリ失敗時はエラーメッセージだけを表示",
			setup: func(source *MockDataSource) {
				source.On("IssuedBooks", mock.Anything, identifier.FromInt64(7)).Return(nil, errors.New("network down"))
				source.On("Member", mock.Anything, identifier.FromInt64(7)).Return(anaLee(), nil)
			},
			action: func(t *testing.T, e *echo.Echo) *httptest.ResponseRecorder {
				return get(e, mountView(t, e, "7"))
			},
			wantStatus: http.StatusOK,
			wantBody:   "Error: network down",
		},
		{
			name:  "異常系: 存在しない画面は404",
			setup: func(source *MockDataSource) {},
			action: func(t *testing.T, e *echo.Echo) *httptest.ResponseRecorder {
				return get(e, "/views/unknown")
			},
			wantStatus: http.StatusNotFound,
			wantBody:   "This page has expired.",
		},
		{
			name:  "異常系: 存在しない画面への操作も404",
			setup: func(source *MockDataSource) {},
			action: func(t *testing.T, e *echo.Echo) *httptest.ResponseRecorder {
				return post(e, "/views/unknown/confirm", nil)
			},
			wantStatus: http.StatusNotFound,
			wantBody:   "This page has expired.",
		},
		{
			name: "異常系: 一覧にない取引の選択は画面に戻る",
			setup: func(source *MockDataSource) {
				source.On("IssuedBooks", mock.Anything, identifier.FromInt64(7)).Return([]*issuance.Issuance{duneIssuance()}, nil)
				source.On("Member", mock.Anything, identifier.FromInt64(7)).Return(anaLee(), nil)
			},
			action: func(t *testing.T, e *echo.Echo) *httptest.ResponseRecorder {
				view := mountView(t, e, "7")
				return post(e, view+"/select", url.Values{"transaction_id": {"99"}})
			},
			wantStatus: http.StatusSeeOther,
			wantLoc:    "/views/",
		},
		{
			name: "異常系: 結果モーダルがない状態のOKは画面に戻る",
			setup: func(source *MockDataSource) {
				source.On("IssuedBooks", mock.Anything, identifier.FromInt64(7)).Return([]*issuance.Issuance{duneIssuance()}, nil)
				source.On("Member", mock.Anything, identifier.FromInt64(7)).Return(anaLee(), nil)
			},
			action: func(t *testing.T, e *echo.Echo) *httptest.ResponseRecorder {
				view := mountView(t, e, "7")
				return post(e, view+"/dismiss", nil)
			},
			wantStatus: http.StatusSeeOther,
			wantLoc:    "/views/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(MockDataSource)
			tt.setup(source)
			e := newTestEcho(t, source)

			rec := tt.action(t, e)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			if tt.wantLoc != "" {
				assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), tt.wantLoc))
			}
		})
	}
}

func TestRenderer_UnknownPage(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	err = renderer.Render(&strings.Builder{}, "missing.html", nil, nil)
	assert.Error(t, err)
}
