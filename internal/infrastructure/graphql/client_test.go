package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/infrastructure/config"
)

type capturedRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
	APIKey    string                 `json:"-"`
}

func newTestServer(t *testing.T, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		captured.APIKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, apiKey string) *Client {
	return NewClient(&config.DataSourceConfig{
		GraphQLEndpoint: srv.URL,
		APIKey:          apiKey,
	}, srv.Client(), nil)
}

func TestClient_IssuedBooks(t *testing.T) {
	tests := []struct {
		name         string
		memberID     identifier.ID
		body         string
		wantVariable interface{}
		wantTitles   []string
		wantError    string
	}{
		{
			name:     "正常系: 貸出一覧を取得",
			memberID: identifier.Parse("7"),
			body: `{"data":{"issuedBooks":[{"issueDate":"2026-01-05T10:00:00+00:00","id":"12",
				"member":{"firstName":"Ana","lastName":"Lee"},
				"book":{"title":"Dune","author":"Frank Herbert","publicationYear":1965},"fee":"150.50"}]}}`,
			wantVariable: float64(7),
			wantTitles:   []string{"Dune"},
		},
		{
			name:         "正常系: 数値でない会員IDはnullとして送る",
			memberID:     identifier.Parse("abc"),
			body:         `{"data":{"issuedBooks":[]}}`,
			wantVariable: nil,
			wantTitles:   []string{},
		},
		{
			name:         "異常系: GraphQLエラー",
			memberID:     identifier.Parse("7"),
			body:         `{"errors":[{"message":"Member matching query does not exist."}]}`,
			wantVariable: float64(7),
			wantError:    "Member matching query does not exist.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured capturedRequest
			srv := newTestServer(t, tt.body, &captured)
			client := newTestClient(srv, "")

			got, err := client.IssuedBooks(context.Background(), tt.memberID)

			assert.Contains(t, captured.Query, "query GetIssuedBooks($memberId: Int!)")
			require.Contains(t, captured.Variables, "memberId")
			assert.Equal(t, tt.wantVariable, captured.Variables["memberId"])

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				assert.Nil(t, got)

				// 画面にはサーバーの文言だけを出す
				var qe *QueryError
				require.True(t, errors.As(err, &qe))
				assert.Equal(t, "get issued books", qe.Operation)
				assert.Equal(t, tt.wantError, qe.Message())
				return
			}

			require.NoError(t, err)
			titles := make([]string, 0, len(got))
			for _, i := range got {
				titles = append(titles, i.Book().Title())
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}
}

func TestClient_IssuedBooks_Fields(t *testing.T) {
	var captured capturedRequest
	srv := newTestServer(t, `{"data":{"issuedBooks":[{"issueDate":"2026-01-05T10:00:00+00:00","id":"12",
		"member":{"firstName":"Ana","lastName":"Lee"},
		"book":{"title":"Dune","author":"Frank Herbert","publicationYear":1965},"fee":150.5}]}}`, &captured)
	client := newTestClient(srv, "secret")

	got, err := client.IssuedBooks(context.Background(), identifier.Parse("7"))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "secret", captured.APIKey)
	assert.Equal(t, "12", got[0].ID())
	assert.Equal(t, "Ana Lee", got[0].Member().FullName())
	assert.Equal(t, int64(7), got[0].Member().ID())
	assert.Equal(t, "Frank Herbert", got[0].Book().Author())
	assert.True(t, decimal.RequireFromString("150.50").Equal(got[0].Fee()))
	assert.Equal(t, 2026, got[0].IssueDate().Year())
}

func TestClient_Member(t *testing.T) {
	t.Run("正常系: 会員情報を取得", func(t *testing.T) {
		var captured capturedRequest
		srv := newTestServer(t, `{"data":{"getMember":{"id":"7","firstName":"Ana","lastName":"Lee",
			"email":"ana@example.com","phoneNumber":null,"balance":"320.00"}}}`, &captured)

		got, err := newTestClient(srv, "").Member(context.Background(), identifier.Parse("7"))
		require.NoError(t, err)

		assert.True(t, strings.Contains(captured.Query, "query GetMember($memberId: Int!)"))
		assert.Equal(t, float64(7), captured.Variables["memberId"])
		assert.Equal(t, int64(7), got.ID())
		assert.Equal(t, "ana@example.com", got.Email())
		assert.Nil(t, got.PhoneNumber())
		assert.True(t, decimal.RequireFromString("320").Equal(got.Balance()))
	})

	t.Run("異常系: 会員が存在しない", func(t *testing.T) {
		var captured capturedRequest
		srv := newTestServer(t, `{"data":{"getMember":null}}`, &captured)

		got, err := newTestClient(srv, "").Member(context.Background(), identifier.Parse("404"))
		assert.ErrorIs(t, err, member.ErrMemberNotFound)
		assert.Nil(t, got)
	})
}

func TestClient_ReturnBook(t *testing.T) {
	t.Run("正常系: 返却結果を取得", func(t *testing.T) {
		var captured capturedRequest
		srv := newTestServer(t, `{"data":{"returnBook":{"fee":"150.50","id":"12",
			"issueDate":"2026-01-05T10:00:00+00:00","returnDate":"2026-01-20T15:00:00+00:00",
			"book":{"id":"3","title":"Dune","publicationYear":1965,"isbn":"9780441013593"},
			"member":{"balance":"470.50","lastName":"Lee","firstName":"Ana"}}}}`, &captured)

		got, err := newTestClient(srv, "").ReturnBook(context.Background(), identifier.Parse("12"))
		require.NoError(t, err)

		assert.Contains(t, captured.Query, "mutation ReturnBook($transactionId: Int!)")
		assert.Equal(t, float64(12), captured.Variables["transactionId"])
		assert.True(t, got.IsReturned())
		assert.Equal(t, int64(3), got.Book().ID())
		assert.Equal(t, "9780441013593", got.Book().ISBN())
		assert.True(t, decimal.RequireFromString("470.50").Equal(got.Member().Balance()))
	})

	t.Run("異常系: 貸出記録が存在しない", func(t *testing.T) {
		var captured capturedRequest
		srv := newTestServer(t, `{"data":{"returnBook":null}}`, &captured)

		got, err := newTestClient(srv, "").ReturnBook(context.Background(), identifier.Parse("12"))
		assert.ErrorIs(t, err, issuance.ErrIssuanceNotFound)
		assert.Nil(t, got)
	})

	t.Run("異常系: サーバーエラー", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		got, err := newTestClient(srv, "").ReturnBook(context.Background(), identifier.Parse("12"))
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}
