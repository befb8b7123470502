package graphql

import (
	"context"
	"fmt"
	"net/http"

	gql "github.com/machinebox/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/infrastructure/config"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// Client GraphQL APIを返却画面のデータソースとして使うクライアント
type Client struct {
	client *gql.Client
	apiKey string
	logger *otelinfra.Logger
	tracer trace.Tracer
}

// NewClient 新しいGraphQLクライアントを作成
func NewClient(cfg *config.DataSourceConfig, httpClient *http.Client, logger *otelinfra.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		client: gql.NewClient(cfg.GraphQLEndpoint, gql.WithHTTPClient(httpClient)),
		apiKey: cfg.APIKey,
		logger: logger,
		tracer: otel.Tracer("graphql-client"),
	}
	c.client.Log = func(s string) {
		if logger != nil {
			logger.Debug(context.Background(), "graphql client", map[string]interface{}{"detail": s})
		}
	}
	return c
}

// IssuedBooks 会員に貸し出し中の書籍一覧を取得
func (c *Client) IssuedBooks(ctx context.Context, memberID identifier.ID) ([]*issuance.Issuance, error) {
	ctx, span := c.tracer.Start(ctx, "GraphQL.GetIssuedBooks")
	defer span.End()

	span.SetAttributes(
		attribute.String("graphql.operation", "GetIssuedBooks"),
		attribute.String("member_id", memberID.String()),
	)

	req := c.newRequest(ctx, issuedBooksQuery)
	req.Var("memberId", memberID)

	var resp issuedBooksResponse
	if err := c.client.Run(ctx, req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, newQueryError("get issued books", err)
	}

	result := make([]*issuance.Issuance, 0, len(resp.IssuedBooks))
	for _, dto := range resp.IssuedBooks {
		iss, err := dto.toDomain(memberID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to decode issued book %s: %w", dto.ID, err)
		}
		result = append(result, iss)
	}

	span.SetAttributes(attribute.Int("graphql.items", len(result)))
	span.SetStatus(otelcodes.Ok, "issued books fetched")
	return result, nil
}

// Member 会員情報を取得
func (c *Client) Member(ctx context.Context, memberID identifier.ID) (*member.Member, error) {
	ctx, span := c.tracer.Start(ctx, "GraphQL.GetMember")
	defer span.End()

	span.SetAttributes(
		attribute.String("graphql.operation", "GetMember"),
		attribute.String("member_id", memberID.String()),
	)

	req := c.newRequest(ctx, getMemberQuery)
	req.Var("memberId", memberID)

	var resp getMemberResponse
	if err := c.client.Run(ctx, req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, newQueryError("get member", err)
	}
	if resp.GetMember == nil {
		span.SetStatus(otelcodes.Error, member.ErrMemberNotFound.Error())
		return nil, member.ErrMemberNotFound
	}

	m, err := resp.GetMember.toDomain()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to decode member: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "member fetched")
	return m, nil
}

// ReturnBook 書籍を返却する
func (c *Client) ReturnBook(ctx context.Context, transactionID identifier.ID) (*issuance.Issuance, error) {
	ctx, span := c.tracer.Start(ctx, "GraphQL.ReturnBook")
	defer span.End()

	span.SetAttributes(
		attribute.String("graphql.operation", "ReturnBook"),
		attribute.String("transaction_id", transactionID.String()),
	)

	req := c.newRequest(ctx, returnBookMutation)
	req.Var("transactionId", transactionID)

	var resp returnBookResponse
	if err := c.client.Run(ctx, req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, newQueryError("return book", err)
	}
	if resp.ReturnBook == nil {
		span.SetStatus(otelcodes.Error, issuance.ErrIssuanceNotFound.Error())
		return nil, issuance.ErrIssuanceNotFound
	}

	iss, err := resp.ReturnBook.toDomain()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to decode returned book: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "book returned")
	return iss, nil
}

func (c *Client) newRequest(ctx context.Context, query string) *gql.Request {
	req := gql.NewRequest(query)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req
}
