package grpcclient

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	circulationapp "library-desk/internal/application/circulation"
	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/infrastructure/config"
	"library-desk/internal/presentation/grpc/interceptor"
	"library-desk/internal/presentation/grpc/pb"
)

// Client 貸出管理gRPCサービスを返却画面のデータソースとして使うクライアント
type Client struct {
	conn    *grpc.ClientConn
	client  pb.CirculationServiceClient
	apiKey  string
	timeout time.Duration
	tracer  trace.Tracer
}

// NewClient cfg.GRPCTarget に接続するクライアントを作成
func NewClient(cfg *config.DataSourceConfig, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(cfg.GRPCTarget, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", cfg.GRPCTarget, err)
	}

	return &Client{
		conn:    conn,
		client:  pb.NewCirculationServiceClient(conn),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		tracer:  otel.Tracer("grpc-client"),
	}, nil
}

// Close 接続を閉じる
func (c *Client) Close() error {
	return c.conn.Close()
}

// IssuedBooks 会員に貸し出し中の書籍一覧を取得
func (c *Client) IssuedBooks(ctx context.Context, memberID identifier.ID) ([]*issuance.Issuance, error) {
	ctx, span := c.tracer.Start(ctx, "gRPC.IssuedBooks")
	defer span.End()

	span.SetAttributes(attribute.String("member_id", memberID.String()))

	req, err := pb.Encode(pb.MemberRequest{MemberID: memberID})
	if err != nil {
		return nil, c.fail(span, err)
	}

	ctx, cancel := c.outgoing(ctx)
	defer cancel()

	resp, err := c.client.IssuedBooks(ctx, req)
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("failed to get issued books: %w", err))
	}

	var dto circulationapp.IssuedBooksDTO
	if err := pb.Decode(resp, &dto); err != nil {
		return nil, c.fail(span, err)
	}

	result := make([]*issuance.Issuance, 0, len(dto.IssuedBooks))
	for _, d := range dto.IssuedBooks {
		iss, err := d.ToDomain()
		if err != nil {
			return nil, c.fail(span, fmt.Errorf("failed to decode issued book %s: %w", d.ID, err))
		}
		result = append(result, iss)
	}

	span.SetAttributes(attribute.Int("grpc.items", len(result)))
	return result, nil
}

// Member 会員情報を取得
func (c *Client) Member(ctx context.Context, memberID identifier.ID) (*member.Member, error) {
	ctx, span := c.tracer.Start(ctx, "gRPC.GetMember")
	defer span.End()

	span.SetAttributes(attribute.String("member_id", memberID.String()))

	req, err := pb.Encode(pb.MemberRequest{MemberID: memberID})
	if err != nil {
		return nil, c.fail(span, err)
	}

	ctx, cancel := c.outgoing(ctx)
	defer cancel()

	resp, err := c.client.GetMember(ctx, req)
	if status.Code(err) == codes.NotFound {
		return nil, c.fail(span, member.ErrMemberNotFound)
	}
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("failed to get member: %w", err))
	}

	var dto circulationapp.MemberDTO
	if err := pb.Decode(resp, &dto); err != nil {
		return nil, c.fail(span, err)
	}

	m, err := dto.ToDomain()
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("failed to decode member: %w", err))
	}
	return m, nil
}

// ReturnBook 書籍を返却する
func (c *Client) ReturnBook(ctx context.Context, transactionID identifier.ID) (*issuance.Issuance, error) {
	ctx, span := c.tracer.Start(ctx, "gRPC.ReturnBook")
	defer span.End()

	span.SetAttributes(attribute.String("transaction_id", transactionID.String()))

	req, err := pb.Encode(pb.ReturnBookRequest{TransactionID: transactionID})
	if err != nil {
		return nil, c.fail(span, err)
	}

	ctx, cancel := c.outgoing(ctx)
	defer cancel()

	resp, err := c.client.ReturnBook(ctx, req)
	switch status.Code(err) {
	case codes.OK:
	case codes.NotFound:
		return nil, c.fail(span, issuance.ErrIssuanceNotFound)
	case codes.FailedPrecondition:
		return nil, c.fail(span, fmt.Errorf("%w: %s", issuance.ErrAlreadyReturned, status.Convert(err).Message()))
	default:
		return nil, c.fail(span, fmt.Errorf("failed to return book: %w", err))
	}

	var dto circulationapp.IssuanceDTO
	if err := pb.Decode(resp, &dto); err != nil {
		return nil, c.fail(span, err)
	}

	iss, err := dto.ToDomain()
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("failed to decode returned book: %w", err))
	}
	return iss, nil
}

// outgoing APIキーとトレースコンテキストをメタデータに付け、タイムアウトを設定する
func (c *Client) outgoing(ctx context.Context) (context.Context, context.CancelFunc) {
	md := metadata.MD{}
	if c.apiKey != "" {
		md.Set(interceptor.APIKeyMetadata, c.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, metadataCarrier(md))
	ctx = metadata.NewOutgoingContext(ctx, md)

	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}

// metadataCarrier gRPCメタデータをpropagation.TextMapCarrierとして扱う
type metadataCarrier metadata.MD

func (m metadataCarrier) Get(key string) string {
	if v := metadata.MD(m).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (m metadataCarrier) Set(key, value string) {
	metadata.MD(m).Set(key, value)
}

func (m metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
