package circulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/domain/service"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// EventPublisher 返却イベントの送信先
type EventPublisher interface {
	PublishReturned(ctx context.Context, event issuance.ReturnedEvent) error
}

// CirculationApplicationService 貸出管理アプリケーションサービス
//
// 返却画面のデータソース（database モード）と、内部REST/gRPC APIの両方から使われる。
type CirculationApplicationService struct {
	issuanceRepo  issuance.IssuanceRepository
	memberRepo    member.MemberRepository
	txManager     issuance.TransactionManager
	returnService *service.ReturnService
	publisher     EventPublisher
	logger        *otelinfra.Logger
	metrics       *otelinfra.Metrics
	tracer        trace.Tracer
	maxRetries    int
	newEventID    func() string
}

// NewCirculationApplicationService 新しいCirculationApplicationServiceを作成
func NewCirculationApplicationService(
	issuanceRepo issuance.IssuanceRepository,
	memberRepo member.MemberRepository,
	txManager issuance.TransactionManager,
	returnService *service.ReturnService,
	publisher EventPublisher,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *CirculationApplicationService {
	return &CirculationApplicationService{
		issuanceRepo:  issuanceRepo,
		memberRepo:    memberRepo,
		txManager:     txManager,
		returnService: returnService,
		publisher:     publisher,
		logger:        logger,
		metrics:       metrics,
		tracer:        otel.Tracer("circulation-service"),
		maxRetries:    3,
		newEventID:    func() string { return uuid.New().String() },
	}
}

// IssuedBooks 会員に貸し出し中の書籍一覧を取得
func (s *CirculationApplicationService) IssuedBooks(ctx context.Context, memberID identifier.ID) ([]*issuance.Issuance, error) {
	ctx, span := s.tracer.Start(ctx, "CirculationApplicationService.IssuedBooks")
	defer span.End()

	span.SetAttributes(attribute.String("member_id", memberID.String()))

	id, ok := memberID.Int64()
	if !ok {
		err := member.ErrInvalidMemberID
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	list, err := s.issuanceRepo.FindOpenByMemberID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to find issued books", err, map[string]interface{}{
			"member_id": id,
		})
		return nil, fmt.Errorf("failed to find issued books: %w", err)
	}

	span.SetAttributes(attribute.Int("issued_books", len(list)))
	return list, nil
}

// Member 会員情報を取得
func (s *CirculationApplicationService) Member(ctx context.Context, memberID identifier.ID) (*member.Member, error) {
	ctx, span := s.tracer.Start(ctx, "CirculationApplicationService.Member")
	defer span.End()

	span.SetAttributes(attribute.String("member_id", memberID.String()))

	id, ok := memberID.Int64()
	if !ok {
		err := member.ErrInvalidMemberID
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	m, err := s.memberRepo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if errors.Is(err, member.ErrMemberNotFound) {
			return nil, err
		}
		s.logger.Error(ctx, "Failed to find member", err, map[string]interface{}{
			"member_id": id,
		})
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	return m, nil
}

// ReturnBook 書籍を返却し、記録されている料金を会員に計上する
func (s *CirculationApplicationService) ReturnBook(ctx context.Context, transactionID identifier.ID) (*issuance.Issuance, error) {
	ctx, span := s.tracer.Start(ctx, "CirculationApplicationService.ReturnBook")
	defer span.End()

	span.SetAttributes(attribute.String("transaction_id", transactionID.String()))

	id, ok := transactionID.Int64()
	if !ok {
		err := issuance.ErrInvalidIssuanceID
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.metrics.RecordReturn(ctx, otelinfra.ReturnOutcomeFailure)
		return nil, err
	}

	s.logger.Info(ctx, "Returning book", map[string]interface{}{
		"transaction_id": id,
	})

	var returned *issuance.Issuance
	var err error

	// 楽観的ロックのリトライ（トランザクションごとやり直す）
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			// 指数バックオフ
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 10 * time.Millisecond
			time.Sleep(backoff)
		}

		returned, err = s.returnOnce(ctx, id)
		if !errors.Is(err, member.ErrVersionConflict) {
			break
		}
		s.logger.Warn(ctx, "Member balance changed concurrently, retrying", map[string]interface{}{
			"transaction_id": id,
			"attempt":        attempt + 1,
		})
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.metrics.RecordReturn(ctx, otelinfra.ReturnOutcomeFailure)
		s.logger.Error(ctx, "Failed to return book", err, map[string]interface{}{
			"transaction_id": id,
		})
		return nil, err
	}

	fee, _ := returned.Fee().Float64()
	s.metrics.RecordReturn(ctx, otelinfra.ReturnOutcomeSuccess)
	s.metrics.RecordFeeCharged(ctx, fee)

	event := issuance.NewReturnedEvent(s.newEventID(), returned)
	if err := s.publisher.PublishReturned(ctx, event); err != nil {
		// 返却自体は確定しているのでエラーにはしない
		s.logger.Warn(ctx, "Failed to publish returned event", map[string]interface{}{
			"transaction_id": id,
			"event_id":       event.EventID,
			"error":          err.Error(),
		})
	}

	span.SetAttributes(
		attribute.String("fee", returned.Fee().String()),
		attribute.String("balance_after", returned.Member().Balance().String()),
	)
	s.logger.Info(ctx, "Book returned successfully", map[string]interface{}{
		"transaction_id": id,
		"member_id":      returned.Member().ID(),
		"fee":            returned.Fee().StringFixed(member.BalanceScale),
		"balance_after":  returned.Member().Balance().StringFixed(member.BalanceScale),
	})

	return returned, nil
}

func (s *CirculationApplicationService) returnOnce(ctx context.Context, id int64) (*issuance.Issuance, error) {
	var returned *issuance.Issuance

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		i, err := s.issuanceRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if i.IsReturned() {
			return issuance.ErrAlreadyReturned
		}

		m, err := s.memberRepo.FindByID(ctx, i.Member().ID())
		if err != nil {
			return fmt.Errorf("failed to find member: %w", err)
		}

		settled, err := s.returnService.Settle(i, m)
		if err != nil {
			return err
		}

		if err := s.issuanceRepo.MarkReturned(ctx, settled); err != nil {
			return err
		}
		if err := s.memberRepo.Save(ctx, settled.Member()); err != nil {
			return err
		}

		returned = settled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}
