package desk

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/domain/returnflow"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// クエリ名（メトリクスのラベル）
const (
	QueryIssuedBooks = "issuedBooks"
	QueryGetMember   = "getMember"
)

// DeskApplicationService 返却画面アプリケーションサービス
//
// 画面ごとに2本の読み取りクエリと返却フローの状態を持ち、イベントを受けて
// 状態遷移と副作用（返却、再取得、ログ、画面遷移）を実行する。
type DeskApplicationService struct {
	source  DataSource
	machine *returnflow.Machine
	views   *Registry
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewDeskApplicationService 新しいDeskApplicationServiceを作成
func NewDeskApplicationService(
	source DataSource,
	machine *returnflow.Machine,
	views *Registry,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *DeskApplicationService {
	return &DeskApplicationService{
		source:  source,
		machine: machine,
		views:   views,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("desk-service"),
	}
}

// Mount 会員の返却画面を開く
//
// ルートの会員IDは検証せずに整数へ変換してクエリに渡す。
// 通常の取得のあと、キャッシュを使わない再取得を必ず1回行う。
func (s *DeskApplicationService) Mount(ctx context.Context, rawMemberID string) (Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "DeskApplicationService.Mount")
	defer span.End()

	memberID := identifier.Parse(rawMemberID)
	v := s.views.Create(ctx, memberID)

	span.SetAttributes(
		attribute.String("view_id", v.id),
		attribute.String("member_id", memberID.String()),
	)
	s.logger.Info(ctx, "Mounting return desk", map[string]interface{}{
		"view_id":   v.id,
		"member_id": memberID.String(),
	})

	s.load(ctx, v, false)
	s.load(ctx, v, true)

	return v.Snapshot(), nil
}

// ChangeMember 表示中の画面の会員IDを変更し、クエリを発行し直す
//
// 返却フローの状態はリセットしない。
func (s *DeskApplicationService) ChangeMember(ctx context.Context, viewID, rawMemberID string) (Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "DeskApplicationService.ChangeMember")
	defer span.End()

	v, err := s.views.Get(viewID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Snapshot{}, err
	}

	memberID := identifier.Parse(rawMemberID)
	span.SetAttributes(attribute.String("member_id", memberID.String()))

	v.mu.Lock()
	changed := v.memberID != memberID
	if changed {
		v.memberID = memberID
		v.generation++
		v.books.reset()
		v.member.reset()
	}
	v.mu.Unlock()

	if changed {
		s.load(ctx, v, false)
		s.load(ctx, v, true)
	}

	return v.Snapshot(), nil
}

// Refresh 両方のクエリをキャッシュを使わずに再取得する
func (s *DeskApplicationService) Refresh(ctx context.Context, viewID string) (Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "DeskApplicationService.Refresh")
	defer span.End()

	v, err := s.views.Get(viewID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Snapshot{}, err
	}

	s.load(ctx, v, true)
	return v.Snapshot(), nil
}

// View 画面の現在の状態を返す
func (s *DeskApplicationService) View(ctx context.Context, viewID string) (Snapshot, error) {
	v, err := s.views.Get(viewID)
	if err != nil {
		return Snapshot{}, err
	}
	return v.Snapshot(), nil
}

// Select 一覧の行を選択して確認モーダルを開く
func (s *DeskApplicationService) Select(ctx context.Context, viewID, transactionID string) (Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "DeskApplicationService.Select")
	defer span.End()

	span.SetAttributes(
		attribute.String("view_id", viewID),
		attribute.String("transaction_id", transactionID),
	)

	v, err := s.views.Get(viewID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Snapshot{}, err
	}

	v.mu.Lock()
	selected := v.findListed(transactionID)
	v.mu.Unlock()
	if selected == nil {
		err := fmt.Errorf("%w: %s", ErrTransactionNotListed, transactionID)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Snapshot{}, err
	}

	if err := s.apply(ctx, v, returnflow.SelectRow{Issuance: selected}, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Snapshot{}, err
	}
	return v.Snapshot(), nil
}

// Cancel 確認モーダルを閉じる。返却操作は呼ばない
func (s *DeskApplicationService) Cancel(ctx context.Context, viewID string) (Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "DeskApplicationService.Cancel")
	defer span.End()

	v, err := s.views.Get(viewID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Snapshot{}, err
	}

	if err := s.apply(ctx, v, returnflow.Cancel{}, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Snapshot{}, err
	}
	return v.Snapshot(), nil
}

// Confirm 選択中の貸出記録を返却する
//
// 選択がなければ何もしない。返却の完了（成功なら再取得まで）を待ってから戻る。
func (s *DeskApplicationService) Confirm(ctx context.Context, viewID string) (Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "DeskApplicationService.Confirm")
	defer span.End()

	span.SetAttributes(attribute.String("view_id", viewID))

	v, err := s.views.Get(viewID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Snapshot{}, err
	}

	if err := s.apply(ctx, v, returnflow.Confirm{}, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Snapshot{}, err
	}
	return v.Snapshot(), nil
}

// Dismiss 結果モーダルを閉じてホームに遷移する。画面は破棄される
func (s *DeskApplicationService) Dismiss(ctx context.Context, viewID string, nav Navigator) error {
	ctx, span := s.tracer.Start(ctx, "DeskApplicationService.Dismiss")
	defer span.End()

	if nav == nil {
		return ErrNavigatorRequired
	}

	v, err := s.views.Get(viewID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	if err := s.apply(ctx, v, returnflow.Dismiss{}, nav); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	s.views.Remove(viewID)
	return nil
}

// apply イベントで状態を遷移させ、出てきた副作用を実行する
func (s *DeskApplicationService) apply(ctx context.Context, v *View, e returnflow.Event, nav Navigator) error {
	v.mu.Lock()
	next, effects, err := s.machine.Transition(v.flow, e)
	if err != nil {
		v.mu.Unlock()
		return err
	}
	v.flow = next
	v.mu.Unlock()

	return s.run(ctx, v, effects, nav)
}

func (s *DeskApplicationService) run(ctx context.Context, v *View, effects []returnflow.Effect, nav Navigator) error {
	for _, effect := range effects {
		switch e := effect.(type) {
		case returnflow.ReturnBookEffect:
			returned, err := s.source.ReturnBook(ctx, e.TransactionID)
			var outcome returnflow.Event = returnflow.Succeeded{Issuance: returned}
			if err != nil {
				outcome = returnflow.Failed{Err: err}
			}
			if err := s.apply(ctx, v, outcome, nav); err != nil {
				return err
			}

		case returnflow.RefetchEffect:
			s.load(ctx, v, true)

		case returnflow.LogErrorEffect:
			s.metrics.RecordError(ctx, "return_book")
			s.logger.Error(ctx, "Error returning book", e.Err, map[string]interface{}{
				"view_id":   v.id,
				"member_id": v.currentMemberID().String(),
			})

		case returnflow.NavigateEffect:
			if nav == nil {
				return ErrNavigatorRequired
			}
			if err := nav.Navigate(e.Route); err != nil {
				return fmt.Errorf("failed to navigate: %w", err)
			}
		}
	}
	return nil
}

// load 2本の読み取りクエリを並行して発行し、結果を画面に反映する
//
// 片方の失敗はもう片方を止めない。会員IDが途中で変わった場合、結果は捨てる。
func (s *DeskApplicationService) load(ctx context.Context, v *View, forced bool) {
	ctx, span := s.tracer.Start(ctx, "DeskApplicationService.load")
	defer span.End()

	v.mu.Lock()
	generation, memberID := v.generation, v.memberID
	v.books.begin(memberID)
	v.member.begin(memberID)
	v.mu.Unlock()

	span.SetAttributes(
		attribute.String("member_id", memberID.String()),
		attribute.Bool("forced", forced),
	)

	if forced {
		if r, ok := s.source.(Refetcher); ok {
			r.Evict(memberID)
		}
	}
	s.metrics.RecordQueryFetch(ctx, QueryIssuedBooks, forced)
	s.metrics.RecordQueryFetch(ctx, QueryGetMember, forced)

	var (
		books     []*issuance.Issuance
		booksErr  error
		m         *member.Member
		memberErr error
		g         errgroup.Group
	)
	g.Go(func() error {
		books, booksErr = s.source.IssuedBooks(ctx, memberID)
		return nil
	})
	g.Go(func() error {
		m, memberErr = s.source.Member(ctx, memberID)
		return nil
	})
	_ = g.Wait()

	if booksErr != nil {
		span.RecordError(booksErr)
		s.logger.Warn(ctx, "Issued books query failed", map[string]interface{}{
			"member_id": memberID.String(),
			"error":     booksErr.Error(),
		})
	}
	if memberErr != nil {
		span.RecordError(memberErr)
		s.logger.Warn(ctx, "Member query failed", map[string]interface{}{
			"member_id": memberID.String(),
			"error":     memberErr.Error(),
		})
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.generation != generation {
		span.SetAttributes(attribute.Bool("superseded", true))
		return
	}
	v.books.finish(books, booksErr)
	v.member.finish(m, memberErr)
}
