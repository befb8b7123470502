package rdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"library-desk/internal/domain/member"
)

// MemberRepository RDB実装のMemberRepository
type MemberRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewMemberRepository 新しいMemberRepositoryを作成
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{
		db:     db,
		tracer: otel.Tracer("member-repository"),
	}
}

// FindByID 会員IDで会員を取得
func (r *MemberRepository) FindByID(ctx context.Context, id int64) (*member.Member, error) {
	ctx, span := r.tracer.Start(ctx, "MemberRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.member_id", id),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "members"),
	)

	query := `
		SELECT id, first_name, last_name, email, phone_number, balance, version
		FROM members
		WHERE id = ?
	`

	var (
		dbID      int64
		firstName string
		lastName  string
		email     string
		phone     sql.NullString
		balance   decimal.Decimal
		version   int
	)

	err := r.db.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&dbID,
		&firstName,
		&lastName,
		&email,
		&phone,
		&balance,
		&version,
	)

	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "member not found")
		return nil, member.ErrMemberNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	var phoneNumber *string
	if phone.Valid {
		phoneNumber = &phone.String
	}

	m, err := member.NewMember(dbID, firstName, lastName, email, phoneNumber, balance, version)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to reconstruct member entity: %w", err)
	}

	span.SetAttributes(attribute.Int("db.version", version))
	span.SetStatus(otelcodes.Ok, "member found")
	return m, nil
}

// Save 会員の残高を保存（楽観的ロック）
func (r *MemberRepository) Save(ctx context.Context, m *member.Member) error {
	ctx, span := r.tracer.Start(ctx, "MemberRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.member_id", m.ID()),
		attribute.String("db.balance", m.Balance().StringFixed(member.BalanceScale)),
		attribute.Int("db.version", m.Version()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "members"),
	)

	query := `
		UPDATE members
		SET balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		m.Balance().StringFixed(member.BalanceScale),
		m.ID(),
		m.Version(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		err := member.ErrVersionConflict
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "member saved")
	return nil
}
