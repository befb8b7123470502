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

	"library-desk/internal/domain/book"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
)

const issuanceColumns = `
		SELECT t.id, t.issue_date, t.return_date, t.fee,
			m.id, m.first_name, m.last_name, m.balance,
			b.id, b.title, b.author, b.publication_year, b.isbn
		FROM book_issuances t
		JOIN members m ON m.id = t.member_id
		JOIN books b ON b.id = t.book_id
`

// IssuanceRepository RDB実装のIssuanceRepository
type IssuanceRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewIssuanceRepository 新しいIssuanceRepositoryを作成
func NewIssuanceRepository(db *DB) *IssuanceRepository {
	return &IssuanceRepository{
		db:     db,
		tracer: otel.Tracer("issuance-repository"),
	}
}

// FindOpenByMemberID 会員の未返却の貸出記録一覧を取得
func (r *IssuanceRepository) FindOpenByMemberID(ctx context.Context, memberID int64) ([]*issuance.Issuance, error) {
	ctx, span := r.tracer.Start(ctx, "IssuanceRepository.FindOpenByMemberID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.member_id", memberID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "book_issuances"),
	)

	query := issuanceColumns + `
		WHERE t.member_id = ? AND t.return_date IS NULL
		ORDER BY t.issue_date ASC, t.id ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, memberID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query issued books: %w", err)
	}
	defer rows.Close()

	issuances := make([]*issuance.Issuance, 0)
	for rows.Next() {
		iss, err := scanIssuance(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		issuances = append(issuances, iss)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate issued books: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(issuances)))
	span.SetStatus(otelcodes.Ok, "issued books found")
	return issuances, nil
}

// FindByID 貸出記録IDで貸出記録を取得
func (r *IssuanceRepository) FindByID(ctx context.Context, id int64) (*issuance.Issuance, error) {
	ctx, span := r.tracer.Start(ctx, "IssuanceRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.transaction_id", id),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "book_issuances"),
	)

	query := issuanceColumns + `
		WHERE t.id = ?
	`

	iss, err := scanIssuance(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "transaction not found")
		return nil, issuance.ErrIssuanceNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "transaction found")
	return iss, nil
}

// MarkReturned 返却日時を保存
func (r *IssuanceRepository) MarkReturned(ctx context.Context, i *issuance.Issuance) error {
	ctx, span := r.tracer.Start(ctx, "IssuanceRepository.MarkReturned")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", i.ID()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "book_issuances"),
	)

	if i.ReturnDate() == nil {
		err := fmt.Errorf("transaction %s has no return date", i.ID())
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	query := `
		UPDATE book_issuances
		SET return_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND return_date IS NULL
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, i.ReturnDate().UTC(), i.ID())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to mark transaction returned: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		span.RecordError(issuance.ErrAlreadyReturned)
		span.SetStatus(otelcodes.Error, issuance.ErrAlreadyReturned.Error())
		return issuance.ErrAlreadyReturned
	}

	span.SetStatus(otelcodes.Ok, "transaction returned")
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIssuance(row rowScanner) (*issuance.Issuance, error) {
	var (
		id         int64
		issueDate  nullTime
		returnDate nullTime
		fee        decimal.Decimal
		memberID   int64
		firstName  string
		lastName   string
		balance    decimal.Decimal
		bookID     int64
		title      string
		author     string
		year       int
		isbn       string
	)

	err := row.Scan(
		&id, &issueDate, &returnDate, &fee,
		&memberID, &firstName, &lastName, &balance,
		&bookID, &title, &author, &year, &isbn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	b, err := book.NewBook(bookID, title, author, year, isbn)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct book entity: %w", err)
	}

	iss, err := issuance.NewIssuance(
		issuance.FormatID(id),
		issueDate.Time,
		returnDate.Ptr(),
		fee,
		member.NewReference(memberID, firstName, lastName, balance),
		b,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct transaction entity: %w", err)
	}
	return iss, nil
}
