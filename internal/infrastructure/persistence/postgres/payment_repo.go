package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// PaymentRepository implements payment.Repository over PostgreSQL.
type PaymentRepository struct {
	conn *Connection
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(conn *Connection) *PaymentRepository {
	return &PaymentRepository{conn: conn}
}

var _ payment.Repository = (*PaymentRepository)(nil)

const paymentColumns = `id, operator_id, child_id, amount, lessons_count,
	payment_date, note, created_at, updated_at`

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(
		&p.ID,
		&p.OperatorID,
		&p.ChildID,
		&p.Amount,
		&p.LessonsCount,
		&p.Date,
		&p.Note,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPayments(rows pgx.Rows) ([]*payment.Payment, error) {
	defer rows.Close()
	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Create inserts a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.conn.Exec(ctx, query,
		p.ID.String(),
		p.OperatorID.Int64(),
		p.ChildID.String(),
		p.Amount,
		p.LessonsCount,
		p.Date.String(),
		p.Note,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("payment", "Create", shared.ErrAlreadyExists, "payment already exists", err)
		}
		return fmt.Errorf("postgres: create payment: %w", err)
	}
	return nil
}

// GetByID returns a payment by its ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id payment.ID) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.conn.QueryRow(ctx, query, id.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("postgres: get payment: %w", err)
	}
	return p, nil
}

// Update saves the mutable fields of a payment record.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments
		SET amount = $2, lessons_count = $3, payment_date = $4, note = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.conn.Exec(ctx, query,
		p.ID.String(),
		p.Amount,
		p.LessonsCount,
		p.Date.String(),
		p.Note,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrPaymentNotFound
	}
	return nil
}

// Delete removes a payment record permanently.
func (r *PaymentRepository) Delete(ctx context.Context, id payment.ID) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("postgres: delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrPaymentNotFound
	}
	return nil
}

// List returns the payments of the given operators filtered by child and
// date range, sorted by payment date.
func (r *PaymentRepository) List(ctx context.Context, operators []shared.OperatorID, filter payment.ListFilter) ([]*payment.Payment, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + paymentColumns + ` FROM payments WHERE operator_id = ANY($1)`)
	args := []any{operatorIDs(operators)}

	if filter.ChildID != "" {
		args = append(args, filter.ChildID.String())
		fmt.Fprintf(&b, ` AND child_id = $%d`, len(args))
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom.String())
		fmt.Fprintf(&b, ` AND payment_date >= $%d`, len(args))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo.String())
		fmt.Fprintf(&b, ` AND payment_date <= $%d`, len(args))
	}
	b.WriteString(` ORDER BY payment_date, created_at`)

	rows, err := r.conn.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list payments: %w", err)
	}
	return scanPayments(rows)
}

// CountByChild returns the number of payments referencing the child.
func (r *PaymentRepository) CountByChild(ctx context.Context, childID child.ID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE child_id = $1`, childID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count payments: %w", err)
	}
	return count, nil
}
