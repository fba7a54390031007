package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/operator"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// OperatorRepository implements operator.Repository over PostgreSQL.
type OperatorRepository struct {
	conn *Connection
}

// NewOperatorRepository creates a new OperatorRepository.
func NewOperatorRepository(conn *Connection) *OperatorRepository {
	return &OperatorRepository{conn: conn}
}

var _ operator.Repository = (*OperatorRepository)(nil)

const operatorColumns = `telegram_id, username, first_name, last_name, first_seen_at, last_seen_at`

func scanOperator(row pgx.Row) (*operator.Operator, error) {
	var o operator.Operator
	err := row.Scan(
		&o.TelegramID,
		&o.Username,
		&o.FirstName,
		&o.LastName,
		&o.FirstSeenAt,
		&o.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Upsert inserts or refreshes an operator profile. The first-seen
// timestamp of an existing row is never overwritten.
func (r *OperatorRepository) Upsert(ctx context.Context, o *operator.Operator) error {
	query := `
		INSERT INTO operators (` + operatorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    last_seen_at = EXCLUDED.last_seen_at
	`
	_, err := r.conn.Exec(ctx, query,
		o.TelegramID.Int64(),
		o.Username,
		o.FirstName,
		o.LastName,
		o.FirstSeenAt,
		o.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert operator: %w", err)
	}
	return nil
}

// GetByTelegramID returns an operator profile.
func (r *OperatorRepository) GetByTelegramID(ctx context.Context, id shared.OperatorID) (*operator.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE telegram_id = $1`
	o, err := scanOperator(r.conn.QueryRow(ctx, query, id.Int64()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrOperatorNotFound
		}
		return nil, fmt.Errorf("postgres: get operator: %w", err)
	}
	return o, nil
}

// List returns all known operator profiles ordered by first contact.
func (r *OperatorRepository) List(ctx context.Context) ([]*operator.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators ORDER BY first_seen_at`
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list operators: %w", err)
	}
	defer rows.Close()

	var operators []*operator.Operator
	for rows.Next() {
		o, err := scanOperator(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan operator: %w", err)
		}
		operators = append(operators, o)
	}
	return operators, rows.Err()
}
