package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ChildRepository implements child.Repository over PostgreSQL.
type ChildRepository struct {
	conn *Connection
}

// NewChildRepository creates a new ChildRepository.
func NewChildRepository(conn *Connection) *ChildRepository {
	return &ChildRepository{conn: conn}
}

// Compile-time interface check.
var _ child.Repository = (*ChildRepository)(nil)

const childColumns = `id, operator_id, name, age, unit_price, archived, created_at, updated_at`

// operatorIDs converts the domain slice to the int64 slice pgx binds to
// BIGINT[] for ANY($n) filters.
func operatorIDs(operators []shared.OperatorID) []int64 {
	ids := make([]int64, 0, len(operators))
	for _, op := range operators {
		ids = append(ids, op.Int64())
	}
	return ids
}

func scanChild(row pgx.Row) (*child.Child, error) {
	var c child.Child
	err := row.Scan(
		&c.ID,
		&c.OperatorID,
		&c.Name,
		&c.Age,
		&c.UnitPrice,
		&c.Archived,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanChildren(rows pgx.Rows) ([]*child.Child, error) {
	defer rows.Close()
	var children []*child.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan child: %w", err)
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

// Create inserts a new child record.
func (r *ChildRepository) Create(ctx context.Context, c *child.Child) error {
	query := `
		INSERT INTO children (` + childColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.conn.Exec(ctx, query,
		c.ID.String(),
		c.OperatorID.Int64(),
		c.Name.String(),
		int(c.Age),
		float64(c.UnitPrice),
		c.Archived,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("child", "Create", shared.ErrAlreadyExists, "child already exists", err)
		}
		return fmt.Errorf("postgres: create child: %w", err)
	}
	return nil
}

// GetByID returns a child by its ID.
func (r *ChildRepository) GetByID(ctx context.Context, id child.ID) (*child.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE id = $1`
	c, err := scanChild(r.conn.QueryRow(ctx, query, id.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrChildNotFound
		}
		return nil, fmt.Errorf("postgres: get child: %w", err)
	}
	return c, nil
}

// Update saves the mutable fields of a child record.
func (r *ChildRepository) Update(ctx context.Context, c *child.Child) error {
	query := `
		UPDATE children
		SET name = $2, age = $3, unit_price = $4, archived = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.conn.Exec(ctx, query,
		c.ID.String(),
		c.Name.String(),
		int(c.Age),
		float64(c.UnitPrice),
		c.Archived,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update child: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrChildNotFound
	}
	return nil
}

// Delete removes a child record permanently.
func (r *ChildRepository) Delete(ctx context.Context, id child.ID) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM children WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("postgres: delete child: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrChildNotFound
	}
	return nil
}

// List returns the children of the given operators, filtered by archive
// state, sorted by name.
func (r *ChildRepository) List(ctx context.Context, operators []shared.OperatorID, filter child.ListFilter) ([]*child.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE operator_id = ANY($1)`
	args := []any{operatorIDs(operators)}
	if filter.Archived != nil {
		query += ` AND archived = $2`
		args = append(args, *filter.Archived)
	}
	query += ` ORDER BY name`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list children: %w", err)
	}
	return scanChildren(rows)
}

// Count returns the number of children matching the same filter.
func (r *ChildRepository) Count(ctx context.Context, operators []shared.OperatorID, filter child.ListFilter) (int, error) {
	query := `SELECT COUNT(*) FROM children WHERE operator_id = ANY($1)`
	args := []any{operatorIDs(operators)}
	if filter.Archived != nil {
		query += ` AND archived = $2`
		args = append(args, *filter.Archived)
	}

	var count int
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count children: %w", err)
	}
	return count, nil
}
