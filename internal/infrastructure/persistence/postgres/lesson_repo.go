package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// LessonRepository implements lesson.Repository over PostgreSQL.
type LessonRepository struct {
	conn *Connection
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

var _ lesson.Repository = (*LessonRepository)(nil)

const lessonColumns = `id, operator_id, child_id, lesson_date, start_time, end_time,
	completed, cancelled, paid, created_at, updated_at`

func scanLesson(row pgx.Row) (*lesson.Lesson, error) {
	var l lesson.Lesson
	err := row.Scan(
		&l.ID,
		&l.OperatorID,
		&l.ChildID,
		&l.Date,
		&l.StartTime,
		&l.EndTime,
		&l.Completed,
		&l.Cancelled,
		&l.Paid,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanLessons(rows pgx.Rows) ([]*lesson.Lesson, error) {
	defer rows.Close()
	var lessons []*lesson.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// Create inserts a new lesson record.
func (r *LessonRepository) Create(ctx context.Context, l *lesson.Lesson) error {
	query := `
		INSERT INTO lessons (` + lessonColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.conn.Exec(ctx, query,
		l.ID.String(),
		l.OperatorID.Int64(),
		l.ChildID.String(),
		l.Date.String(),
		l.StartTime.String(),
		l.EndTime.String(),
		l.Completed,
		l.Cancelled,
		l.Paid,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("lesson", "Create", shared.ErrAlreadyExists, "lesson already exists", err)
		}
		return fmt.Errorf("postgres: create lesson: %w", err)
	}
	return nil
}

// GetByID returns a lesson by its ID.
func (r *LessonRepository) GetByID(ctx context.Context, id lesson.ID) (*lesson.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	l, err := scanLesson(r.conn.QueryRow(ctx, query, id.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("postgres: get lesson: %w", err)
	}
	return l, nil
}

// Update saves the mutable fields of a lesson record.
func (r *LessonRepository) Update(ctx context.Context, l *lesson.Lesson) error {
	query := `
		UPDATE lessons
		SET lesson_date = $2, start_time = $3, end_time = $4,
		    completed = $5, cancelled = $6, paid = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := r.conn.Exec(ctx, query,
		l.ID.String(),
		l.Date.String(),
		l.StartTime.String(),
		l.EndTime.String(),
		l.Completed,
		l.Cancelled,
		l.Paid,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLessonNotFound
	}
	return nil
}

// Delete removes a lesson record permanently.
func (r *LessonRepository) Delete(ctx context.Context, id lesson.ID) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("postgres: delete lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLessonNotFound
	}
	return nil
}

// List returns the lessons of the given operators filtered by child and
// date range, sorted chronologically. Dates and times are stored as
// fixed-width strings, so string comparison is chronological comparison.
func (r *LessonRepository) List(ctx context.Context, operators []shared.OperatorID, filter lesson.ListFilter) ([]*lesson.Lesson, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + lessonColumns + ` FROM lessons WHERE operator_id = ANY($1)`)
	args := []any{operatorIDs(operators)}

	if filter.ChildID != "" {
		args = append(args, filter.ChildID.String())
		fmt.Fprintf(&b, ` AND child_id = $%d`, len(args))
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom.String())
		fmt.Fprintf(&b, ` AND lesson_date >= $%d`, len(args))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo.String())
		fmt.Fprintf(&b, ` AND lesson_date <= $%d`, len(args))
	}
	b.WriteString(` ORDER BY lesson_date, start_time`)

	rows, err := r.conn.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list lessons: %w", err)
	}
	return scanLessons(rows)
}

// CountByChild returns the number of lessons referencing the child.
func (r *LessonRepository) CountByChild(ctx context.Context, childID child.ID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM lessons WHERE child_id = $1`, childID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count lessons: %w", err)
	}
	return count, nil
}
