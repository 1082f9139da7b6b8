package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/pagination"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GoalRepository struct {
	db dbtx
}

func NewGoalRepository(pool *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{db: pool}
}

func NewGoalRepositoryWithTx(tx pgx.Tx) *GoalRepository {
	return &GoalRepository{db: tx}
}

const goalColumns = `id, title, description, status, start_date, target_date, completed_date, created_at, updated_at`

func (r *GoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO goals (id, title, description, status, start_date, target_date, completed_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.Title, g.Description, g.Status, g.StartDate, g.TargetDate, g.CompletedDate, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

func (r *GoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1`,
		id,
	)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *GoalRepository) Update(ctx context.Context, g *domain.Goal) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE goals
		 SET title = $1, description = $2, status = $3, start_date = $4,
		     target_date = $5, completed_date = $6, updated_at = $7
		 WHERE id = $8`,
		g.Title, g.Description, g.Status, g.StartDate, g.TargetDate, g.CompletedDate, g.UpdatedAt, g.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

func (r *GoalRepository) ListWithCursor(ctx context.Context, status domain.GoalStatus, cursor *pagination.Cursor, limit int) (*service.GoalPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + goalColumns + ` FROM goals`
	var conditions []string
	var args []any

	if status != "" {
		args = append(args, status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		conditions = append(conditions,
			"(created_at, id) < ($"+strconv.Itoa(len(args)-1)+", $"+strconv.Itoa(len(args))+")")
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	args = append(args, limit+1)
	query += " ORDER BY created_at DESC, id DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []*domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(goals) > limit
	if hasMore {
		goals = goals[:limit]
	}

	var nextCursor string
	if hasMore && len(goals) > 0 {
		last := goals[len(goals)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.GoalPageResult{
		Items:      goals,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// Progress derives task counters for a goal in a single pass.
func (r *GoalRepository) Progress(ctx context.Context, goalID string) (*domain.GoalProgress, error) {
	var p domain.GoalProgress
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = $1)
		 FROM tasks WHERE goal_id = $2`,
		domain.TaskStatusCompleted, goalID,
	).Scan(&p.TaskCount, &p.CompletedTaskCount)
	if err != nil {
		return nil, err
	}
	if p.TaskCount > 0 {
		p.ProgressPercentage = float64(p.CompletedTaskCount) / float64(p.TaskCount) * 100
	}
	return &p, nil
}

func (r *GoalRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM goals WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var g domain.Goal
	var description *string
	err := row.Scan(&g.ID, &g.Title, &description, &g.Status, &g.StartDate,
		&g.TargetDate, &g.CompletedDate, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description != nil {
		g.Description = *description
	}
	return &g, nil
}
