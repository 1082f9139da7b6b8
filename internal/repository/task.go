package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/pagination"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db dbtx
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: pool}
}

func NewTaskRepositoryWithTx(tx pgx.Tx) *TaskRepository {
	return &TaskRepository{db: tx}
}

const taskColumns = `id, goal_id, title, description, assigned_to, status, priority, due_date, completed_date, created_at, updated_at`

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (id, goal_id, title, description, assigned_to, status, priority, due_date, completed_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.GoalID, t.Title, t.Description, nullableString(t.AssignedTo),
		t.Status, t.Priority, t.DueDate, t.CompletedDate, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, assigned_to = $3, status = $4,
		     priority = $5, due_date = $6, completed_date = $7, updated_at = $8
		 WHERE id = $9`,
		t.Title, t.Description, nullableString(t.AssignedTo), t.Status,
		t.Priority, t.DueDate, t.CompletedDate, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) ListWithCursor(ctx context.Context, filter service.TaskFilter, cursor *pagination.Cursor, limit int) (*service.TaskPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	var conditions []string
	var args []any

	if filter.GoalID != "" {
		args = append(args, filter.GoalID)
		conditions = append(conditions, "goal_id = $"+strconv.Itoa(len(args)))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		conditions = append(conditions, "assigned_to = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, "priority = $"+strconv.Itoa(len(args)))
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

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(tasks) > limit
	if hasMore {
		tasks = tasks[:limit]
	}

	var nextCursor string
	if hasMore && len(tasks) > 0 {
		last := tasks[len(tasks)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.TaskPageResult{
		Items:      tasks,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// MemberProgress derives task counters for one member. Overdue counts tasks
// past their due date that are not completed, relative to now.
func (r *TaskRepository) MemberProgress(ctx context.Context, memberID string, now time.Time) (*domain.MemberProgress, error) {
	var p domain.MemberProgress
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = $1),
		        COUNT(*) FILTER (WHERE status = $2),
		        COUNT(*) FILTER (WHERE due_date IS NOT NULL AND due_date < $3 AND status <> $1)
		 FROM tasks WHERE assigned_to = $4`,
		domain.TaskStatusCompleted, domain.TaskStatusInProgress, now, memberID,
	).Scan(&p.AssignedTasks, &p.CompletedTasks, &p.InProgressTasks, &p.OverdueTasks)
	if err != nil {
		return nil, err
	}
	if p.AssignedTasks > 0 {
		p.CompletionRate = float64(p.CompletedTasks) / float64(p.AssignedTasks) * 100
	}
	return &p, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	var description, assignedTo *string
	err := row.Scan(&t.ID, &t.GoalID, &t.Title, &description, &assignedTo,
		&t.Status, &t.Priority, &t.DueDate, &t.CompletedDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description != nil {
		t.Description = *description
	}
	if assignedTo != nil {
		t.AssignedTo = *assignedTo
	}
	return &t, nil
}
