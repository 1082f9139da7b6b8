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

type StatusUpdateRepository struct {
	db dbtx
}

func NewStatusUpdateRepository(pool *pgxpool.Pool) *StatusUpdateRepository {
	return &StatusUpdateRepository{db: pool}
}

func NewStatusUpdateRepositoryWithTx(tx pgx.Tx) *StatusUpdateRepository {
	return &StatusUpdateRepository{db: tx}
}

func (r *StatusUpdateRepository) Create(ctx context.Context, u *domain.StatusUpdate) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO status_updates (id, member_id, task_id, body, recorded_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.MemberID, nullableString(u.TaskID), u.Body, u.RecordedAt, u.CreatedAt,
	)
	return err
}

const statusUpdateColumns = `u.id, u.member_id, u.task_id, u.body, u.recorded_at, u.created_at, m.name, m.email`

func scanStatusUpdateRow(row pgx.Row) (*domain.StatusUpdateWithMember, error) {
	var u domain.StatusUpdateWithMember
	var taskID *string
	if err := row.Scan(&u.ID, &u.MemberID, &taskID, &u.Body, &u.RecordedAt, &u.CreatedAt, &u.MemberName, &u.MemberEmail); err != nil {
		return nil, err
	}
	if taskID != nil {
		u.TaskID = *taskID
	}
	return &u, nil
}

func scanStatusUpdateRows(rows pgx.Rows) ([]*domain.StatusUpdateWithMember, error) {
	var updates []*domain.StatusUpdateWithMember
	for rows.Next() {
		u, err := scanStatusUpdateRow(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

func (r *StatusUpdateRepository) GetByID(ctx context.Context, id string) (*domain.StatusUpdateWithMember, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+statusUpdateColumns+`
		 FROM status_updates u
		 JOIN team_members m ON m.id = u.member_id
		 WHERE u.id = $1`,
		id,
	)
	u, err := scanStatusUpdateRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUpdateNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListWithCursor returns updates newest-first, filtered and cursor-paginated
// on (recorded_at, id).
func (r *StatusUpdateRepository) ListWithCursor(ctx context.Context, filter service.StatusUpdateFilter, cursor *pagination.Cursor, limit int) (*service.StatusUpdatePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + statusUpdateColumns + `
		 FROM status_updates u
		 JOIN team_members m ON m.id = u.member_id
		 WHERE 1=1`
	args := []interface{}{}

	appendArg := func(clause string, v interface{}) {
		args = append(args, v)
		query += clause
	}

	if filter.MemberID != "" {
		appendArg(" AND u.member_id = $"+strconv.Itoa(len(args)+1), filter.MemberID)
	}
	if !filter.Start.IsZero() {
		appendArg(" AND u.recorded_at >= $"+strconv.Itoa(len(args)+1), filter.Start)
	}
	if !filter.End.IsZero() {
		appendArg(" AND u.recorded_at <= $"+strconv.Itoa(len(args)+1), filter.End)
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		query += " AND (u.recorded_at, u.id) < ($" + strconv.Itoa(len(args)-1) + ", $" + strconv.Itoa(len(args)) + ")"
	}

	args = append(args, limit+1)
	query += ` ORDER BY u.recorded_at DESC, u.id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates, err := scanStatusUpdateRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(updates) > limit
	if hasMore {
		updates = updates[:limit]
	}

	var nextCursor string
	if hasMore && len(updates) > 0 {
		last := updates[len(updates)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.RecordedAt)
	}

	return &service.StatusUpdatePageResult{
		Items:      updates,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListRange returns every update within [start, end], optionally filtered by
// member, grouped by member and chronological within member. This is the
// summary path: it never touches the vector index.
func (r *StatusUpdateRepository) ListRange(ctx context.Context, start, end time.Time, memberID string) ([]*domain.StatusUpdateWithMember, error) {
	query := `SELECT ` + statusUpdateColumns + `
		 FROM status_updates u
		 JOIN team_members m ON m.id = u.member_id
		 WHERE u.recorded_at >= $1 AND u.recorded_at <= $2`
	args := []interface{}{start, end}

	if memberID != "" {
		args = append(args, memberID)
		query += ` AND u.member_id = $3`
	}

	query += ` ORDER BY m.name ASC, u.recorded_at ASC, u.id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStatusUpdateRows(rows)
}

// ListAll returns every status update with author metadata, oldest first.
// Used by the resync path.
func (r *StatusUpdateRepository) ListAll(ctx context.Context) ([]*domain.StatusUpdateWithMember, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+statusUpdateColumns+`
		 FROM status_updates u
		 JOIN team_members m ON m.id = u.member_id
		 ORDER BY u.recorded_at ASC, u.id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStatusUpdateRows(rows)
}

// ListByMember returns every status update by one member, oldest first.
func (r *StatusUpdateRepository) ListByMember(ctx context.Context, memberID string) ([]*domain.StatusUpdateWithMember, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+statusUpdateColumns+`
		 FROM status_updates u
		 JOIN team_members m ON m.id = u.member_id
		 WHERE u.member_id = $1
		 ORDER BY u.recorded_at ASC, u.id ASC`,
		memberID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStatusUpdateRows(rows)
}

func (r *StatusUpdateRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM status_updates WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrUpdateNotFound
	}
	return nil
}

