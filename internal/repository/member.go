package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/pagination"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MemberRepository struct {
	db dbtx
}

func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: pool}
}

func NewMemberRepositoryWithTx(tx pgx.Tx) *MemberRepository {
	return &MemberRepository{db: tx}
}

func (r *MemberRepository) Create(ctx context.Context, m *domain.TeamMember) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO team_members (id, name, email, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.Name, m.Email, nullableString(m.Role), m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*domain.TeamMember, error) {
	var m domain.TeamMember
	var role *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, role, created_at FROM team_members WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Name, &m.Email, &role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	if role != nil {
		m.Role = *role
	}
	return &m, nil
}

func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*domain.TeamMember, error) {
	var m domain.TeamMember
	var role *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, role, created_at FROM team_members WHERE email = $1`,
		email,
	).Scan(&m.ID, &m.Name, &m.Email, &role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	if role != nil {
		m.Role = *role
	}
	return &m, nil
}

func (r *MemberRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.MemberPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, name, email, role, created_at FROM team_members
			 WHERE (created_at, id) < ($1, $2)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, name, email, role, created_at FROM team_members
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		var role *string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &role, &m.CreatedAt); err != nil {
			return nil, err
		}
		if role != nil {
			m.Role = *role
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(members) > limit
	if hasMore {
		members = members[:limit]
	}

	var nextCursor string
	if hasMore && len(members) > 0 {
		last := members[len(members)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.MemberPageResult{
		Items:      members,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM team_members WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
