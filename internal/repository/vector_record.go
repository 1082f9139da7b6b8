package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// VectorRecordRepository persists the derived embedding copies of status
// updates. Rows here are disposable: the relational table is authoritative
// and a resync can rebuild everything.
type VectorRecordRepository struct {
	db dbtx
}

func NewVectorRecordRepository(pool *pgxpool.Pool) *VectorRecordRepository {
	return &VectorRecordRepository{db: pool}
}

// Upsert writes a record, overwriting any existing row for the same update
// id (last-write-wins).
func (r *VectorRecordRepository) Upsert(ctx context.Context, rec *domain.VectorRecord) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO vector_records (update_id, member_id, member_name, body, embedding, recorded_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (update_id) DO UPDATE SET
			member_id = EXCLUDED.member_id,
			member_name = EXCLUDED.member_name,
			body = EXCLUDED.body,
			embedding = EXCLUDED.embedding,
			recorded_at = EXCLUDED.recorded_at,
			updated_at = EXCLUDED.updated_at`,
		rec.UpdateID, rec.MemberID, rec.MemberName, rec.Body, pgvector.NewVector(rec.Embedding), rec.RecordedAt, updatedAt,
	)
	return err
}

// Search returns the records nearest to the query embedding, best first.
// Score is cosine relevance (1 - distance), floored at zero.
func (r *VectorRecordRepository) Search(ctx context.Context, embedding []float32, memberID string, limit int) ([]*domain.VectorMatch, error) {
	if limit <= 0 {
		limit = 10
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT update_id, member_id, member_name, body, recorded_at,
		       GREATEST(0, 1 - (embedding <=> $1))::float4 AS score
		FROM vector_records`
	args := []interface{}{vec}

	if memberID != "" {
		args = append(args, memberID)
		query += ` WHERE member_id = $2`
	}

	args = append(args, limit)
	query += ` ORDER BY embedding <=> $1 ASC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*domain.VectorMatch, 0)
	for rows.Next() {
		var m domain.VectorMatch
		if err := rows.Scan(&m.UpdateID, &m.MemberID, &m.MemberName, &m.Body, &m.RecordedAt, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}

	return matches, rows.Err()
}

func (r *VectorRecordRepository) Delete(ctx context.Context, updateID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vector_records WHERE update_id = $1`, updateID)
	return err
}

// DeleteByMember removes every record owned by a member. Best-effort cleanup
// when a team member is deleted.
func (r *VectorRecordRepository) DeleteByMember(ctx context.Context, memberID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vector_records WHERE member_id = $1`, memberID)
	return err
}

func (r *VectorRecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vector_records`).Scan(&count)
	return count, err
}
