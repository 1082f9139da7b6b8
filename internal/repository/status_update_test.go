//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/cloo-solutions/pulsetrack/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMember(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) *domain.TeamMember {
	t.Helper()

	member := &domain.TeamMember{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     uuid.NewString() + "@example.com",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, NewMemberRepository(pool).Create(ctx, member))
	return member
}

func seedUpdate(ctx context.Context, t *testing.T, pool *pgxpool.Pool, memberID, body string, recordedAt time.Time) *domain.StatusUpdate {
	t.Helper()

	update := &domain.StatusUpdate{
		ID:         uuid.NewString(),
		MemberID:   memberID,
		Body:       body,
		RecordedAt: recordedAt,
		CreatedAt:  recordedAt,
	}
	require.NoError(t, NewStatusUpdateRepository(pool).Create(ctx, update))
	return update
}

func TestStatusUpdateRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	member := seedMember(ctx, t, pool, "Ada")
	repo := NewStatusUpdateRepository(pool)

	recordedAt := time.Now().UTC().Truncate(time.Microsecond)
	update := &domain.StatusUpdate{
		ID:         uuid.NewString(),
		MemberID:   member.ID,
		Body:       "Finished the parser",
		RecordedAt: recordedAt,
		CreatedAt:  recordedAt,
	}
	require.NoError(t, repo.Create(ctx, update))

	retrieved, err := repo.GetByID(ctx, update.ID)
	require.NoError(t, err)
	assert.Equal(t, update.ID, retrieved.ID)
	assert.Equal(t, "Finished the parser", retrieved.Body)
	assert.Equal(t, "Ada", retrieved.MemberName)
	assert.True(t, retrieved.RecordedAt.Equal(recordedAt))
}

func TestStatusUpdateRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewStatusUpdateRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrUpdateNotFound)
}

func TestStatusUpdateRepository_ListWithCursor_MemberFilter(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ada := seedMember(ctx, t, pool, "Ada")
	grace := seedMember(ctx, t, pool, "Grace")
	repo := NewStatusUpdateRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	seedUpdate(ctx, t, pool, ada.ID, "Ada update 1", base)
	seedUpdate(ctx, t, pool, ada.ID, "Ada update 2", base.Add(time.Second))
	seedUpdate(ctx, t, pool, grace.ID, "Grace update", base.Add(2*time.Second))

	page, err := repo.ListWithCursor(ctx, service.StatusUpdateFilter{MemberID: ada.ID}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)
	for _, item := range page.Items {
		assert.Equal(t, ada.ID, item.MemberID)
	}
	// Newest first.
	assert.Equal(t, "Ada update 2", page.Items[0].Body)
}

func TestStatusUpdateRepository_ListWithCursor_DateRange(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	member := seedMember(ctx, t, pool, "Ada")
	repo := NewStatusUpdateRepository(pool)

	base := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	seedUpdate(ctx, t, pool, member.ID, "before", base.AddDate(0, 0, -5))
	seedUpdate(ctx, t, pool, member.ID, "inside", base)
	seedUpdate(ctx, t, pool, member.ID, "after", base.AddDate(0, 0, 5))

	page, err := repo.ListWithCursor(ctx, service.StatusUpdateFilter{
		Start: base.AddDate(0, 0, -1),
		End:   base.AddDate(0, 0, 1),
	}, nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "inside", page.Items[0].Body)
}

func TestStatusUpdateRepository_ListRange_OrderedByMember(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	grace := seedMember(ctx, t, pool, "Grace")
	ada := seedMember(ctx, t, pool, "Ada")
	repo := NewStatusUpdateRepository(pool)

	base := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	seedUpdate(ctx, t, pool, grace.ID, "Grace first", base)
	seedUpdate(ctx, t, pool, ada.ID, "Ada second", base.Add(2*time.Hour))
	seedUpdate(ctx, t, pool, ada.ID, "Ada first", base.Add(time.Hour))

	updates, err := repo.ListRange(ctx, base.Add(-time.Hour), base.Add(24*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, updates, 3)

	// Grouped by member name, oldest first within each member.
	assert.Equal(t, "Ada first", updates[0].Body)
	assert.Equal(t, "Ada second", updates[1].Body)
	assert.Equal(t, "Grace first", updates[2].Body)
}

func TestStatusUpdateRepository_ListByMember(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ada := seedMember(ctx, t, pool, "Ada")
	grace := seedMember(ctx, t, pool, "Grace")
	repo := NewStatusUpdateRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	seedUpdate(ctx, t, pool, ada.ID, "Ada update", base)
	seedUpdate(ctx, t, pool, grace.ID, "Grace update", base)

	updates, err := repo.ListByMember(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "Ada update", updates[0].Body)
}

func TestStatusUpdateRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	member := seedMember(ctx, t, pool, "Ada")
	repo := NewStatusUpdateRepository(pool)

	update := seedUpdate(ctx, t, pool, member.ID, "to delete", time.Now().UTC().Truncate(time.Microsecond))

	require.NoError(t, repo.Delete(ctx, update.ID))

	_, err := repo.GetByID(ctx, update.ID)
	assert.ErrorIs(t, err, domain.ErrUpdateNotFound)

	err = repo.Delete(ctx, update.ID)
	assert.ErrorIs(t, err, domain.ErrUpdateNotFound)
}

func TestStatusUpdateRepository_MemberDeleteCascades(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	member := seedMember(ctx, t, pool, "Ada")
	repo := NewStatusUpdateRepository(pool)

	update := seedUpdate(ctx, t, pool, member.ID, "orphaned soon", time.Now().UTC().Truncate(time.Microsecond))

	require.NoError(t, NewMemberRepository(pool).Delete(ctx, member.ID))

	_, err := repo.GetByID(ctx, update.ID)
	assert.ErrorIs(t, err, domain.ErrUpdateNotFound)
}
