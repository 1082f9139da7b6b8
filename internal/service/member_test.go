package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMemberRepository is a mock implementation of MemberRepositoryInterface
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *domain.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id string) (*domain.TeamMember, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamMember), args.Error(1)
}

func (m *MockMemberRepository) GetByEmail(ctx context.Context, email string) (*domain.TeamMember, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TeamMember), args.Error(1)
}

func (m *MockMemberRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*MemberPageResult, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MemberPageResult), args.Error(1)
}

func (m *MockMemberRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUUIDGenerator returns a fixed sequence of IDs.
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		uuid := m.uuids[m.callCount]
		m.callCount++
		return uuid
	}
	return "default-uuid"
}

func TestMemberService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates member with normalized email", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		mockUUIDGen := NewMockUUIDGenerator("member-id-1")
		service := NewMemberServiceWithUUIDGen(mockRepo, mockUUIDGen)

		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.TeamMember) bool {
			return m.ID == "member-id-1" &&
				m.Name == "Ada Lovelace" &&
				m.Email == "ada@example.com" &&
				m.Role == "engineer"
		})).Return(nil)

		result, err := service.Create(ctx, CreateMemberInput{
			Name:  "  Ada Lovelace  ",
			Email: "  Ada@Example.COM ",
			Role:  "engineer",
		})

		require.NoError(t, err)
		assert.Equal(t, "member-id-1", result.ID)
		assert.Equal(t, "ada@example.com", result.Email)
		assert.False(t, result.CreatedAt.IsZero())
		mockRepo.AssertExpectations(t)
	})

	t.Run("returns error on invalid email", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		service := NewMemberServiceWithUUIDGen(mockRepo, NewMockUUIDGenerator("member-id-1"))

		result, err := service.Create(ctx, CreateMemberInput{
			Name:  "Ada",
			Email: "not-an-email",
		})

		require.Error(t, err)
		assert.Nil(t, result)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("returns error on missing name", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		service := NewMemberServiceWithUUIDGen(mockRepo, NewMockUUIDGenerator("member-id-1"))

		result, err := service.Create(ctx, CreateMemberInput{
			Name:  "   ",
			Email: "ada@example.com",
		})

		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("propagates duplicate email error", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		service := NewMemberServiceWithUUIDGen(mockRepo, NewMockUUIDGenerator("member-id-1"))

		mockRepo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrEmailAlreadyExists)

		result, err := service.Create(ctx, CreateMemberInput{
			Name:  "Ada",
			Email: "ada@example.com",
		})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, domain.ErrEmailAlreadyExists, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestMemberService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns member", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		service := NewMemberService(mockRepo)

		member := &domain.TeamMember{
			ID:        "member-1",
			Name:      "Ada",
			Email:     "ada@example.com",
			CreatedAt: time.Now().UTC(),
		}
		mockRepo.On("GetByID", mock.Anything, "member-1").Return(member, nil)

		result, err := service.GetByID(ctx, "member-1")

		require.NoError(t, err)
		assert.Equal(t, member, result)
	})

	t.Run("returns not found error", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		service := NewMemberService(mockRepo)

		mockRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrMemberNotFound)

		result, err := service.GetByID(ctx, "missing")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, domain.ErrMemberNotFound, err)
	})
}

func TestMemberService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("applies default limit", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		service := NewMemberService(mockRepo)

		page := &MemberPageResult{
			Items:      []*domain.TeamMember{{ID: "member-1", Name: "Ada"}},
			NextCursor: "cursor-1",
			HasMore:    true,
		}
		mockRepo.On("ListWithCursor", mock.Anything, (*pagination.Cursor)(nil), 20).Return(page, nil)

		result, err := service.List(ctx, ListMembersInput{})

		require.NoError(t, err)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, "cursor-1", result.Cursor)
		assert.True(t, result.HasMore)
		mockRepo.AssertExpectations(t)
	})

	t.Run("propagates repository error", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		service := NewMemberService(mockRepo)

		expectedErr := errors.New("database error")
		mockRepo.On("ListWithCursor", mock.Anything, mock.Anything, mock.Anything).Return(nil, expectedErr)

		result, err := service.List(ctx, ListMembersInput{Limit: 10})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, expectedErr, err)
	})
}

func TestMemberService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes member", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		service := NewMemberService(mockRepo)

		mockRepo.On("Delete", mock.Anything, "member-1").Return(nil)

		err := service.Delete(ctx, "member-1")

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("returns not found error", func(t *testing.T) {
		mockRepo := new(MockMemberRepository)
		service := NewMemberService(mockRepo)

		mockRepo.On("Delete", mock.Anything, "missing").Return(domain.ErrMemberNotFound)

		err := service.Delete(ctx, "missing")

		require.Error(t, err)
		assert.Equal(t, domain.ErrMemberNotFound, err)
	})
}
