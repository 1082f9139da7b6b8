package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/pagination"
	"github.com/cloo-solutions/pulsetrack/internal/telemetry"
	"github.com/google/uuid"
)

// MemberRepositoryInterface defines the repository interface for team member persistence
type MemberRepositoryInterface interface {
	Create(ctx context.Context, m *domain.TeamMember) error
	GetByID(ctx context.Context, id string) (*domain.TeamMember, error)
	GetByEmail(ctx context.Context, email string) (*domain.TeamMember, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*MemberPageResult, error)
	Delete(ctx context.Context, id string) error
}

type MemberPageResult struct {
	Items      []*domain.TeamMember
	NextCursor string
	HasMore    bool
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// MemberService handles business logic for team members
type MemberService struct {
	memberRepo MemberRepositoryInterface
	uuidGen    UUIDGenerator
}

// NewMemberService creates a new MemberService instance
func NewMemberService(memberRepo MemberRepositoryInterface) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewMemberServiceWithUUIDGen creates a new MemberService with custom UUID generator (for testing)
func NewMemberServiceWithUUIDGen(memberRepo MemberRepositoryInterface, uuidGen UUIDGenerator) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		uuidGen:    uuidGen,
	}
}

// CreateMemberInput represents the input for registering a team member
type CreateMemberInput struct {
	Name  string
	Email string
	Role  string
}

type ListMembersInput struct {
	Cursor string
	Limit  int
}

type ListMembersOutput struct {
	Items   []*domain.TeamMember
	Cursor  string
	HasMore bool
}

// Create registers a new team member. Emails are stored lowercased and must
// be unique.
func (s *MemberService) Create(ctx context.Context, input CreateMemberInput) (*domain.TeamMember, error) {
	ctx, span := telemetry.StartSpan(ctx, "MemberService.Create", telemetry.SpanAttributes{
		Operation: "create",
	})
	defer span.End()

	member := &domain.TeamMember{
		ID:        s.uuidGen.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Role:      strings.TrimSpace(input.Role),
		CreatedAt: time.Now().UTC(),
	}

	if err := domain.ValidateTeamMember(member); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid team member", err)
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	return member, nil
}

// GetByID retrieves a team member by ID
func (s *MemberService) GetByID(ctx context.Context, id string) (*domain.TeamMember, error) {
	ctx, span := telemetry.StartSpan(ctx, "MemberService.GetByID", telemetry.SpanAttributes{
		MemberID:  id,
		Operation: "get",
	})
	defer span.End()

	return s.memberRepo.GetByID(ctx, id)
}

func (s *MemberService) List(ctx context.Context, input ListMembersInput) (*ListMembersOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "MemberService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.memberRepo.ListWithCursor(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListMembersOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// Delete removes a team member. Status updates and index records owned by
// the member are removed by the database cascade.
func (s *MemberService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "MemberService.Delete", telemetry.SpanAttributes{
		MemberID:  id,
		Operation: "delete",
	})
	defer span.End()

	return s.memberRepo.Delete(ctx, id)
}
