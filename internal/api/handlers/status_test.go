package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStatusUpdateService struct {
	mock.Mock
}

func (m *MockStatusUpdateService) Create(ctx context.Context, input service.CreateUpdateInput) (*domain.StatusUpdateWithMember, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusUpdateWithMember), args.Error(1)
}

func (m *MockStatusUpdateService) GetByID(ctx context.Context, id string) (*domain.StatusUpdateWithMember, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusUpdateWithMember), args.Error(1)
}

func (m *MockStatusUpdateService) List(ctx context.Context, input service.ListUpdatesInput) (*service.ListUpdatesOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListUpdatesOutput), args.Error(1)
}

func (m *MockStatusUpdateService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestUpdate() *domain.StatusUpdateWithMember {
	return &domain.StatusUpdateWithMember{
		StatusUpdate: domain.StatusUpdate{
			ID:         "update-123",
			MemberID:   "member-123",
			Body:       "Shipped the importer",
			RecordedAt: time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
			CreatedAt:  time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
		},
		MemberName:  "Ada Lovelace",
		MemberEmail: "ada@example.com",
	}
}

func TestStatusUpdateHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockStatusUpdateService)
	handler := NewStatusUpdateHandler(mockSvc)

	mockSvc.On("Create", mock.Anything, service.CreateUpdateInput{
		MemberID: "member-123",
		Body:     "Shipped the importer",
	}).Return(newTestUpdate(), nil)

	body := `{"member_id":"member-123","body":"Shipped the importer"}`
	req := httptest.NewRequest(http.MethodPost, "/api/status-updates", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data StatusUpdateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "update-123", resp.Data.ID)
	assert.Equal(t, "Ada Lovelace", resp.Data.MemberName)
	assert.Equal(t, "2026-08-20T09:30:00Z", resp.Data.RecordedAt)
	mockSvc.AssertExpectations(t)
}

func TestStatusUpdateHandler_Create_MissingBody(t *testing.T) {
	mockSvc := new(MockStatusUpdateService)
	handler := NewStatusUpdateHandler(mockSvc)

	body := `{"member_id":"member-123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/status-updates", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "body is required")
	mockSvc.AssertNotCalled(t, "Create")
}

func TestStatusUpdateHandler_Create_MemberNotFound(t *testing.T) {
	mockSvc := new(MockStatusUpdateService)
	handler := NewStatusUpdateHandler(mockSvc)

	mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrMemberNotFound)

	body := `{"member_id":"missing","body":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/status-updates", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusUpdateHandler_List_WithFilters(t *testing.T) {
	mockSvc := new(MockStatusUpdateService)
	handler := NewStatusUpdateHandler(mockSvc)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)

	mockSvc.On("List", mock.Anything, service.ListUpdatesInput{
		MemberID: "member-123",
		Start:    start,
		End:      end,
		Limit:    20,
	}).Return(&service.ListUpdatesOutput{
		Items: []*domain.StatusUpdateWithMember{newTestUpdate()},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status-updates?member_id=member-123&start=2026-08-01&end=2026-08-08", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestStatusUpdateHandler_List_InvalidStartDate(t *testing.T) {
	mockSvc := new(MockStatusUpdateService)
	handler := NewStatusUpdateHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/status-updates?start=not-a-date", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid start date")
	mockSvc.AssertNotCalled(t, "List")
}

func TestStatusUpdateHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockStatusUpdateService)
	handler := NewStatusUpdateHandler(mockSvc)

	mockSvc.On("GetByID", mock.Anything, "update-999").Return(nil, domain.ErrUpdateNotFound)

	req := requestWithURLParam(http.MethodGet, "/api/status-updates/update-999", "id", "update-999", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusUpdateHandler_Delete_Success(t *testing.T) {
	mockSvc := new(MockStatusUpdateService)
	handler := NewStatusUpdateHandler(mockSvc)

	mockSvc.On("Delete", mock.Anything, "update-123").Return(nil)

	req := requestWithURLParam(http.MethodDelete, "/api/status-updates/update-123", "id", "update-123", nil)
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockSvc.AssertExpectations(t)
}
