package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// authedJSONRequest 組出帶身份標頭的 JSON 請求；閘道驗證後的身份由標頭傳入
func authedJSONRequest(t *testing.T, method, url string, body any, userID int, role model.Role) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.Itoa(userID))
	req.Header.Set("X-User-Role", string(role))
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type mockRegistrationService struct {
	mock.Mock
}

func (m *mockRegistrationService) Register(ctx context.Context, participantID int, eventID uuid.UUID,
	selection *model.MerchandiseSelection, responses []model.FieldResponse) (*model.Participation, error) {
	args := m.Called(ctx, participantID, eventID, selection, responses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *mockRegistrationService) Cancel(ctx context.Context, participationID int, participantID int) error {
	args := m.Called(ctx, participationID, participantID)
	return args.Error(0)
}

func (m *mockRegistrationService) GetByID(ctx context.Context, id int) (*model.Participation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

type mockCheckinService struct {
	mock.Mock
}

func (m *mockCheckinService) Scan(ctx context.Context, rawCredential string, eventID uuid.UUID, organizerID int) (*service.ScanResult, error) {
	args := m.Called(ctx, rawCredential, eventID, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScanResult), args.Error(1)
}

func (m *mockCheckinService) ManualCheckIn(ctx context.Context, participationID int, reason string, organizerID int) (*model.Participation, error) {
	args := m.Called(ctx, participationID, reason, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

type mockAttendanceService struct {
	mock.Mock
}

func (m *mockAttendanceService) Dashboard(ctx context.Context, eventID uuid.UUID, organizerID int) (*service.DashboardResponse, error) {
	args := m.Called(ctx, eventID, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DashboardResponse), args.Error(1)
}

func (m *mockAttendanceService) ExportCSV(ctx context.Context, eventID uuid.UUID, organizerID int) ([]byte, error) {
	args := m.Called(ctx, eventID, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
