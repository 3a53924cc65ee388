package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAttendanceRouter(checkin *mockCheckinService, attendance *mockAttendanceService) *gin.Engine {
	router := gin.New()
	NewAttendanceHandler(checkin, attendance).RegisterRoutes(router)
	return router
}

func TestScan(t *testing.T) {
	eventID := uuid.New()
	url := "/api/v1/events/" + eventID.String() + "/scan"

	t.Run("Success", func(t *testing.T) {
		checkin := &mockCheckinService{}
		router := setupAttendanceRouter(checkin, &mockAttendanceService{})

		checkin.On("Scan", mock.Anything, "payload", eventID, 7).
			Return(&service.ScanResult{Participation: &model.Participation{ID: 3, AttendanceStatus: model.AttendanceCheckedIn}}, nil)

		w := serve(router, authedJSONRequest(t, "POST", url, ScanRequest{Credential: "payload"}, 7, model.RoleOrganizer))

		assert.Equal(t, http.StatusOK, w.Code)
		var result service.ScanResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.AlreadyScanned)
	})

	t.Run("Failed - missing identity headers", func(t *testing.T) {
		checkin := &mockCheckinService{}
		router := setupAttendanceRouter(checkin, &mockAttendanceService{})

		req := authedJSONRequest(t, "POST", url, ScanRequest{Credential: "payload"}, 7, model.RoleOrganizer)
		req.Header.Del("X-User-ID")
		w := serve(router, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		checkin.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - already scanned returns 409 with first check-in", func(t *testing.T) {
		checkin := &mockCheckinService{}
		router := setupAttendanceRouter(checkin, &mockAttendanceService{})

		firstScan := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
		scanner := 7
		checkin.On("Scan", mock.Anything, "payload", eventID, 7).
			Return(&service.ScanResult{
				Participation:  &model.Participation{ID: 3, AttendanceStatus: model.AttendanceCheckedIn},
				AlreadyScanned: true,
				CheckInTime:    &firstScan,
				CheckInBy:      &scanner,
			}, apperrors.ErrAlreadyScanned)

		w := serve(router, authedJSONRequest(t, "POST", url, ScanRequest{Credential: "payload"}, 7, model.RoleOrganizer))

		assert.Equal(t, http.StatusConflict, w.Code)
		var result service.ScanResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.AlreadyScanned)
		require.NotNil(t, result.CheckInTime)
		assert.True(t, firstScan.Equal(*result.CheckInTime))
	})

	t.Run("Failed - invalid credential format returns 400", func(t *testing.T) {
		checkin := &mockCheckinService{}
		router := setupAttendanceRouter(checkin, &mockAttendanceService{})

		checkin.On("Scan", mock.Anything, "garbage", eventID, 7).Return(nil, apperrors.ErrCredentialFormat)

		w := serve(router, authedJSONRequest(t, "POST", url, ScanRequest{Credential: "garbage"}, 7, model.RoleOrganizer))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - other organizer returns 403", func(t *testing.T) {
		checkin := &mockCheckinService{}
		router := setupAttendanceRouter(checkin, &mockAttendanceService{})

		checkin.On("Scan", mock.Anything, "payload", eventID, 42).Return(nil, apperrors.ErrNotAuthorized)

		w := serve(router, authedJSONRequest(t, "POST", url, ScanRequest{Credential: "payload"}, 42, model.RoleOrganizer))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Failed - ticket not found returns 404", func(t *testing.T) {
		checkin := &mockCheckinService{}
		router := setupAttendanceRouter(checkin, &mockAttendanceService{})

		checkin.On("Scan", mock.Anything, "payload", eventID, 7).Return(nil, apperrors.ErrTicketNotFound)

		w := serve(router, authedJSONRequest(t, "POST", url, ScanRequest{Credential: "payload"}, 7, model.RoleOrganizer))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestManualCheckIn(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		checkin := &mockCheckinService{}
		router := setupAttendanceRouter(checkin, &mockAttendanceService{})

		checkin.On("ManualCheckIn", mock.Anything, 3, "QR code damaged", 7).
			Return(&model.Participation{ID: 3, ManualOverride: true}, nil)

		w := serve(router, authedJSONRequest(t, "PUT", "/api/v1/registrations/3/manual-checkin",
			ManualCheckInRequest{Reason: "QR code damaged"}, 7, model.RoleOrganizer))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Failed - reason too short returns 400", func(t *testing.T) {
		checkin := &mockCheckinService{}
		router := setupAttendanceRouter(checkin, &mockAttendanceService{})

		checkin.On("ManualCheckIn", mock.Anything, 3, "short", 7).Return(nil, apperrors.ErrReasonTooShort)

		w := serve(router, authedJSONRequest(t, "PUT", "/api/v1/registrations/3/manual-checkin",
			ManualCheckInRequest{Reason: "short"}, 7, model.RoleOrganizer))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDashboard(t *testing.T) {
	eventID := uuid.New()
	url := "/api/v1/events/" + eventID.String() + "/attendance"

	t.Run("Success", func(t *testing.T) {
		attendance := &mockAttendanceService{}
		router := setupAttendanceRouter(&mockCheckinService{}, attendance)

		attendance.On("Dashboard", mock.Anything, eventID, 7).
			Return(&service.DashboardResponse{EventID: eventID, Total: 4, CheckedIn: 3, NotScanned: 1, AttendancePercent: 75.0}, nil)

		w := serve(router, authedJSONRequest(t, "GET", url, nil, 7, model.RoleOrganizer))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp service.DashboardResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 75.0, resp.AttendancePercent)
	})

	t.Run("Failed - other organizer returns 403", func(t *testing.T) {
		attendance := &mockAttendanceService{}
		router := setupAttendanceRouter(&mockCheckinService{}, attendance)

		attendance.On("Dashboard", mock.Anything, eventID, 42).Return(nil, apperrors.ErrNotAuthorized)

		w := serve(router, authedJSONRequest(t, "GET", url, nil, 42, model.RoleOrganizer))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestExportCSV(t *testing.T) {
	eventID := uuid.New()
	url := "/api/v1/events/" + eventID.String() + "/attendance/export"

	t.Run("Success", func(t *testing.T) {
		attendance := &mockAttendanceService{}
		router := setupAttendanceRouter(&mockCheckinService{}, attendance)

		csvBody := "TicketID,Name\nTKT-abc123-000001,Alice\n"
		attendance.On("ExportCSV", mock.Anything, eventID, 7).Return([]byte(csvBody), nil)

		w := serve(router, authedJSONRequest(t, "GET", url, nil, 7, model.RoleOrganizer))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Equal(t, csvBody, w.Body.String())
	})
}
