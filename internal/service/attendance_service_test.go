package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"go-event-ticketing/internal/model"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAttendanceService() (AttendanceService, *mockEventRepo, *mockUserRepo, *mockParticipationRepo) {
	eventRepo := &mockEventRepo{}
	userRepo := &mockUserRepo{}
	partRepo := &mockParticipationRepo{}
	return NewAttendanceService(eventRepo, userRepo, partRepo), eventRepo, userRepo, partRepo
}

func strPtr(s string) *string { return &s }

func attendanceFixtures() (*model.Event, []*model.AttendanceRow) {
	event := &model.Event{ID: 1, EventID: uuid.New(), Name: "Tech Talk", OrganizerID: 7}
	checkInTime := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := []*model.AttendanceRow{
		{TicketID: strPtr("TKT-abc123-000001"), Name: "Alice", Email: "alice@iiit.edu", Phone: strPtr("0912345678"),
			AttendanceStatus: model.AttendanceCheckedIn, CheckInTime: &checkInTime, CheckInByName: strPtr("Olga")},
		{TicketID: strPtr("TKT-abc123-000002"), Name: "Bob", Email: "bob@example.com",
			AttendanceStatus: model.AttendanceCheckedIn, CheckInTime: &checkInTime, CheckInByName: strPtr("Olga"),
			ManualOverride: true, OverrideReason: strPtr("QR code damaged")},
		{TicketID: strPtr("TKT-abc123-000003"), Name: "Carol", Email: "carol@example.com",
			AttendanceStatus: model.AttendanceCheckedIn, CheckInTime: &checkInTime, CheckInByName: strPtr("Olga")},
		{TicketID: strPtr("TKT-abc123-000004"), Name: "Dave", Email: "dave@example.com",
			AttendanceStatus: model.AttendanceNotScanned},
	}
	return event, rows
}

func TestAttendanceService_Dashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, eventRepo, userRepo, partRepo := setupAttendanceService()
		event, rows := attendanceFixtures()

		eventRepo.On("FindByEventID", ctx, event.EventID).Return(event, nil)
		userRepo.On("FindByID", ctx, 7).Return(organizerUser(), nil)
		partRepo.On("ListForAttendance", ctx, event.ID).Return(rows, nil)

		resp, err := svc.Dashboard(ctx, event.EventID, 7)

		require.NoError(t, err)
		assert.Equal(t, 4, resp.Total)
		assert.Equal(t, 3, resp.CheckedIn)
		assert.Equal(t, 1, resp.NotScanned)
		assert.Equal(t, 1, resp.ManualOverrides)
		assert.Equal(t, 75.0, resp.AttendancePercent)
	})

	t.Run("Success - admin can view any event", func(t *testing.T) {
		svc, eventRepo, userRepo, partRepo := setupAttendanceService()
		event, rows := attendanceFixtures()

		eventRepo.On("FindByEventID", ctx, event.EventID).Return(event, nil)
		userRepo.On("FindByID", ctx, 99).Return(adminUser(), nil)
		partRepo.On("ListForAttendance", ctx, event.ID).Return(rows, nil)

		resp, err := svc.Dashboard(ctx, event.EventID, 99)

		require.NoError(t, err)
		assert.Equal(t, 4, resp.Total)
	})

	t.Run("Success - empty event reports zero percent", func(t *testing.T) {
		svc, eventRepo, userRepo, partRepo := setupAttendanceService()
		event, _ := attendanceFixtures()

		eventRepo.On("FindByEventID", ctx, event.EventID).Return(event, nil)
		userRepo.On("FindByID", ctx, 7).Return(organizerUser(), nil)
		partRepo.On("ListForAttendance", ctx, event.ID).Return([]*model.AttendanceRow{}, nil)

		resp, err := svc.Dashboard(ctx, event.EventID, 7)

		require.NoError(t, err)
		assert.Equal(t, 0, resp.Total)
		assert.Equal(t, 0.0, resp.AttendancePercent)
	})

	t.Run("Success - percent rounds to one decimal", func(t *testing.T) {
		svc, eventRepo, userRepo, partRepo := setupAttendanceService()
		event, _ := attendanceFixtures()
		rows := []*model.AttendanceRow{
			{Name: "A", AttendanceStatus: model.AttendanceCheckedIn},
			{Name: "B", AttendanceStatus: model.AttendanceNotScanned},
			{Name: "C", AttendanceStatus: model.AttendanceNotScanned},
		}

		eventRepo.On("FindByEventID", ctx, event.EventID).Return(event, nil)
		userRepo.On("FindByID", ctx, 7).Return(organizerUser(), nil)
		partRepo.On("ListForAttendance", ctx, event.ID).Return(rows, nil)

		resp, err := svc.Dashboard(ctx, event.EventID, 7)

		require.NoError(t, err)
		assert.Equal(t, 33.3, resp.AttendancePercent)
	})

	t.Run("Failed - ErrNotAuthorized for other organizer", func(t *testing.T) {
		svc, eventRepo, userRepo, partRepo := setupAttendanceService()
		event, _ := attendanceFixtures()

		eventRepo.On("FindByEventID", ctx, event.EventID).Return(event, nil)
		userRepo.On("FindByID", ctx, 42).Return(&model.User{ID: 42, Role: model.RoleOrganizer}, nil)

		_, err := svc.Dashboard(ctx, event.EventID, 42)

		assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
		partRepo.AssertNotCalled(t, "ListForAttendance", ctx, event.ID)
	})
}

func TestAttendanceService_ExportCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, eventRepo, userRepo, partRepo := setupAttendanceService()
		event, rows := attendanceFixtures()

		eventRepo.On("FindByEventID", ctx, event.EventID).Return(event, nil)
		userRepo.On("FindByID", ctx, 7).Return(organizerUser(), nil)
		partRepo.On("ListForAttendance", ctx, event.ID).Return(rows, nil)

		data, err := svc.ExportCSV(ctx, event.EventID, 7)
		require.NoError(t, err)

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 5)

		assert.Equal(t, []string{
			"TicketID", "Name", "Email", "Phone",
			"AttendanceStatus", "CheckInTime", "CheckedInBy", "ManualOverride", "OverrideReason",
		}, records[0])

		assert.Equal(t, []string{
			"TKT-abc123-000001", "Alice", "alice@iiit.edu", "0912345678",
			"checked-in", "2026-03-01 09:30:00", "Olga", "No", "N/A",
		}, records[1])

		// 人工補登要帶 Yes 與理由
		assert.Equal(t, "Yes", records[2][7])
		assert.Equal(t, "QR code damaged", records[2][8])

		// 未掃描者時間與經手人都是 N/A
		assert.Equal(t, []string{
			"TKT-abc123-000004", "Dave", "dave@example.com", "N/A",
			"not-scanned", "N/A", "N/A", "No", "N/A",
		}, records[4])
	})

	t.Run("Failed - ErrNotAuthorized", func(t *testing.T) {
		svc, eventRepo, userRepo, _ := setupAttendanceService()
		event, _ := attendanceFixtures()

		eventRepo.On("FindByEventID", ctx, event.EventID).Return(event, nil)
		userRepo.On("FindByID", ctx, 42).Return(&model.User{ID: 42, Role: model.RoleOrganizer}, nil)

		_, err := svc.ExportCSV(ctx, event.EventID, 42)

		assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
	})
}
