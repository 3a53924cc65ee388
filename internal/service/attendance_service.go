package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"time"

	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/repository"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
)

// DashboardResponse 即時出席儀表板
type DashboardResponse struct {
	EventID           uuid.UUID              `json:"event_id"`
	EventName         string                 `json:"event_name"`
	Total             int                    `json:"total"`
	CheckedIn         int                    `json:"checked_in"`
	NotScanned        int                    `json:"not_scanned"`
	ManualOverrides   int                    `json:"manual_overrides"`
	AttendancePercent float64                `json:"attendance_percent"`
	Participants      []*model.AttendanceRow `json:"participants"`
}

// AttendanceService 出席統計的讀端投影；只統計未取消且付款已清的報名。
// 活動擁有者與管理員可讀。
type AttendanceService interface {
	Dashboard(ctx context.Context, eventID uuid.UUID, requesterID int) (*DashboardResponse, error)
	ExportCSV(ctx context.Context, eventID uuid.UUID, requesterID int) ([]byte, error)
}

type AttendanceServiceImpl struct {
	eventRepo         repository.EventRepository
	userRepo          repository.UserRepository
	participationRepo repository.ParticipationRepository
}

func NewAttendanceService(
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	participationRepo repository.ParticipationRepository,
) AttendanceService {
	return &AttendanceServiceImpl{
		eventRepo:         eventRepo,
		userRepo:          userRepo,
		participationRepo: participationRepo,
	}
}

func (s *AttendanceServiceImpl) loadRows(ctx context.Context, eventID uuid.UUID, requesterID int) (*model.Event, []*model.AttendanceRow, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	// 授權規則與付款審核一致：活動擁有者或管理員
	requester, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, nil, err
	}
	if !canReview(requester, event) {
		return nil, nil, apperrors.ErrNotAuthorized
	}

	rows, err := s.participationRepo.ListForAttendance(ctx, event.ID)
	if err != nil {
		return nil, nil, err
	}

	return event, rows, nil
}

func (s *AttendanceServiceImpl) Dashboard(ctx context.Context, eventID uuid.UUID, requesterID int) (*DashboardResponse, error) {
	event, rows, err := s.loadRows(ctx, eventID, requesterID)
	if err != nil {
		return nil, err
	}

	resp := &DashboardResponse{
		EventID:      event.EventID,
		EventName:    event.Name,
		Total:        len(rows),
		Participants: rows,
	}

	for _, row := range rows {
		if row.AttendanceStatus == model.AttendanceCheckedIn {
			resp.CheckedIn++
		}
		if row.ManualOverride {
			resp.ManualOverrides++
		}
	}
	resp.NotScanned = resp.Total - resp.CheckedIn

	// 百分比取到小數一位，無人報名時為 0
	if resp.Total > 0 {
		resp.AttendancePercent = math.Round(float64(resp.CheckedIn)/float64(resp.Total)*1000) / 10
	}

	return resp, nil
}

// csvHeader 匯出欄位順序固定，下游報表靠位置解析
var csvHeader = []string{
	"TicketID", "Name", "Email", "Phone",
	"AttendanceStatus", "CheckInTime", "CheckedInBy", "ManualOverride", "OverrideReason",
}

func (s *AttendanceServiceImpl) ExportCSV(ctx context.Context, eventID uuid.UUID, requesterID int) ([]byte, error) {
	_, rows, err := s.loadRows(ctx, eventID, requesterID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, row := range rows {
		record := []string{
			orNA(row.TicketID),
			row.Name,
			row.Email,
			orNA(row.Phone),
			string(row.AttendanceStatus),
			timeOrNA(row.CheckInTime),
			orNA(row.CheckInByName),
			yesNo(row.ManualOverride),
			orNA(row.OverrideReason),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func timeOrNA(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
