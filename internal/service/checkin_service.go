package service

import (
	"context"
	"strings"
	"time"

	"go-event-ticketing/internal/credential"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/repository"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
)

// 人工補登理由的最短長度，確保稽核紀錄有內容
const minOverrideReasonLen = 10

// ScanResult 掃描結果。AlreadyScanned 時帶回第一次報到的時間與人員，狀態不再變動。
type ScanResult struct {
	Participation  *model.Participation `json:"participation"`
	AlreadyScanned bool                 `json:"already_scanned"`
	CheckInTime    *time.Time           `json:"check_in_time,omitempty"`
	CheckInBy      *int                 `json:"check_in_by,omitempty"`
}

// CheckinService 報到狀態機：not-scanned → checked-in 恰好一次（掃描路徑），
// 人工補登是明確的管理覆寫，可重複施用且每次都留稽核。
type CheckinService interface {
	Scan(ctx context.Context, rawCredential string, eventID uuid.UUID, organizerID int) (*ScanResult, error)
	ManualCheckIn(ctx context.Context, participationID int, reason string, organizerID int) (*model.Participation, error)
}

type CheckinServiceImpl struct {
	eventRepo         repository.EventRepository
	participationRepo repository.ParticipationRepository
}

func NewCheckinService(
	eventRepo repository.EventRepository,
	participationRepo repository.ParticipationRepository,
) CheckinService {
	return &CheckinServiceImpl{
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
	}
}

// Scan 驗票管線，檢查依序進行、第一個失敗者決定回覆：
// 解碼 → 結構驗證 → 查票 → 活動比對 → 主辦授權 → email 比對 → 取消/待付款 → 重複掃描 → CAS 報到
func (s *CheckinServiceImpl) Scan(ctx context.Context, rawCredential string, eventID uuid.UUID, organizerID int) (*ScanResult, error) {
	payload, err := credential.Decode(rawCredential)
	if err != nil {
		return nil, err
	}

	if !credential.Verify(payload) {
		return nil, apperrors.ErrCredentialInvalid
	}

	p, err := s.participationRepo.FindByTicketID(ctx, payload.TicketID)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if p.EventID != event.ID {
		return nil, apperrors.ErrTicketWrongEvent
	}

	if event.OrganizerID != organizerID {
		return nil, apperrors.ErrNotAuthorized
	}

	// 防的是改過的酬載：指向一張存在的票但身份欄位對不上
	if p.Participant == nil || p.Participant.Email != payload.ParticipantEmail {
		return nil, apperrors.ErrCredentialMismatch
	}

	if p.IsCancelled() {
		return nil, apperrors.ErrTicketCancelled
	}

	if p.PaymentStatus == model.PaymentStatePending {
		return nil, apperrors.ErrPaymentPending
	}

	if p.IsCheckedIn() {
		return alreadyScannedResult(p), apperrors.ErrAlreadyScanned
	}

	now := time.Now().UTC()
	applied, err := s.participationRepo.CheckIn(ctx, p.ID, organizerID, now)
	if err != nil {
		return nil, err
	}

	if !applied {
		// CAS 沒改到資料代表某個前置條件在讀與寫之間被併發寫入改掉了。
		// 重讀後按管線同樣的順序判斷原因：取消、待付款，否則就是被別台掃走
		current, err := s.participationRepo.FindByTicketID(ctx, payload.TicketID)
		if err != nil {
			return nil, err
		}
		switch {
		case current.IsCancelled():
			return nil, apperrors.ErrTicketCancelled
		case current.PaymentStatus == model.PaymentStatePending:
			return nil, apperrors.ErrPaymentPending
		default:
			return alreadyScannedResult(current), apperrors.ErrAlreadyScanned
		}
	}

	updated, err := s.participationRepo.FindByTicketID(ctx, payload.TicketID)
	if err != nil {
		return nil, err
	}

	return &ScanResult{Participation: updated}, nil
}

func alreadyScannedResult(p *model.Participation) *ScanResult {
	return &ScanResult{
		Participation:  p,
		AlreadyScanned: true,
		CheckInTime:    p.CheckInTime,
		CheckInBy:      p.CheckInBy,
	}
}

// ManualCheckIn 人工補登。刻意跳過掃描管線的取消/待付款/重複檢查——
// 它存在的目的就是在這些失敗情境下交給人判斷；授權與理由長度仍然必檢。
func (s *CheckinServiceImpl) ManualCheckIn(ctx context.Context, participationID int, reason string, organizerID int) (*model.Participation, error) {
	if len(strings.TrimSpace(reason)) < minOverrideReasonLen {
		return nil, apperrors.ErrReasonTooShort
	}

	p, err := s.participationRepo.FindByID(ctx, participationID)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.FindByID(ctx, p.EventID)
	if err != nil {
		return nil, err
	}

	if event.OrganizerID != organizerID {
		return nil, apperrors.ErrNotAuthorized
	}

	return s.participationRepo.ManualCheckIn(ctx, participationID, strings.TrimSpace(reason), organizerID, time.Now().UTC())
}
