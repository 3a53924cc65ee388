package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go-event-ticketing/internal/cache"
	"go-event-ticketing/internal/credential"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/queue"
	"go-event-ticketing/internal/repository"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 票號撞號時重新產號的次數上限；6 位隨機尾碼撞三次基本上不會發生
const maxTicketIDAttempts = 3

type RegistrationService interface {
	// Register 報名活動。一般活動同步發票並回傳票號；商品活動先掛 Pending 等付款核准。
	Register(ctx context.Context, participantID int, eventID uuid.UUID,
		selection *model.MerchandiseSelection, responses []model.FieldResponse) (*model.Participation, error)
	// Cancel 取消報名；只允許在活動開始前，且取消後名額立即釋出
	Cancel(ctx context.Context, participationID int, participantID int) error
	GetByID(ctx context.Context, id int) (*model.Participation, error)
}

type RegistrationServiceImpl struct {
	eventRepo         repository.EventRepository
	userRepo          repository.UserRepository
	participationRepo repository.ParticipationRepository
	capacityManager   cache.EventCapacityManager
	notificationQueue queue.NotificationQueue
}

func NewRegistrationService(
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	participationRepo repository.ParticipationRepository,
	capacityManager cache.EventCapacityManager,
	notificationQueue queue.NotificationQueue,
) RegistrationService {
	return &RegistrationServiceImpl{
		eventRepo:         eventRepo,
		userRepo:          userRepo,
		participationRepo: participationRepo,
		capacityManager:   capacityManager,
		notificationQueue: notificationQueue,
	}
}

// GenerateTicketID 票號格式：固定前綴 + 活動 uuid 末 6 碼 + 6 位隨機數字。
// 唯一性由資料庫索引保證，撞號時呼叫端重新產號。
func GenerateTicketID(eventID uuid.UUID) string {
	hex := strings.ReplaceAll(eventID.String(), "-", "")
	return fmt.Sprintf("TKT-%s-%06d", hex[len(hex)-6:], rand.Intn(1000000))
}

func (s *RegistrationServiceImpl) Register(
	ctx context.Context,
	participantID int,
	eventID uuid.UUID,
	selection *model.MerchandiseSelection,
	responses []model.FieldResponse,
) (*model.Participation, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	profile, err := s.userRepo.FindByID(ctx, participantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.participationRepo.FindByParticipantAndEvent(ctx, participantID, event.ID)
	if err != nil && !errors.Is(err, apperrors.ErrParticipationNotFound) {
		return nil, err
	}

	activeCount, err := s.participationRepo.CountActiveByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := EvaluateRegistration(event, profile, existing, activeCount, selection, responses, now); err != nil {
		return nil, err
	}

	// 1. Redis 名額預約：吸收尖峰、提早拒絕。資料庫的條件式寫入才是真相來源。
	reserved := false
	if event.RegistrationLimit > 0 {
		result, err := s.capacityManager.ReserveSlot(ctx, event.ID, participantID)
		switch {
		case errors.Is(err, apperrors.ErrLimitReached), errors.Is(err, apperrors.ErrAlreadyRegistered):
			return nil, err
		case err != nil:
			// Redis 故障不擋報名，退回純資料庫把關
			logger.WithComponent("service").Warn("capacity reserve failed, fall back to db",
				zap.Int("event_id", event.ID), zap.Error(err))
		case result == cache.ReserveOK:
			reserved = true
		}
	}

	created, err := s.insertParticipation(ctx, event, profile, selection, responses, now)
	if err != nil {
		// 2. 寫入失敗要歸還名額：用 context.Background() 確保一定執行
		if reserved {
			if rbErr := s.capacityManager.ReleaseSlot(context.Background(), event.ID, participantID); rbErr != nil {
				logger.WithComponent("service").Error("release slot failed",
					zap.Int("event_id", event.ID), zap.Int("participant_id", participantID), zap.Error(rbErr))
			}
		}
		return nil, err
	}

	// 非正規化計數只供顯示，失敗記 log 就好
	if err := s.eventRepo.IncrementRegistrationCount(ctx, event.ID, 1); err != nil {
		logger.WithComponent("service").Warn("increment registration count failed",
			zap.Int("event_id", event.ID), zap.Error(err))
	}

	notification := &model.Notification{
		Type:           model.NotificationRegistered,
		RecipientEmail: profile.Email,
		RecipientName:  profile.Name,
		EventName:      event.Name,
	}
	if created.TicketID != nil {
		notification.TicketID = *created.TicketID
	}
	if created.CredentialImage != nil {
		notification.CredentialImage = *created.CredentialImage
	}
	publishNotification(ctx, s.notificationQueue, notification)

	return created, nil
}

// insertParticipation 組報名紀錄並寫入；一般活動含發票與撞號重試
func (s *RegistrationServiceImpl) insertParticipation(
	ctx context.Context,
	event *model.Event,
	profile *model.User,
	selection *model.MerchandiseSelection,
	responses []model.FieldResponse,
	now time.Time,
) (*model.Participation, error) {
	var lastErr error

	for attempt := 0; attempt < maxTicketIDAttempts; attempt++ {
		p := &model.Participation{
			ParticipantID: profile.ID,
			EventID:       event.ID,
			Status:        model.ParticipationStatusRegistered,
		}

		switch event.EventType {
		case model.EventTypeNormal:
			p.PaymentStatus = model.PaymentStateNotRequired
			p.CustomFieldResponses = responses

			ticketID := GenerateTicketID(event.EventID)
			p.TicketID = &ticketID

			_, image, err := credential.Encode(ticketID, profile.Email, event.Name, now)
			if err != nil {
				// 渲染失敗不擋報名；票號照發，圖之後可憑同一票號重生
				logger.WithComponent("service").Warn("render credential failed",
					zap.String("ticket_id", ticketID), zap.Error(err))
			} else {
				p.CredentialImage = &image
			}
		case model.EventTypeMerchandise:
			p.PaymentStatus = model.PaymentStatePending
			p.MerchandiseSelection = selection
		}

		var created *model.Participation
		var err error
		if event.RegistrationLimit > 0 {
			created, err = s.participationRepo.CreateWithCapacity(ctx, p, event.RegistrationLimit)
		} else {
			created, err = s.participationRepo.Create(ctx, p)
		}

		if errors.Is(err, apperrors.ErrTicketIDConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}

	return nil, lastErr
}

func (s *RegistrationServiceImpl) Cancel(ctx context.Context, participationID int, participantID int) error {
	p, err := s.participationRepo.FindByID(ctx, participationID)
	if err != nil {
		return err
	}

	if p.ParticipantID != participantID {
		return apperrors.ErrNotAuthorized
	}

	event, err := s.eventRepo.FindByID(ctx, p.EventID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if !now.Before(event.EventStartDate) {
		return apperrors.ErrEventStarted
	}

	if err := s.participationRepo.Cancel(ctx, p.ID, now); err != nil {
		return err
	}

	// 名額與計數盡力歸還；容量真相在資料庫的即時統計
	if err := s.capacityManager.ReleaseSlot(context.Background(), event.ID, participantID); err != nil {
		logger.WithComponent("service").Warn("release slot failed",
			zap.Int("event_id", event.ID), zap.Error(err))
	}
	if err := s.eventRepo.IncrementRegistrationCount(ctx, event.ID, -1); err != nil {
		logger.WithComponent("service").Warn("decrement registration count failed",
			zap.Int("event_id", event.ID), zap.Error(err))
	}

	profile, err := s.userRepo.FindByID(ctx, participantID)
	if err == nil {
		publishNotification(ctx, s.notificationQueue, &model.Notification{
			Type:           model.NotificationCancelled,
			RecipientEmail: profile.Email,
			RecipientName:  profile.Name,
			EventName:      event.Name,
		})
	}

	return nil
}

func (s *RegistrationServiceImpl) GetByID(ctx context.Context, id int) (*model.Participation, error) {
	return s.participationRepo.FindByID(ctx, id)
}
