package service

import (
	"context"

	"go-event-ticketing/internal/cache"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/repository"

	"github.com/google/uuid"
)

// EventService 活動內容管理屬外部協作者；這裡只提供核心需要的讀取面、
// 種子建立，以及開放報名時的名額預熱。
type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	// OpenForRegistration 活動開放報名：預熱該活動的 Redis 名額
	OpenForRegistration(ctx context.Context, eventID uuid.UUID) error
}

type EventServiceImpl struct {
	repo              repository.EventRepository
	participationRepo repository.ParticipationRepository
	capacityManager   cache.EventCapacityManager
}

func NewEventService(
	repo repository.EventRepository,
	participationRepo repository.ParticipationRepository,
	capacityManager cache.EventCapacityManager,
) EventService {
	return &EventServiceImpl{
		repo:              repo,
		participationRepo: participationRepo,
		capacityManager:   capacityManager,
	}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return s.repo.FindByEventID(ctx, eventID)
}

func (s *EventServiceImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Status == "" {
		event.Status = model.EventStatusDraft
	}
	return s.repo.Create(ctx, event)
}

func (s *EventServiceImpl) OpenForRegistration(ctx context.Context, eventID uuid.UUID) error {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return err
	}

	if event.RegistrationLimit <= 0 {
		return nil
	}

	active, err := s.participationRepo.CountActiveByEvent(ctx, event.ID)
	if err != nil {
		return err
	}

	return s.capacityManager.WarmUpCapacity(ctx, event.ID, event.RegistrationLimit, active)
}
