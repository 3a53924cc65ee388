package repository

import (
	"context"
	"time"

	"go-event-ticketing/internal/model"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	FindByID(ctx context.Context, id int) (*model.Event, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	// IncrementRegistrationCount 調整非正規化計數；僅供顯示，容量檢查不依賴它
	IncrementRegistrationCount(ctx context.Context, id int, delta int) error
	// RecomputeRegistrationCount 從報名紀錄重算計數（快取損壞時的還原程序）
	RecomputeRegistrationCount(ctx context.Context, id int) (int, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `id, event_id, name, organizer_id, event_type, eligibility,
		registration_deadline, event_start_date, event_end_date,
		registration_limit, registration_fee, merchandise_options, custom_form_fields,
		registration_count, status, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.EventID,
		&event.Name,
		&event.OrganizerID,
		&event.EventType,
		&event.Eligibility,
		&event.RegistrationDeadline,
		&event.EventStartDate,
		&event.EventEndDate,
		&event.RegistrationLimit,
		&event.RegistrationFee,
		&event.MerchandiseOptions,
		&event.CustomFormFields,
		&event.RegistrationCount,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := `
		INSERT INTO events (
			event_id, name, organizer_id, event_type, eligibility,
			registration_deadline, event_start_date, event_end_date,
			registration_limit, registration_fee, merchandise_options, custom_form_fields, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + eventColumns

	row := r.pool.QueryRow(ctx, query,
		event.EventID, event.Name, event.OrganizerID, event.EventType, event.Eligibility,
		event.RegistrationDeadline, event.EventStartDate, event.EventEndDate,
		event.RegistrationLimit, event.RegistrationFee, event.MerchandiseOptions,
		event.CustomFormFields, event.Status,
	)
	return scanEvent(row)
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return event, nil
}

func (r *EventRepositoryImpl) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE event_id = $1
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return event, nil
}

func (r *EventRepositoryImpl) IncrementRegistrationCount(ctx context.Context, id int, delta int) error {
	query := `
		UPDATE events
		SET registration_count = registration_count + $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}

func (r *EventRepositoryImpl) RecomputeRegistrationCount(ctx context.Context, id int) (int, error) {
	query := `
		UPDATE events
		SET registration_count = (
			SELECT COUNT(*) FROM participations
			WHERE event_id = $1 AND status != 'Cancelled'
		), updated_at = $2
		WHERE id = $1
		RETURNING registration_count
	`

	var count int
	err := r.pool.QueryRow(ctx, query, id, time.Now().UTC()).Scan(&count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, apperrors.ErrEventNotFound
		}
		return 0, err
	}

	return count, nil
}
