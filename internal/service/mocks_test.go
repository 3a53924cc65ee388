package service

import (
	"context"
	"time"

	"go-event-ticketing/internal/cache"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/queue"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// 寫入類方法在 Return(nil, nil) 時原樣帶回輸入，模擬 RETURNING 的行為

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		if args.Error(1) == nil {
			return event, nil
		}
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *mockEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *mockEventRepo) FindByID(ctx context.Context, id int) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *mockEventRepo) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *mockEventRepo) IncrementRegistrationCount(ctx context.Context, id int, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *mockEventRepo) RecomputeRegistrationCount(ctx context.Context, id int) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type mockParticipationRepo struct {
	mock.Mock
}

func (m *mockParticipationRepo) Create(ctx context.Context, p *model.Participation) (*model.Participation, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		if args.Error(1) == nil {
			return p, nil
		}
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *mockParticipationRepo) CreateWithCapacity(ctx context.Context, p *model.Participation, limit int) (*model.Participation, error) {
	args := m.Called(ctx, p, limit)
	if args.Get(0) == nil {
		if args.Error(1) == nil {
			return p, nil
		}
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *mockParticipationRepo) FindByID(ctx context.Context, id int) (*model.Participation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *mockParticipationRepo) FindByTicketID(ctx context.Context, ticketID string) (*model.Participation, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *mockParticipationRepo) FindByParticipantAndEvent(ctx context.Context, participantID, eventID int) (*model.Participation, error) {
	args := m.Called(ctx, participantID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *mockParticipationRepo) CountActiveByEvent(ctx context.Context, eventID int) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *mockParticipationRepo) CheckIn(ctx context.Context, id int, organizerID int, now time.Time) (bool, error) {
	args := m.Called(ctx, id, organizerID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockParticipationRepo) ManualCheckIn(ctx context.Context, id int, reason string, organizerID int, now time.Time) (*model.Participation, error) {
	args := m.Called(ctx, id, reason, organizerID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *mockParticipationRepo) Cancel(ctx context.Context, id int, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *mockParticipationRepo) ListForAttendance(ctx context.Context, eventID int) ([]*model.AttendanceRow, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AttendanceRow), args.Error(1)
}

func (m *mockParticipationRepo) FindByParticipantAndEventWithLock(ctx context.Context, tx pgx.Tx, participantID, eventID int) (*model.Participation, error) {
	args := m.Called(ctx, tx, participantID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Participation), args.Error(1)
}

func (m *mockParticipationRepo) IssueTicket(ctx context.Context, tx pgx.Tx, id int, ticketID string, credentialImage string) error {
	args := m.Called(ctx, tx, id, ticketID, credentialImage)
	return args.Error(0)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		if args.Error(1) == nil {
			return order, nil
		}
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id int) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockOrderRepo) FindByParticipantID(ctx context.Context, participantID int) ([]*model.Order, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, paymentStatus model.OrderPaymentStatus, orderStatus model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, tx, id, paymentStatus, orderStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) UpsertForOrder(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		if args.Error(1) == nil {
			return payment, nil
		}
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id int) (*model.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *mockPaymentRepo) FindByOrderID(ctx context.Context, orderID int) (*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *mockPaymentRepo) Approve(ctx context.Context, tx pgx.Tx, id int, reviewerID int) (*model.Payment, error) {
	args := m.Called(ctx, tx, id, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *mockPaymentRepo) Reject(ctx context.Context, tx pgx.Tx, id int, reviewerID int, reason string) (*model.Payment, error) {
	args := m.Called(ctx, tx, id, reviewerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

type mockCapacityManager struct {
	mock.Mock
}

func (m *mockCapacityManager) WarmUpCapacity(ctx context.Context, eventID int, limit int, active int) error {
	args := m.Called(ctx, eventID, limit, active)
	return args.Error(0)
}

func (m *mockCapacityManager) GetRemaining(ctx context.Context, eventID int) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *mockCapacityManager) ReserveSlot(ctx context.Context, eventID int, participantID int) (cache.ReserveResult, error) {
	args := m.Called(ctx, eventID, participantID)
	return args.Get(0).(cache.ReserveResult), args.Error(1)
}

func (m *mockCapacityManager) ReleaseSlot(ctx context.Context, eventID int, participantID int) error {
	args := m.Called(ctx, eventID, participantID)
	return args.Error(0)
}

type mockNotificationQueue struct {
	mock.Mock
}

func (m *mockNotificationQueue) PublishNotification(ctx context.Context, notification *model.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *mockNotificationQueue) SubscribeNotifications(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}

// fakeTx 交易替身：repository 方法都已 mock 掉，這裡只追蹤 commit/rollback
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *fakeTx) Conn() *pgx.Conn { return nil }

type fakeTxBeginner struct {
	tx *fakeTx
}

func (b *fakeTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return b.tx, nil
}
