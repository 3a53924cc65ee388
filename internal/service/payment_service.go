package service

import (
	"context"
	"errors"
	"time"

	"go-event-ticketing/internal/credential"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/queue"
	"go-event-ticketing/internal/repository"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxBeginner 由 *pgxpool.Pool 滿足；抽成介面方便測試替身
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PaymentService 商品活動的訂單/付款閘道。
// 付款核准是商品票券唯一的發票路徑。
type PaymentService interface {
	CreateOrder(ctx context.Context, participantID int, eventID uuid.UUID, quantity int) (*model.Order, error)
	UploadProof(ctx context.Context, orderID int, participantID int, method string, proofImage string) (*model.Payment, error)
	// Approve 核准付款並補發票券；重試安全（已有票號就沿用，已核准過回報 already processed）
	Approve(ctx context.Context, paymentID int, reviewerID int) error
	Reject(ctx context.Context, paymentID int, reviewerID int, reason string) error
}

type PaymentServiceImpl struct {
	db                TxBeginner
	eventRepo         repository.EventRepository
	userRepo          repository.UserRepository
	participationRepo repository.ParticipationRepository
	orderRepo         repository.OrderRepository
	paymentRepo       repository.PaymentRepository
	notificationQueue queue.NotificationQueue
}

func NewPaymentService(
	db TxBeginner,
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	participationRepo repository.ParticipationRepository,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	notificationQueue queue.NotificationQueue,
) PaymentService {
	return &PaymentServiceImpl{
		db:                db,
		eventRepo:         eventRepo,
		userRepo:          userRepo,
		participationRepo: participationRepo,
		orderRepo:         orderRepo,
		paymentRepo:       paymentRepo,
		notificationQueue: notificationQueue,
	}
}

func (s *PaymentServiceImpl) CreateOrder(ctx context.Context, participantID int, eventID uuid.UUID, quantity int) (*model.Order, error) {
	if quantity < 1 {
		return nil, apperrors.ErrInvalidInput
	}

	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.MerchandiseOptions != nil && event.MerchandiseOptions.MaxPerUser > 0 &&
		quantity > event.MerchandiseOptions.MaxPerUser {
		return nil, apperrors.ErrExceedsMaxPerUser
	}

	// 訂單掛在有效且待付款的報名紀錄底下
	p, err := s.participationRepo.FindByParticipantAndEvent(ctx, participantID, event.ID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.ParticipationStatusRegistered || p.PaymentStatus != model.PaymentStatePending {
		return nil, apperrors.ErrPaymentNotRequired
	}

	order := &model.Order{
		ParticipantID: participantID,
		EventID:       event.ID,
		Quantity:      quantity,
		TotalAmount:   float64(quantity) * event.RegistrationFee,
		PaymentStatus: model.OrderPaymentPendingApproval,
		OrderStatus:   model.OrderStatusProcessing,
	}

	return s.orderRepo.Create(ctx, order)
}

func (s *PaymentServiceImpl) UploadProof(ctx context.Context, orderID int, participantID int, method string, proofImage string) (*model.Payment, error) {
	if method == "" || proofImage == "" {
		return nil, apperrors.ErrInvalidInput
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.ParticipantID != participantID {
		return nil, apperrors.ErrNotAuthorized
	}

	if order.PaymentStatus != model.OrderPaymentPendingApproval {
		return nil, apperrors.ErrOrderAlreadyProcessed
	}

	payment := &model.Payment{
		OrderID:       orderID,
		ProofImage:    proofImage,
		PaymentMethod: method,
	}

	return s.paymentRepo.UpsertForOrder(ctx, payment)
}

// canReview 活動擁有者或管理員才能審核付款
func canReview(reviewer *model.User, event *model.Event) bool {
	if reviewer.Role == model.RoleAdmin {
		return true
	}
	return reviewer.Role == model.RoleOrganizer && event.OrganizerID == reviewer.ID
}

func (s *PaymentServiceImpl) Approve(ctx context.Context, paymentID int, reviewerID int) error {
	reviewer, err := s.userRepo.FindByID(ctx, reviewerID)
	if err != nil {
		return err
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}

	order, err := s.orderRepo.FindByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}

	event, err := s.eventRepo.FindByID(ctx, order.EventID)
	if err != nil {
		return err
	}

	if !canReview(reviewer, event) {
		return apperrors.ErrNotAuthorized
	}

	participant, err := s.userRepo.FindByID(ctx, order.ParticipantID)
	if err != nil {
		return err
	}

	// 票號撞號會讓整個交易中止，整段重來並重新產號
	var issued *model.Notification
	for attempt := 0; attempt < maxTicketIDAttempts; attempt++ {
		issued, err = s.approveTx(ctx, paymentID, reviewer.ID, order, event, participant)
		if errors.Is(err, apperrors.ErrTicketIDConflict) {
			continue
		}
		break
	}
	if err != nil {
		return err
	}

	publishNotification(ctx, s.notificationQueue, issued)
	return nil
}

// approveTx 核准的原子段：付款 Pending→Approved、補發票券、訂單結案，同一交易內完成
func (s *PaymentServiceImpl) approveTx(
	ctx context.Context,
	paymentID int,
	reviewerID int,
	order *model.Order,
	event *model.Event,
	participant *model.User,
) (*model.Notification, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 條件式更新當冪等閘門：重試或雙擊在這裡就會停下
	if _, err := s.paymentRepo.Approve(ctx, tx, paymentID, reviewerID); err != nil {
		return nil, err
	}

	p, err := s.participationRepo.FindByParticipantAndEventWithLock(ctx, tx, order.ParticipantID, order.EventID)
	if err != nil {
		return nil, err
	}

	// 已有票號就沿用（核准必須可以安全重試），憑證綁同一票號重生
	var ticketID string
	if p.TicketID != nil {
		ticketID = *p.TicketID
	} else {
		ticketID = GenerateTicketID(event.EventID)
	}

	image := ""
	if _, rendered, err := credential.Encode(ticketID, participant.Email, event.Name, time.Now().UTC()); err != nil {
		logger.WithComponent("service").Warn("render credential failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
	} else {
		image = rendered
	}

	if err := s.participationRepo.IssueTicket(ctx, tx, p.ID, ticketID, image); err != nil {
		return nil, err
	}

	if _, err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.OrderPaymentApproved, model.OrderStatusSuccessful); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &model.Notification{
		Type:            model.NotificationPaymentApproved,
		RecipientEmail:  participant.Email,
		RecipientName:   participant.Name,
		EventName:       event.Name,
		TicketID:        ticketID,
		CredentialImage: image,
	}, nil
}

func (s *PaymentServiceImpl) Reject(ctx context.Context, paymentID int, reviewerID int, reason string) error {
	reviewer, err := s.userRepo.FindByID(ctx, reviewerID)
	if err != nil {
		return err
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}

	order, err := s.orderRepo.FindByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}

	event, err := s.eventRepo.FindByID(ctx, order.EventID)
	if err != nil {
		return err
	}

	if !canReview(reviewer, event) {
		return apperrors.ErrNotAuthorized
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := s.paymentRepo.Reject(ctx, tx, paymentID, reviewer.ID, reason); err != nil {
		return err
	}

	// 駁回後報名紀錄維持 Pending 且無票；參加者可重新上傳憑證開新訂單
	if _, err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.OrderPaymentRejected, model.OrderStatusCancelled); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	participant, err := s.userRepo.FindByID(ctx, order.ParticipantID)
	if err == nil {
		publishNotification(ctx, s.notificationQueue, &model.Notification{
			Type:           model.NotificationPaymentRejected,
			RecipientEmail: participant.Email,
			RecipientName:  participant.Name,
			EventName:      event.Name,
			Reason:         reason,
		})
	}

	return nil
}
