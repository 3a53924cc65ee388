package repository

import (
	"context"
	"time"

	"go-event-ticketing/internal/model"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	// UpsertForOrder 一張訂單只有一筆付款；重新上傳憑證時覆蓋舊的並回到 Pending
	UpsertForOrder(ctx context.Context, payment *model.Payment) (*model.Payment, error)
	FindByID(ctx context.Context, id int) (*model.Payment, error)
	FindByOrderID(ctx context.Context, orderID int) (*model.Payment, error)

	// Transaction methods
	// Approve / Reject 以 status='Pending' 為條件，重試與雙擊只會成功一次
	Approve(ctx context.Context, tx pgx.Tx, id int, reviewerID int) (*model.Payment, error)
	Reject(ctx context.Context, tx pgx.Tx, id int, reviewerID int, reason string) (*model.Payment, error)
}

type PaymentRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &PaymentRepositoryImpl{
		pool: pool,
	}
}

const paymentColumns = `id, order_id, proof_image, payment_method, status,
		reviewed_by, rejection_reason, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var payment model.Payment
	err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.ProofImage,
		&payment.PaymentMethod,
		&payment.Status,
		&payment.ReviewedBy,
		&payment.RejectionReason,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) UpsertForOrder(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	query := `
		INSERT INTO payments (order_id, proof_image, payment_method, status)
		VALUES ($1, $2, $3, 'Pending')
		ON CONFLICT (order_id) DO UPDATE
		SET proof_image = EXCLUDED.proof_image,
			payment_method = EXCLUDED.payment_method,
			status = 'Pending',
			reviewed_by = NULL,
			rejection_reason = NULL,
			updated_at = $4
		RETURNING ` + paymentColumns

	return scanPayment(r.pool.QueryRow(ctx, query,
		payment.OrderID, payment.ProofImage, payment.PaymentMethod, time.Now().UTC(),
	))
}

func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
	`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepositoryImpl) FindByOrderID(ctx context.Context, orderID int) (*model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE order_id = $1
	`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepositoryImpl) Approve(ctx context.Context, tx pgx.Tx, id int, reviewerID int) (*model.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'Approved', reviewed_by = $1, updated_at = $2
		WHERE id = $3 AND status = 'Pending'
		RETURNING ` + paymentColumns

	payment, err := scanPayment(tx.QueryRow(ctx, query, reviewerID, time.Now().UTC(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrPaymentAlreadyProcessed
		}
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepositoryImpl) Reject(ctx context.Context, tx pgx.Tx, id int, reviewerID int, reason string) (*model.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'Rejected', reviewed_by = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND status = 'Pending'
		RETURNING ` + paymentColumns

	payment, err := scanPayment(tx.QueryRow(ctx, query, reviewerID, reason, time.Now().UTC(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrPaymentAlreadyProcessed
		}
		return nil, err
	}

	return payment, nil
}
