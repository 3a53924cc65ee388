package model

import "time"

// OrderPaymentStatus 訂單的付款審核狀態
type OrderPaymentStatus string

const (
	OrderPaymentPendingApproval OrderPaymentStatus = "PendingApproval"
	OrderPaymentApproved        OrderPaymentStatus = "Approved"
	OrderPaymentRejected        OrderPaymentStatus = "Rejected"
)

// OrderStatus 訂單狀態
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusSuccessful OrderStatus = "Successful"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	transitions := map[OrderStatus][]OrderStatus{
		OrderStatusProcessing: {OrderStatusSuccessful, OrderStatusCancelled},
		OrderStatusSuccessful: {},
		OrderStatusCancelled:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Order 商品活動的訂單；只有 MERCHANDISE 活動會走到這裡
type Order struct {
	ID            int                `json:"id" db:"id"`
	ParticipantID int                `json:"participant_id" db:"participant_id"`
	EventID       int                `json:"event_id" db:"event_id"`
	Quantity      int                `json:"quantity" db:"quantity"`
	TotalAmount   float64            `json:"total_amount" db:"total_amount"`
	PaymentStatus OrderPaymentStatus `json:"payment_status" db:"payment_status"`
	OrderStatus   OrderStatus        `json:"order_status" db:"order_status"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}
