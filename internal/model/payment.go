package model

import "time"

// PaymentStatus 付款憑證的審核狀態
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusApproved PaymentStatus = "Approved"
	PaymentStatusRejected PaymentStatus = "Rejected"
)

// Payment 付款憑證，與訂單一對一。憑證是人工審核的上傳檔，非真實金流。
type Payment struct {
	ID              int           `json:"id" db:"id"`
	OrderID         int           `json:"order_id" db:"order_id"`
	ProofImage      string        `json:"proof_image" db:"proof_image"`
	PaymentMethod   string        `json:"payment_method" db:"payment_method"`
	Status          PaymentStatus `json:"status" db:"status"`
	ReviewedBy      *int          `json:"reviewed_by,omitempty" db:"reviewed_by"`
	RejectionReason *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}
