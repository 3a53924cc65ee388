package model

// NotificationType 通知類型
type NotificationType string

const (
	NotificationRegistered      NotificationType = "registration_confirmed"
	NotificationPaymentApproved NotificationType = "payment_approved"
	NotificationPaymentRejected NotificationType = "payment_rejected"
	NotificationCancelled       NotificationType = "registration_cancelled"
)

// Notification 寄信側信道的酬載。投遞失敗只記 log，不影響主流程。
type Notification struct {
	Type            NotificationType `json:"type"`
	RecipientEmail  string           `json:"recipient_email"`
	RecipientName   string           `json:"recipient_name"`
	EventName       string           `json:"event_name"`
	TicketID        string           `json:"ticket_id,omitempty"`
	CredentialImage string           `json:"credential_image,omitempty"`
	Reason          string           `json:"reason,omitempty"`
}
