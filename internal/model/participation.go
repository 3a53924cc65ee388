package model

import "time"

// ParticipationStatus 報名紀錄狀態
type ParticipationStatus string

const (
	ParticipationStatusRegistered ParticipationStatus = "Registered"
	ParticipationStatusCancelled  ParticipationStatus = "Cancelled"
	ParticipationStatusCompleted  ParticipationStatus = "Completed"
)

func (s ParticipationStatus) IsValid() bool {
	switch s {
	case ParticipationStatusRegistered, ParticipationStatusCancelled, ParticipationStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態；Cancelled 為終態
func (s ParticipationStatus) CanTransitionTo(target ParticipationStatus) bool {
	transitions := map[ParticipationStatus][]ParticipationStatus{
		ParticipationStatusRegistered: {ParticipationStatusCancelled, ParticipationStatusCompleted},
		ParticipationStatusCompleted:  {},
		ParticipationStatusCancelled:  {},
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

// PaymentState 報名紀錄的付款狀態
type PaymentState string

const (
	PaymentStateNotRequired PaymentState = "NotRequired"
	PaymentStatePending     PaymentState = "Pending"
	PaymentStatePaid        PaymentState = "Paid"
)

// AttendanceStatus 出席狀態：not-scanned → checked-in（掃描路徑不可逆）
type AttendanceStatus string

const (
	AttendanceNotScanned AttendanceStatus = "not-scanned"
	AttendanceCheckedIn  AttendanceStatus = "checked-in"
)

// MerchandiseSelection 商品活動的報名選項
type MerchandiseSelection struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

// FieldResponse 一般活動的自訂欄位回覆
type FieldResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Participation 報名紀錄（即票）。(participant_id, event_id) 唯一。
// TicketID 在一般活動於建立時發出；商品活動則等到付款核准。
// ScanCount 僅供稽核，重複掃描由 AttendanceStatus 擋下。
type Participation struct {
	ID                   int                   `json:"id" db:"id"`
	ParticipantID        int                   `json:"participant_id" db:"participant_id"`
	EventID              int                   `json:"event_id" db:"event_id"`
	TicketID             *string               `json:"ticket_id,omitempty" db:"ticket_id"`
	CredentialImage      *string               `json:"credential_image,omitempty" db:"credential_image"`
	Status               ParticipationStatus   `json:"status" db:"status"`
	PaymentStatus        PaymentState          `json:"payment_status" db:"payment_status"`
	AttendanceStatus     AttendanceStatus      `json:"attendance_status" db:"attendance_status"`
	ScanCount            int                   `json:"scan_count" db:"scan_count"`
	ManualOverride       bool                  `json:"manual_override" db:"manual_override"`
	OverrideReason       *string               `json:"override_reason,omitempty" db:"override_reason"`
	OverrideBy           *int                  `json:"override_by,omitempty" db:"override_by"`
	OverrideAt           *time.Time            `json:"override_at,omitempty" db:"override_at"`
	CheckInTime          *time.Time            `json:"check_in_time,omitempty" db:"check_in_time"`
	CheckInBy            *int                  `json:"check_in_by,omitempty" db:"check_in_by"`
	MerchandiseSelection *MerchandiseSelection `json:"merchandise_selection,omitempty" db:"merchandise_selection"`
	CustomFieldResponses []FieldResponse       `json:"custom_field_responses,omitempty" db:"custom_field_responses"`
	RegistrationDate     time.Time             `json:"registration_date" db:"registration_date"`
	CreatedAt            time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at" db:"updated_at"`

	// 由 repository join users 帶出，供驗票與儀表板使用
	Participant *User `json:"participant,omitempty" db:"-"`
}

// IsCancelled 檢查報名是否已取消（終態，不列入容量與出席統計）
func (p *Participation) IsCancelled() bool {
	return p.Status == ParticipationStatusCancelled
}

// IsCheckedIn 檢查是否已完成報到
func (p *Participation) IsCheckedIn() bool {
	return p.AttendanceStatus == AttendanceCheckedIn
}

// PaymentCleared 付款已完成或本來就不需付款；儀表板只統計這些紀錄
func (p *Participation) PaymentCleared() bool {
	return p.PaymentStatus == PaymentStatePaid || p.PaymentStatus == PaymentStateNotRequired
}

// AttendanceRow 儀表板與 CSV 匯出共用的扁平投影
type AttendanceRow struct {
	TicketID         *string          `json:"ticket_id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Phone            *string          `json:"phone"`
	AttendanceStatus AttendanceStatus `json:"attendance_status"`
	CheckInTime      *time.Time       `json:"check_in_time"`
	CheckInByName    *string          `json:"check_in_by_name"`
	ManualOverride   bool             `json:"manual_override"`
	OverrideReason   *string          `json:"override_reason"`
}
