package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType 活動類型：一般活動立即發票，商品活動待付款核准後發票
type EventType string

const (
	EventTypeNormal      EventType = "NORMAL"
	EventTypeMerchandise EventType = "MERCHANDISE"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeNormal, EventTypeMerchandise:
		return true
	}
	return false
}

// Eligibility 報名資格限制
type Eligibility string

const (
	EligibilityIIITOnly    Eligibility = "IIIT_ONLY"
	EligibilityNonIIITOnly Eligibility = "NON_IIIT_ONLY"
	EligibilityAll         Eligibility = "ALL"
)

// EventStatus 活動生命週期（由活動管理端維護，核心只讀）
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusClosed    EventStatus = "closed"
)

// MerchandiseOptions 商品活動的選項設定；空的 Sizes/Colors 代表不限制
type MerchandiseOptions struct {
	Sizes      []string `json:"sizes"`
	Colors     []string `json:"colors"`
	Stock      int      `json:"stock"`
	MaxPerUser int      `json:"max_per_user"`
}

// CustomFormField 一般活動的自訂報名欄位
type CustomFormField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Event 活動模型。核心只讀取報名規則相關欄位；內容管理屬外部協作者。
// RegistrationCount 是非正規化快取，容量判斷一律以即時統計為準。
type Event struct {
	ID                   int                 `json:"id" db:"id"`
	EventID              uuid.UUID           `json:"event_id" db:"event_id"`
	Name                 string              `json:"name" db:"name"`
	OrganizerID          int                 `json:"organizer_id" db:"organizer_id"`
	EventType            EventType           `json:"event_type" db:"event_type"`
	Eligibility          Eligibility         `json:"eligibility" db:"eligibility"`
	RegistrationDeadline time.Time           `json:"registration_deadline" db:"registration_deadline"`
	EventStartDate       time.Time           `json:"event_start_date" db:"event_start_date"`
	EventEndDate         time.Time           `json:"event_end_date" db:"event_end_date"`
	RegistrationLimit    int                 `json:"registration_limit" db:"registration_limit"` // 0 = 不限
	RegistrationFee      float64             `json:"registration_fee" db:"registration_fee"`
	MerchandiseOptions   *MerchandiseOptions `json:"merchandise_options,omitempty" db:"merchandise_options"`
	CustomFormFields     []CustomFormField   `json:"custom_form_fields,omitempty" db:"custom_form_fields"`
	RegistrationCount    int                 `json:"registration_count" db:"registration_count"`
	Status               EventStatus         `json:"status" db:"status"`
	CreatedAt            time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at" db:"updated_at"`
}

// HasSizeOption 檢查尺寸是否在選項內；選項集為空時不限制
func (o *MerchandiseOptions) HasSizeOption(size string) bool {
	if len(o.Sizes) == 0 {
		return true
	}
	for _, s := range o.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// HasColorOption 檢查顏色是否在選項內；選項集為空時不限制
func (o *MerchandiseOptions) HasColorOption(color string) bool {
	if len(o.Colors) == 0 {
		return true
	}
	for _, c := range o.Colors {
		if c == color {
			return true
		}
	}
	return false
}
