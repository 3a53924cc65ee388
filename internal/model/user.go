package model

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantType 參加者身份，只用於資格檢查
type ParticipantType string

const (
	ParticipantTypeIIIT    ParticipantType = "IIIT"
	ParticipantTypeNonIIIT ParticipantType = "NON_IIIT"
)

// Role 認證主體的角色，由身份協作者提供
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleParticipant, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// User 核心只消費的使用者投影：身份與聯絡資訊
type User struct {
	ID              int             `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	Name            string          `json:"name" db:"name"`
	Email           string          `json:"email" db:"email"`
	Phone           *string         `json:"phone,omitempty" db:"phone"`
	ParticipantType ParticipantType `json:"participant_type" db:"participant_type"`
	Role            Role            `json:"role" db:"role"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
