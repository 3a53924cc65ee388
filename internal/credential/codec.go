package credential

import (
	"encoding/base64"
	"encoding/json"
	"time"

	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/skip2/go-qrcode"
)

// Payload 票券內嵌的機器可讀酬載。無簽章，驗證只看欄位齊全與 valid 旗標。
type Payload struct {
	TicketID         string    `json:"ticket_id"`
	ParticipantEmail string    `json:"participant_email"`
	EventName        string    `json:"event_name"`
	GeneratedAt      time.Time `json:"generated_at"`
	Valid            bool      `json:"valid"`
}

// Encode 組出酬載並渲染成 QR code PNG，回傳 base64 字串供存入 credential_image
func Encode(ticketID, participantEmail, eventName string, now time.Time) (Payload, string, error) {
	payload := Payload{
		TicketID:         ticketID,
		ParticipantEmail: participantEmail,
		EventName:        eventName,
		GeneratedAt:      now.UTC(),
		Valid:            true,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Payload{}, "", err
	}

	png, err := qrcode.Encode(string(raw), qrcode.Medium, 256)
	if err != nil {
		return Payload{}, "", err
	}

	return payload, base64.StdEncoding.EncodeToString(png), nil
}

// Decode 解析掃描端送來的原始酬載字串
// 無法解析或缺少 ticket_id / participant_email / event_name 視為格式錯誤
func Decode(raw string) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Payload{}, apperrors.ErrCredentialFormat
	}

	if payload.TicketID == "" || payload.ParticipantEmail == "" || payload.EventName == "" {
		return Payload{}, apperrors.ErrCredentialFormat
	}

	return payload, nil
}

// Verify 結構性檢查：必要欄位存在且 valid 為 true
func Verify(payload Payload) bool {
	return payload.TicketID != "" && payload.ParticipantEmail != "" && payload.Valid
}
