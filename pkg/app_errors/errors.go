package apperrors

import (
	"errors"
	"fmt"
)

var (
	// 報名資格檢查（依序，先失敗者勝出）
	ErrDeadlinePassed    = errors.New("deadline passed")
	ErrNotEligible       = errors.New("not eligible")
	ErrInvalidSelection  = errors.New("invalid selection")
	ErrLimitReached      = errors.New("limit reached")
	ErrAlreadyRegistered = errors.New("already registered")

	// 取消報名
	ErrEventStarted     = errors.New("event already started")
	ErrAlreadyCancelled = errors.New("already cancelled")

	// 付款
	ErrExceedsMaxPerUser       = errors.New("exceeds max per user")
	ErrPaymentNotRequired      = errors.New("payment not required for this participation")
	ErrPaymentAlreadyProcessed = errors.New("already processed")
	ErrOrderAlreadyProcessed   = errors.New("order already processed")

	// 驗票
	ErrCredentialFormat   = errors.New("invalid format")
	ErrCredentialInvalid  = errors.New("verification failed")
	ErrTicketWrongEvent   = errors.New("not valid for this event")
	ErrCredentialMismatch = errors.New("email mismatch")
	ErrTicketCancelled    = errors.New("ticket cancelled")
	ErrPaymentPending     = errors.New("payment pending")
	ErrAlreadyScanned     = errors.New("already scanned")
	ErrReasonTooShort     = errors.New("reason too short")

	// 授權
	ErrNotAuthorized = errors.New("not authorized")

	// 查無資料
	ErrEventNotFound         = errors.New("event not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrParticipationNotFound = errors.New("participation not found")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrPaymentNotFound       = errors.New("payment not found")

	// 票號撞號（由唯一索引攔下，呼叫端重新產號再試）
	ErrTicketIDConflict = errors.New("ticket id conflict")

	ErrInvalidInput        = errors.New("invalid input")
	ErrInternalServerError = errors.New("internal server error")
)

// MissingFieldError 必填自訂欄位缺漏，帶欄位名稱回傳給呼叫端
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %s", e.Field)
}

// IsMissingField 判斷錯誤是否為必填欄位缺漏
func IsMissingField(err error) bool {
	var mfe *MissingFieldError
	return errors.As(err, &mfe)
}
