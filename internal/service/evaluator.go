package service

import (
	"strings"
	"time"

	"go-event-ticketing/internal/model"
	apperrors "go-event-ticketing/pkg/app_errors"
)

// EvaluateRegistration 純函式的報名准駁判定，無任何副作用。
// 依序檢查，第一個失敗的規則決定拒絕原因：
// 截止時間 → 資格 → 商品選項 → 必填欄位 → 容量 → 重複報名。
// 容量在這裡只是預檢；寫入時由資料庫條件式 INSERT 再驗一次。
func EvaluateRegistration(
	event *model.Event,
	profile *model.User,
	existing *model.Participation,
	activeCount int,
	selection *model.MerchandiseSelection,
	responses []model.FieldResponse,
	now time.Time,
) error {
	if now.After(event.RegistrationDeadline) {
		return apperrors.ErrDeadlinePassed
	}

	switch event.Eligibility {
	case model.EligibilityIIITOnly:
		if profile.ParticipantType != model.ParticipantTypeIIIT {
			return apperrors.ErrNotEligible
		}
	case model.EligibilityNonIIITOnly:
		if profile.ParticipantType != model.ParticipantTypeNonIIIT {
			return apperrors.ErrNotEligible
		}
	}

	switch event.EventType {
	case model.EventTypeMerchandise:
		if err := validateSelection(event.MerchandiseOptions, selection); err != nil {
			return err
		}
	case model.EventTypeNormal:
		if err := validateResponses(event.CustomFormFields, responses); err != nil {
			return err
		}
	default:
		return apperrors.ErrInvalidInput
	}

	if event.RegistrationLimit > 0 && activeCount >= event.RegistrationLimit {
		return apperrors.ErrLimitReached
	}

	if existing != nil {
		return apperrors.ErrAlreadyRegistered
	}

	return nil
}

// validateSelection 商品活動必須帶尺寸與顏色，且在活動宣告的選項集內（選項集為空時不限制）
func validateSelection(options *model.MerchandiseOptions, selection *model.MerchandiseSelection) error {
	if selection == nil || selection.Size == "" || selection.Color == "" {
		return apperrors.ErrInvalidSelection
	}
	if options != nil {
		if !options.HasSizeOption(selection.Size) || !options.HasColorOption(selection.Color) {
			return apperrors.ErrInvalidSelection
		}
	}
	return nil
}

// validateResponses 一般活動的必填欄位都要有非空白回覆
func validateResponses(fields []model.CustomFormField, responses []model.FieldResponse) error {
	answered := make(map[string]string, len(responses))
	for _, r := range responses {
		answered[r.Name] = r.Value
	}

	for _, f := range fields {
		if !f.Required {
			continue
		}
		if strings.TrimSpace(answered[f.Name]) == "" {
			return &apperrors.MissingFieldError{Field: f.Name}
		}
	}
	return nil
}
