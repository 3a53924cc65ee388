package cache

import (
	"context"
	"errors"
	"fmt"

	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// ReserveResult Redis 名額預約的結果
type ReserveResult int

const (
	ReserveOK ReserveResult = iota
	// ReserveSkipped 活動未預熱，改由資料庫條件式寫入把關
	ReserveSkipped
)

// EventCapacityManager 以 Redis 擋下報名尖峰的名額預約器。
// 資料庫的條件式寫入才是容量的真相來源；這層只負責吸收爆量並提早拒絕。
type EventCapacityManager interface {
	// WarmUpCapacity 活動開放報名時預載名額；active 為目前有效報名數
	WarmUpCapacity(ctx context.Context, eventID int, limit int, active int) error
	// GetRemaining 獲取剩餘名額
	GetRemaining(ctx context.Context, eventID int) (int, error)
	// ReserveSlot 預約一個名額 (使用Lua腳本確保原子性)；同一人重複預約會被擋下
	ReserveSlot(ctx context.Context, eventID int, participantID int) (ReserveResult, error)
	// ReleaseSlot 釋放名額及參加者預約紀錄 (使用Lua腳本確保原子性)
	ReleaseSlot(ctx context.Context, eventID int, participantID int) error
}

type EventCapacityManagerImpl struct {
	client *redis.Client
}

func NewEventCapacityManager(client *redis.Client) EventCapacityManager {
	return &EventCapacityManagerImpl{
		client: client,
	}
}

// 名額 key
func (m *EventCapacityManagerImpl) getCapacityKey(eventID int) string {
	return fmt.Sprintf("event:%d:capacity", eventID)
}

// 參加者預約紀錄的 key
func (m *EventCapacityManagerImpl) getParticipantsKey(eventID int) string {
	return fmt.Sprintf("event:%d:participants", eventID)
}

func (m *EventCapacityManagerImpl) WarmUpCapacity(ctx context.Context, eventID int, limit int, active int) error {
	remaining := limit - active
	if remaining < 0 {
		remaining = 0
	}
	key := m.getCapacityKey(eventID)
	return m.client.HSet(ctx, key, map[string]interface{}{
		"limit":     limit,
		"remaining": remaining,
	}).Err()
}

func (m *EventCapacityManagerImpl) GetRemaining(ctx context.Context, eventID int) (int, error) {
	key := m.getCapacityKey(eventID)
	val, err := m.client.HGet(ctx, key, "remaining").Int()
	if err == redis.Nil {
		return -1, apperrors.ErrEventNotFound
	}
	return val, err
}

/*
*

	預約一個名額 (使用Lua腳本確保原子性)
	1. 檢查名額資訊是否預熱
	2. 檢查是否已預約過
	3. 檢查剩餘名額
	4. 執行扣減與紀錄
*/
func (m *EventCapacityManagerImpl) ReserveSlot(ctx context.Context, eventID int, participantID int) (ReserveResult, error) {
	key := m.getCapacityKey(eventID)
	participantsKey := m.getParticipantsKey(eventID)

	script := `
		-- 1. 取得參數
		local capacity_key = KEYS[1]
		local participants_key = KEYS[2]
		local participant_id = ARGV[1]

		-- 2. 取得名額資訊
		local remaining = redis.call('HGET', capacity_key, 'remaining')

		-- 3. 未預熱：交回給資料庫把關
		if not remaining then
			return -3
		end

		-- 4. 同一參加者只能佔一個名額
		if redis.call('SISMEMBER', participants_key, participant_id) == 1 then
			return -2
		end

		-- 5. 檢查剩餘名額
		if tonumber(remaining) <= 0 then
			return -1
		end

		-- 6. 執行扣減與紀錄
		redis.call('HINCRBY', capacity_key, 'remaining', -1)
		redis.call('SADD', participants_key, participant_id)

		return 1
	`

	result, err := m.client.Eval(ctx, script, []string{key, participantsKey}, participantID).Result()
	if err != nil {
		return ReserveSkipped, err
	}

	code := result.(int64)

	switch code {
	case 1:
		return ReserveOK, nil
	case -1:
		return ReserveSkipped, apperrors.ErrLimitReached
	case -2:
		return ReserveSkipped, apperrors.ErrAlreadyRegistered
	case -3:
		return ReserveSkipped, nil
	default:
		return ReserveSkipped, errors.New("unexpected result")
	}
}

func (m *EventCapacityManagerImpl) ReleaseSlot(ctx context.Context, eventID int, participantID int) error {
	key := m.getCapacityKey(eventID)
	participantsKey := m.getParticipantsKey(eventID)

	script := `
		-- 1. 取得參數
		local capacity_key = KEYS[1]
		local participants_key = KEYS[2]
		local participant_id = ARGV[1]

		-- 2. 只有真的佔過名額才歸還，避免重複釋放灌水
		if redis.call('SREM', participants_key, participant_id) == 1 then
			if redis.call('EXISTS', capacity_key) == 1 then
				redis.call('HINCRBY', capacity_key, 'remaining', 1)
			end
		end

		return "OK"
	`

	_, err := m.client.Eval(ctx, script, []string{key, participantsKey}, participantID).Result()
	if err != nil {
		return err
	}

	return nil
}
