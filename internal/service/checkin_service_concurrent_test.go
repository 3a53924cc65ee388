package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/repository"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scanGuardRepo 互斥鎖版的條件式報到：前置條件在臨界區內重驗，
// 同一張票只有第一個寫入者改得到狀態
type scanGuardRepo struct {
	repository.ParticipationRepository
	mu  sync.Mutex
	row model.Participation
}

func (r *scanGuardRepo) FindByTicketID(ctx context.Context, ticketID string) (*model.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.row
	return &current, nil
}

func (r *scanGuardRepo) CheckIn(ctx context.Context, id int, organizerID int, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.row.AttendanceStatus != model.AttendanceNotScanned ||
		r.row.Status != model.ParticipationStatusRegistered ||
		r.row.PaymentStatus == model.PaymentStatePending {
		return false, nil
	}
	r.row.AttendanceStatus = model.AttendanceCheckedIn
	r.row.Status = model.ParticipationStatusCompleted
	r.row.CheckInTime = &now
	r.row.CheckInBy = &organizerID
	r.row.ScanCount++
	return true, nil
}

// 模擬真實情境：入口多台掃描器同時掃同一張票
func TestConcurrentScan_SingleCheckIn(t *testing.T) {
	ctx := context.Background()

	scanners := 10
	event, p, ticketID := scanFixtures()
	raw := rawCredential(t, ticketID, "alice@iiit.edu", event.Name, true)

	partRepo := &scanGuardRepo{row: *p}
	eventRepo := &mockEventRepo{}
	eventRepo.On("FindByEventID", ctx, event.EventID).Return(event, nil)

	svc := NewCheckinService(eventRepo, partRepo)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	alreadyCount := 0
	otherCount := 0

	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, err := svc.Scan(ctx, raw, event.EventID, event.OrganizerID)

			mu.Lock()
			switch {
			case err == nil:
				successCount++
			case errors.Is(err, apperrors.ErrAlreadyScanned) && result != nil:
				alreadyCount++
			default:
				otherCount++
			}
			mu.Unlock()
		}()
	}

	wg.Wait()

	t.Logf("10 scanners on one ticket - Success: %d, AlreadyScanned: %d", successCount, alreadyCount)

	// 關鍵斷言：只報到一次，其餘都拿到重複掃描
	assert.Equal(t, 1, successCount, "Exactly one scanner should win")
	assert.Equal(t, scanners-1, alreadyCount, "The rest should see already-scanned")
	assert.Equal(t, 0, otherCount, "No unexpected errors")
	assert.Equal(t, 1, partRepo.row.ScanCount, "Scan count should only be bumped once")
	require.NotNil(t, partRepo.row.CheckInTime)
}
