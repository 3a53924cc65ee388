package repository

import (
	"context"
	"errors"
	"time"

	"go-event-ticketing/internal/model"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipationRepository interface {
	// Create 不限容量的活動直接寫入；(participant, event) 唯一性由索引保證
	Create(ctx context.Context, p *model.Participation) (*model.Participation, error)
	// CreateWithCapacity 交易內先鎖活動列再做條件式寫入，關閉 count-then-insert 競態
	CreateWithCapacity(ctx context.Context, p *model.Participation, limit int) (*model.Participation, error)
	FindByID(ctx context.Context, id int) (*model.Participation, error)
	FindByTicketID(ctx context.Context, ticketID string) (*model.Participation, error)
	FindByParticipantAndEvent(ctx context.Context, participantID, eventID int) (*model.Participation, error)
	CountActiveByEvent(ctx context.Context, eventID int) (int, error)
	// CheckIn 條件式 CAS 轉移，前置條件（未掃描、未取消、付款已清）在 WHERE 內重驗；
	// 回傳 false 代表條件已被併發寫入改掉，呼叫端重讀判斷原因
	CheckIn(ctx context.Context, id int, organizerID int, now time.Time) (bool, error)
	// ManualCheckIn 人工補登，可重複施用；每次覆寫稽核欄位並累加 scan_count
	ManualCheckIn(ctx context.Context, id int, reason string, organizerID int, now time.Time) (*model.Participation, error)
	// Cancel 條件式取消：只有 Registered 可轉 Cancelled，第二次取消回報錯誤
	Cancel(ctx context.Context, id int, now time.Time) error
	ListForAttendance(ctx context.Context, eventID int) ([]*model.AttendanceRow, error)

	// Transaction methods
	FindByParticipantAndEventWithLock(ctx context.Context, tx pgx.Tx, participantID, eventID int) (*model.Participation, error)
	// IssueTicket 付款核准後補發票券並轉為已付款；核准重試時沿用既有票號
	IssueTicket(ctx context.Context, tx pgx.Tx, id int, ticketID string, credentialImage string) error
}

type ParticipationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewParticipationRepository(pool *pgxpool.Pool) ParticipationRepository {
	return &ParticipationRepositoryImpl{
		pool: pool,
	}
}

const participationColumns = `p.id, p.participant_id, p.event_id, p.ticket_id, p.credential_image,
		p.status, p.payment_status, p.attendance_status, p.scan_count,
		p.manual_override, p.override_reason, p.override_by, p.override_at,
		p.check_in_time, p.check_in_by,
		p.merchandise_selection, p.custom_field_responses,
		p.registration_date, p.created_at, p.updated_at`

func scanParticipation(row pgx.Row) (*model.Participation, error) {
	var p model.Participation
	err := row.Scan(
		&p.ID,
		&p.ParticipantID,
		&p.EventID,
		&p.TicketID,
		&p.CredentialImage,
		&p.Status,
		&p.PaymentStatus,
		&p.AttendanceStatus,
		&p.ScanCount,
		&p.ManualOverride,
		&p.OverrideReason,
		&p.OverrideBy,
		&p.OverrideAt,
		&p.CheckInTime,
		&p.CheckInBy,
		&p.MerchandiseSelection,
		&p.CustomFieldResponses,
		&p.RegistrationDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// mapUniqueViolation 把唯一索引違反翻成領域錯誤
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "uq_participation_participant_event":
			return apperrors.ErrAlreadyRegistered
		case "uq_participation_ticket":
			return apperrors.ErrTicketIDConflict
		}
	}
	return err
}

func (r *ParticipationRepositoryImpl) Create(ctx context.Context, p *model.Participation) (*model.Participation, error) {
	query := `
		INSERT INTO participations (
			participant_id, event_id, ticket_id, credential_image,
			status, payment_status, merchandise_selection, custom_field_responses
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, registration_date, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.ParticipantID, p.EventID, p.TicketID, p.CredentialImage,
		p.Status, p.PaymentStatus, p.MerchandiseSelection, p.CustomFieldResponses,
	).Scan(&p.ID, &p.RegistrationDate, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	return p, nil
}

func (r *ParticipationRepositoryImpl) CreateWithCapacity(ctx context.Context, p *model.Participation, limit int) (*model.Participation, error) {
	// 先鎖活動列，同一活動的併發報名在這裡排隊。
	// READ COMMITTED 下單一語句的子查詢看不到別人未提交的寫入，
	// 光靠 INSERT ... SELECT 擋不住兩邊同搶最後一個名額；
	// 鎖到手之後重查，前一筆已提交的寫入一定看得到。
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var locked int
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, p.EventID).Scan(&locked)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	query := `
		INSERT INTO participations (
			participant_id, event_id, ticket_id, credential_image,
			status, payment_status, merchandise_selection, custom_field_responses
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE (
			SELECT COUNT(*) FROM participations
			WHERE event_id = $2 AND status != 'Cancelled'
		) < $9
		RETURNING id, registration_date, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		p.ParticipantID, p.EventID, p.TicketID, p.CredentialImage,
		p.Status, p.PaymentStatus, p.MerchandiseSelection, p.CustomFieldResponses,
		limit,
	).Scan(&p.ID, &p.RegistrationDate, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrLimitReached
		}
		return nil, mapUniqueViolation(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *ParticipationRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations p
		WHERE p.id = $1
	`

	p, err := scanParticipation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrParticipationNotFound
		}
		return nil, err
	}

	return p, nil
}

func (r *ParticipationRepositoryImpl) FindByTicketID(ctx context.Context, ticketID string) (*model.Participation, error) {
	// join users 帶出參加者身份，驗票時比對 email 用
	query := `
		SELECT ` + participationColumns + `,
			u.id, u.user_id, u.name, u.email, u.phone, u.participant_type, u.role, u.created_at
		FROM participations p
		JOIN users u ON u.id = p.participant_id
		WHERE p.ticket_id = $1
	`

	var p model.Participation
	var u model.User
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&p.ID,
		&p.ParticipantID,
		&p.EventID,
		&p.TicketID,
		&p.CredentialImage,
		&p.Status,
		&p.PaymentStatus,
		&p.AttendanceStatus,
		&p.ScanCount,
		&p.ManualOverride,
		&p.OverrideReason,
		&p.OverrideBy,
		&p.OverrideAt,
		&p.CheckInTime,
		&p.CheckInBy,
		&p.MerchandiseSelection,
		&p.CustomFieldResponses,
		&p.RegistrationDate,
		&p.CreatedAt,
		&p.UpdatedAt,
		&u.ID,
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.ParticipantType,
		&u.Role,
		&u.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}

	p.Participant = &u
	return &p, nil
}

func (r *ParticipationRepositoryImpl) FindByParticipantAndEvent(ctx context.Context, participantID, eventID int) (*model.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations p
		WHERE p.participant_id = $1 AND p.event_id = $2
	`

	p, err := scanParticipation(r.pool.QueryRow(ctx, query, participantID, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrParticipationNotFound
		}
		return nil, err
	}

	return p, nil
}

func (r *ParticipationRepositoryImpl) FindByParticipantAndEventWithLock(ctx context.Context, tx pgx.Tx, participantID, eventID int) (*model.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations p
		WHERE p.participant_id = $1 AND p.event_id = $2
		FOR UPDATE
	`

	p, err := scanParticipation(tx.QueryRow(ctx, query, participantID, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrParticipationNotFound
		}
		return nil, err
	}

	return p, nil
}

func (r *ParticipationRepositoryImpl) CountActiveByEvent(ctx context.Context, eventID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM participations
		WHERE event_id = $1 AND status != 'Cancelled'
	`

	var count int
	err := r.pool.QueryRow(ctx, query, eventID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ParticipationRepositoryImpl) CheckIn(ctx context.Context, id int, organizerID int, now time.Time) (bool, error) {
	// compare-and-swap：兩台掃描器同時掃同一張票，只有一台會改到資料。
	// 服務層讀過的前置條件要在這裡重驗，否則掃描和取消併發時
	// 已取消的紀錄會被改成 Completed
	query := `
		UPDATE participations
		SET attendance_status = 'checked-in',
			status = 'Completed',
			check_in_time = $1,
			check_in_by = $2,
			scan_count = scan_count + 1,
			updated_at = $1
		WHERE id = $3
			AND attendance_status = 'not-scanned'
			AND status = 'Registered'
			AND payment_status IN ('Paid', 'NotRequired')
	`

	result, err := r.pool.Exec(ctx, query, now.UTC(), organizerID, id)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

func (r *ParticipationRepositoryImpl) ManualCheckIn(ctx context.Context, id int, reason string, organizerID int, now time.Time) (*model.Participation, error) {
	// 人工補登沒有 CAS 條件：覆寫是明確的管理動作，重複施用合法
	query := `
		UPDATE participations
		SET attendance_status = 'checked-in',
			status = 'Completed',
			manual_override = TRUE,
			override_reason = $1,
			override_by = $2,
			override_at = $3,
			check_in_time = COALESCE(check_in_time, $3),
			check_in_by = COALESCE(check_in_by, $2),
			scan_count = scan_count + 1,
			updated_at = $3
		WHERE id = $4
		RETURNING ` + manualCheckInReturning

	p, err := scanParticipation(r.pool.QueryRow(ctx, query, reason, organizerID, now.UTC(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrParticipationNotFound
		}
		return nil, err
	}

	return p, nil
}

// RETURNING 無法使用表別名，欄位順序與 participationColumns 一致
const manualCheckInReturning = `id, participant_id, event_id, ticket_id, credential_image,
		status, payment_status, attendance_status, scan_count,
		manual_override, override_reason, override_by, override_at,
		check_in_time, check_in_by,
		merchandise_selection, custom_field_responses,
		registration_date, created_at, updated_at`

func (r *ParticipationRepositoryImpl) Cancel(ctx context.Context, id int, now time.Time) error {
	query := `
		UPDATE participations
		SET status = 'Cancelled', updated_at = $1
		WHERE id = $2 AND status = 'Registered'
	`

	result, err := r.pool.Exec(ctx, query, now.UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrAlreadyCancelled
	}

	return nil
}

func (r *ParticipationRepositoryImpl) IssueTicket(ctx context.Context, tx pgx.Tx, id int, ticketID string, credentialImage string) error {
	query := `
		UPDATE participations
		SET ticket_id = $1,
			credential_image = $2,
			payment_status = 'Paid',
			updated_at = $3
		WHERE id = $4
	`

	result, err := tx.Exec(ctx, query, ticketID, credentialImage, time.Now().UTC(), id)
	if err != nil {
		return mapUniqueViolation(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrParticipationNotFound
	}

	return nil
}

func (r *ParticipationRepositoryImpl) ListForAttendance(ctx context.Context, eventID int) ([]*model.AttendanceRow, error) {
	// 儀表板只統計未取消且付款已清的紀錄
	query := `
		SELECT p.ticket_id, u.name, u.email, u.phone,
			p.attendance_status, p.check_in_time, c.name,
			p.manual_override, p.override_reason
		FROM participations p
		JOIN users u ON u.id = p.participant_id
		LEFT JOIN users c ON c.id = p.check_in_by
		WHERE p.event_id = $1
			AND p.status != 'Cancelled'
			AND p.payment_status IN ('Paid', 'NotRequired')
		ORDER BY p.registration_date
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*model.AttendanceRow, 0)
	for rows.Next() {
		var row model.AttendanceRow
		err := rows.Scan(
			&row.TicketID,
			&row.Name,
			&row.Email,
			&row.Phone,
			&row.AttendanceStatus,
			&row.CheckInTime,
			&row.CheckInByName,
			&row.ManualOverride,
			&row.OverrideReason,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
