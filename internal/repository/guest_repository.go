package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// ErrAlreadyEvaluated signals that an evaluation-close hit an entry that is
// already closed. Closing is idempotent per entry: the guarded update writes
// nothing the second time, guaranteeing at most one tier mutation per
// (event, client) pair even across racing sessions.
var ErrAlreadyEvaluated = errors.New("guest entry already evaluated")

// ErrAttendanceUnresolved rejects closing an evaluation while attendance is
// still CONFIRMED. A closed row always records checked-in or no-show.
var ErrAttendanceUnresolved = errors.New("attendance not resolved")

// EvaluationPatch is the write payload applied when an evaluation closes.
type EvaluationPatch struct {
	Attendance      domain.AttendanceStatus
	CheckInTime     *time.Time
	PurchasedTicket bool
	PurchaseSource  *domain.PurchaseSource
	Accompaniment   *domain.Accompaniment
	Rating          *int
	Feedback        *string
}

// InteractionRecord is one ledger entry joined with its event, forming the
// client's interaction timeline.
type InteractionRecord struct {
	Entry     domain.GuestEntry
	EventName string
	EventDate time.Time
}

// GuestRepository encapsulates guest ledger persistence.
type GuestRepository interface {
	Insert(ctx context.Context, entry *domain.GuestEntry) error
	GetByID(ctx context.Context, id int64) (*domain.GuestEntry, error)
	GetByEventClient(ctx context.Context, eventID, clientID int64) (*domain.GuestEntry, error)
	ListByEvent(ctx context.Context, eventID int64, ownerID string) ([]domain.GuestEntry, error)
	ListPending(ctx context.Context, eventID int64, ownerID string) ([]domain.GuestEntry, error)
	ListByClient(ctx context.Context, clientID int64) ([]InteractionRecord, error)
	SetAttendance(ctx context.Context, id int64, status domain.AttendanceStatus, checkInTime *time.Time) error
	CloseEvaluation(ctx context.Context, id int64, patch EvaluationPatch) error
	PendingOwnerIDs(ctx context.Context, eventID int64) ([]string, error)
}

type guestRepository struct {
	pool *pgxpool.Pool
}

// NewGuestRepository instantiates repository.
func NewGuestRepository(pool *pgxpool.Pool) GuestRepository {
	return &guestRepository{pool: pool}
}

const guestColumns = `g.id, g.event_id, g.client_id, g.owner_id, g.attendance_status, g.check_in_time,
               g.notes, g.post_event_done, g.purchased_ticket, g.purchase_source, g.accompaniment,
               g.rating, g.feedback, g.created_at, g.updated_at`

func (r *guestRepository) Insert(ctx context.Context, entry *domain.GuestEntry) error {
	const query = `
        INSERT INTO guest_entries (event_id, client_id, owner_id, attendance_status, check_in_time,
                                   notes, post_event_done, purchased_ticket, purchase_source,
                                   accompaniment, rating, feedback)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`

	done := entry.Completion == domain.CompletionDone
	var (
		purchased     *bool
		source        *domain.PurchaseSource
		accompaniment *domain.Accompaniment
		rating        *int
		feedback      *string
	)
	if entry.Evaluation != nil {
		purchased = &entry.Evaluation.PurchasedTicket
		source = entry.Evaluation.PurchaseSource
		accompaniment = entry.Evaluation.Accompaniment
		rating = entry.Evaluation.Rating
		feedback = entry.Evaluation.Feedback
	}

	return r.pool.QueryRow(ctx, query,
		entry.EventID,
		entry.ClientID,
		entry.OwnerID,
		entry.Attendance,
		entry.CheckInTime,
		entry.Notes,
		done,
		purchased,
		source,
		accompaniment,
		rating,
		feedback,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
}

func (r *guestRepository) GetByID(ctx context.Context, id int64) (*domain.GuestEntry, error) {
	query := `SELECT ` + guestColumns + ` FROM guest_entries g WHERE g.id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *guestRepository) GetByEventClient(ctx context.Context, eventID, clientID int64) (*domain.GuestEntry, error) {
	query := `SELECT ` + guestColumns + ` FROM guest_entries g WHERE g.event_id=$1 AND g.client_id=$2`
	return r.fetchSingle(ctx, query, eventID, clientID)
}

func (r *guestRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.GuestEntry, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	entry, err := scanGuestEntry(row.Scan)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *guestRepository) ListByEvent(ctx context.Context, eventID int64, ownerID string) ([]domain.GuestEntry, error) {
	query := `
        SELECT ` + guestColumns + `, ` + joinedClientColumns + `
        FROM guest_entries g
        JOIN clients c ON c.id = g.client_id
        WHERE g.event_id=$1 AND g.owner_id=$2
        ORDER BY c.name`
	return r.listJoined(ctx, query, eventID, ownerID)
}

// ListPending returns entries still awaiting evaluation. Legacy rows carry
// NULL in post_event_done and are deliberately excluded: by the completion
// rule they count as done.
func (r *guestRepository) ListPending(ctx context.Context, eventID int64, ownerID string) ([]domain.GuestEntry, error) {
	query := `
        SELECT ` + guestColumns + `, ` + joinedClientColumns + `
        FROM guest_entries g
        JOIN clients c ON c.id = g.client_id
        WHERE g.event_id=$1 AND g.owner_id=$2 AND g.post_event_done = FALSE
        ORDER BY c.name`
	return r.listJoined(ctx, query, eventID, ownerID)
}

func (r *guestRepository) ListByClient(ctx context.Context, clientID int64) ([]InteractionRecord, error) {
	query := `
        SELECT ` + guestColumns + `, e.name, e.event_date
        FROM guest_entries g
        JOIN events e ON e.id = g.event_id
        WHERE g.client_id=$1
        ORDER BY g.created_at DESC`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []InteractionRecord
	for rows.Next() {
		var record InteractionRecord
		entry, err := scanGuestEntry(func(dest ...any) error {
			dest = append(dest, &record.EventName, &record.EventDate)
			return rows.Scan(dest...)
		})
		if err != nil {
			return nil, err
		}
		record.Entry = *entry
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *guestRepository) SetAttendance(ctx context.Context, id int64, status domain.AttendanceStatus, checkInTime *time.Time) error {
	const query = `
        UPDATE guest_entries SET attendance_status=$1, check_in_time=$2, updated_at=NOW()
        WHERE id=$3`

	cmd, err := r.pool.Exec(ctx, query, status, checkInTime, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CloseEvaluation applies the evaluation payload. The WHERE guard on
// post_event_done makes the close idempotent at the store.
func (r *guestRepository) CloseEvaluation(ctx context.Context, id int64, patch EvaluationPatch) error {
	if !patch.Attendance.Resolved() {
		return ErrAttendanceUnresolved
	}
	const query = `
        UPDATE guest_entries SET attendance_status=$1, check_in_time=$2, post_event_done=TRUE,
            purchased_ticket=$3, purchase_source=$4, accompaniment=$5, rating=$6, feedback=$7,
            updated_at=NOW()
        WHERE id=$8 AND post_event_done = FALSE`

	cmd, err := r.pool.Exec(ctx, query,
		patch.Attendance,
		patch.CheckInTime,
		patch.PurchasedTicket,
		patch.PurchaseSource,
		patch.Accompaniment,
		patch.Rating,
		patch.Feedback,
		id,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return ErrAlreadyEvaluated
		}
		return pgx.ErrNoRows
	}
	return nil
}

// PendingOwnerIDs lists the promoters that still have open evaluations for
// the event. Used by the reminder worker after an event closes.
func (r *guestRepository) PendingOwnerIDs(ctx context.Context, eventID int64) ([]string, error) {
	const query = `
        SELECT DISTINCT owner_id FROM guest_entries
        WHERE event_id=$1 AND post_event_done = FALSE`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var ownerID string
		if err := rows.Scan(&ownerID); err != nil {
			return nil, err
		}
		result = append(result, ownerID)
	}
	return result, rows.Err()
}

const joinedClientColumns = `c.id, c.owner_id, c.name, c.nickname, c.whatsapp, c.instagram, c.followers,
               c.gender, c.music_genres, c.party_type, c.spend_band, c.tier, c.is_recurrent,
               c.created_at, c.updated_at`

func (r *guestRepository) listJoined(ctx context.Context, query string, args ...any) ([]domain.GuestEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.GuestEntry
	for rows.Next() {
		var client domain.Client
		entry, err := scanGuestEntry(func(dest ...any) error {
			dest = append(dest,
				&client.ID,
				&client.OwnerID,
				&client.Name,
				&client.Nickname,
				&client.WhatsApp,
				&client.Instagram,
				&client.Followers,
				&client.Gender,
				&client.MusicGenres,
				&client.PartyType,
				&client.SpendBand,
				&client.Tier,
				&client.IsRecurrent,
				&client.CreatedAt,
				&client.UpdatedAt,
			)
			return rows.Scan(dest...)
		})
		if err != nil {
			return nil, err
		}
		joined := client
		entry.Client = &joined
		result = append(result, *entry)
	}
	return result, rows.Err()
}

// scanGuestEntry scans the guestColumns set and reconstructs the typed
// completion state and evaluation payload from the nullable columns.
func scanGuestEntry(scan func(dest ...any) error) (*domain.GuestEntry, error) {
	var (
		entry         domain.GuestEntry
		done          *bool
		purchased     *bool
		source        *domain.PurchaseSource
		accompaniment *domain.Accompaniment
		rating        *int
		feedback      *string
	)
	if err := scan(
		&entry.ID,
		&entry.EventID,
		&entry.ClientID,
		&entry.OwnerID,
		&entry.Attendance,
		&entry.CheckInTime,
		&entry.Notes,
		&done,
		&purchased,
		&source,
		&accompaniment,
		&rating,
		&feedback,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}

	entry.Completion = domain.CompletionFromFlag(done)
	if entry.Completion == domain.CompletionDone {
		eval := &domain.Evaluation{
			PurchaseSource: source,
			Accompaniment:  accompaniment,
			Rating:         rating,
			Feedback:       feedback,
		}
		if purchased != nil {
			eval.PurchasedTicket = *purchased
		}
		entry.Evaluation = eval
	}
	return &entry, nil
}
