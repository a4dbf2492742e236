package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the slice of pgxpool.Pool the repository uses; pgxmock
// satisfies it in tests.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgRepository implements AvailabilityStore, AppointmentStore, and Directory
// over Postgres. All instants are stored and compared as timestamptz; the
// appointments table carries a btree_gist exclusion constraint that rejects
// overlapping non-terminal rows per vet.
type PgRepository struct {
	db pgxQuerier
}

func NewPgRepository(db pgxQuerier) *PgRepository {
	return &PgRepository{db: db}
}

// exclusionViolation is the Postgres error code raised by the
// appointments_vet_no_overlap constraint.
const exclusionViolation = "23P01"

// Scan helpers

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var w AvailabilityWindow

	err := row.Scan(
		&w.ID,
		&w.PracticeID,
		&w.VetID,
		&w.StartAt,
		&w.EndAt,
		&w.Kind,
		&w.Active,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	return &w, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var vetID *uuid.UUID

	err := row.Scan(
		&a.ID,
		&a.PracticeID,
		&a.OwnerID,
		&vetID,
		&a.AppointmentAt,
		&a.DurationMinutes,
		&a.Status,
		&a.Title,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.VetID = vetID
	return &a, nil
}

const windowColumns = `id, practice_id, vet_id, start_at, end_at, kind, active, created_at, updated_at`

const appointmentColumns = `id, practice_id, owner_id, vet_id, appointment_at, duration_minutes, status, title, notes, created_at, updated_at`

// AvailabilityStore

func (r *PgRepository) CreateWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	if !w.StartAt.Before(w.EndAt) {
		return nil, ErrInvalidWindow
	}

	id := w.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	kind := w.Kind
	if kind == "" {
		kind = KindAvailable
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO availability_windows (id, practice_id, vet_id, start_at, end_at, kind, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
		RETURNING `+windowColumns+`
	`, id, w.PracticeID, w.VetID, w.StartAt.UTC(), w.EndAt.UTC(), kind)

	return scanWindow(row)
}

func (r *PgRepository) DeactivateWindow(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE availability_windows
		SET active = false,
		    updated_at = now()
		WHERE id = $1
		  AND active
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate window: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) FindByVetAndRange(ctx context.Context, vetID uuid.UUID, utcStart, utcEnd time.Time) ([]AvailabilityWindow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+windowColumns+`
		FROM availability_windows
		WHERE vet_id = $1
		  AND active
		  AND start_at < $3
		  AND end_at > $2
		ORDER BY start_at
	`, vetID, utcStart.UTC(), utcEnd.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWindows(rows)
}

func (r *PgRepository) FindByPracticeAndRange(ctx context.Context, practiceID uuid.UUID, utcStart, utcEnd time.Time, kinds ...AvailabilityKind) ([]AvailabilityWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE practice_id = $1
		  AND active
		  AND start_at < $3
		  AND end_at > $2
	`
	args := []any{practiceID, utcStart.UTC(), utcEnd.UTC()}
	if len(kinds) > 0 {
		query += ` AND kind = ANY($4)`
		kindStrs := make([]string, len(kinds))
		for i, k := range kinds {
			kindStrs[i] = string(k)
		}
		args = append(args, kindStrs)
	}
	query += ` ORDER BY start_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWindows(rows)
}

func collectWindows(rows pgx.Rows) ([]AvailabilityWindow, error) {
	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// AppointmentStore

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	status := a.Status
	if status == "" {
		status = StatusScheduled
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, practice_id, owner_id, vet_id, appointment_at, duration_minutes, status, title, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PracticeID, a.OwnerID, a.VetID, a.AppointmentAt.UTC(), a.DurationMinutes, status, a.Title, a.Notes)

	appt, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return nil, ErrStorageConflict
		}
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) FindConflicting(ctx context.Context, vetID uuid.UUID, utcStart, utcEnd time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE vet_id = $1
		  AND status NOT IN ('cancelled', 'no_show', 'completed')
		  AND appointment_at < $3
		  AND appointment_at + make_interval(mins => duration_minutes) > $2
		ORDER BY appointment_at
	`, vetID, utcStart.UTC(), utcEnd.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	if !CanTransition(from, to) {
		return nil, ErrInvalidTransition
	}

	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, from time.Time, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE owner_id = $1
		  AND appointment_at >= $2
		  AND status NOT IN ('cancelled', 'no_show')
		ORDER BY appointment_at
		LIMIT $3
	`, ownerID, from.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) FindOverdueScheduled(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed')
		  AND appointment_at + make_interval(mins => duration_minutes) < $1
	`, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Directory

func (r *PgRepository) VetsByPractice(ctx context.Context, practiceID uuid.UUID) ([]Vet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, practice_id, name, active
		FROM vets
		WHERE practice_id = $1
		  AND active
		ORDER BY name
	`, practiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Vet
	for rows.Next() {
		var v Vet
		if err := rows.Scan(&v.ID, &v.PracticeID, &v.Name, &v.Active); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) IsVetActive(ctx context.Context, vetID uuid.UUID) (bool, error) {
	var active bool
	err := r.db.QueryRow(ctx, `
		SELECT active
		FROM vets
		WHERE id = $1
	`, vetID).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return active, nil
}
