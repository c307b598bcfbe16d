package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthlink/healthlink/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Every read joins the patient and reviewer so listings render without extra
// round trips.
const apptSelect = `
	SELECT a.id, a.patient_id, a.symptoms, a.preferred_date, a.status,
	       a.doctor_notes, a.reviewed_by, a.reviewed_at, a.created_at,
	       p.name, p.email,
	       d.id, d.name, d.email
	FROM appointment a
	JOIN app_user p ON p.id = a.patient_id
	LEFT JOIN app_user d ON d.id = a.reviewed_by`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var patientName, patientEmail string
	var reviewerID *uuid.UUID
	var reviewerName, reviewerEmail *string
	err := row.Scan(&a.ID, &a.PatientID, &a.Symptoms, &a.PreferredDate, &a.Status,
		&a.DoctorNotes, &a.ReviewedBy, &a.ReviewedAt, &a.CreatedAt,
		&patientName, &patientEmail,
		&reviewerID, &reviewerName, &reviewerEmail)
	if err != nil {
		return nil, err
	}
	a.Patient = &PersonRef{ID: a.PatientID, Name: patientName, Email: patientEmail}
	if reviewerID != nil {
		a.Reviewer = &PersonRef{ID: *reviewerID, Name: *reviewerName, Email: *reviewerEmail}
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.Status = StatusPending
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, symptoms, preferred_date, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		a.ID, a.PatientID, a.Symptoms, a.PreferredDate, a.Status).
		Scan(&a.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, apptSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		apptSelect+` WHERE a.patient_id = $1 ORDER BY a.created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) List(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	var total int
	var rows pgx.Rows
	var err error
	if status != "" {
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM appointment WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			apptSelect+` WHERE a.status = $1 ORDER BY a.created_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM appointment`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			apptSelect+` ORDER BY a.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status=$2, doctor_notes=$3, reviewed_by=$4, reviewed_at=$5
		WHERE id = $1`,
		a.ID, a.Status, a.DoctorNotes, a.ReviewedBy, a.ReviewedAt)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	return err
}
