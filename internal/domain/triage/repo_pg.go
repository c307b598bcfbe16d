package triage

import (
	"context"
	"encoding/json"
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

const triageSelect = `
	SELECT t.id, t.patient_id, t.symptoms, t.risk_level, t.recommendation,
	       t.doctor_response, t.responded_by, t.responded_at, t.created_at,
	       p.name, p.email,
	       d.id, d.name, d.email
	FROM triage_record t
	JOIN app_user p ON p.id = t.patient_id
	LEFT JOIN app_user d ON d.id = t.responded_by`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var symptoms []byte
	var patientName, patientEmail string
	var responderID *uuid.UUID
	var responderName, responderEmail *string
	err := row.Scan(&rec.ID, &rec.PatientID, &symptoms, &rec.RiskLevel, &rec.Recommendation,
		&rec.DoctorResponse, &rec.RespondedBy, &rec.RespondedAt, &rec.CreatedAt,
		&patientName, &patientEmail,
		&responderID, &responderName, &responderEmail)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(symptoms, &rec.Symptoms); err != nil {
		return nil, err
	}
	rec.Patient = &PersonRef{ID: rec.PatientID, Name: patientName, Email: patientEmail}
	if responderID != nil {
		rec.Responder = &PersonRef{ID: *responderID, Name: *responderName, Email: *responderEmail}
	}
	return &rec, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	symptoms, err := json.Marshal(rec.Symptoms)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO triage_record (id, patient_id, symptoms, risk_level, recommendation)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		rec.ID, rec.PatientID, symptoms, rec.RiskLevel, rec.Recommendation).
		Scan(&rec.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx, triageSelect+` WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM triage_record WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		triageSelect+` WHERE t.patient_id = $1 ORDER BY t.created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) List(ctx context.Context, riskLevel string, limit, offset int) ([]*Record, int, error) {
	var total int
	var rows pgx.Rows
	var err error
	if riskLevel != "" {
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM triage_record WHERE risk_level = $1`, riskLevel).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			triageSelect+` WHERE t.risk_level = $1 ORDER BY t.created_at DESC LIMIT $2 OFFSET $3`,
			riskLevel, limit, offset)
	} else {
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM triage_record`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.conn(ctx).Query(ctx,
			triageSelect+` ORDER BY t.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func collect(rows pgx.Rows) ([]*Record, error) {
	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE triage_record SET doctor_response=$2, responded_by=$3, responded_at=$4
		WHERE id = $1`,
		rec.ID, rec.DoctorResponse, rec.RespondedBy, rec.RespondedAt)
	return err
}
