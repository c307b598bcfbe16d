package triage

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// ListByPatient returns the patient's records newest-first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
	// List returns all records newest-first, optionally filtered by risk
	// level (empty means all).
	List(ctx context.Context, riskLevel string, limit, offset int) ([]*Record, int, error)
	Update(ctx context.Context, rec *Record) error
}
