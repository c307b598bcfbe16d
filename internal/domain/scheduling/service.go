package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, patientID uuid.UUID, symptoms string, preferredDate time.Time) (*Appointment, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return nil, validationErr("symptoms are required")
	}
	if preferredDate.IsZero() {
		return nil, validationErr("preferredDate is required")
	}

	a := &Appointment{
		PatientID:     patientID,
		Symptoms:      symptoms,
		PreferredDate: preferredDate,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) MyAppointments(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, validationErr("unknown status filter")
	}
	return s.repo.List(ctx, status, limit, offset)
}

// Review records the doctor's decision. Status and notes are both optional;
// any review stamps reviewedBy and reviewedAt.
func (s *Service) Review(ctx context.Context, id, doctorID uuid.UUID, status, notes string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if status != "" {
		if !ValidStatus(status) {
			return nil, validationErr("unknown status")
		}
		a.Status = status
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		a.DoctorNotes = notes
	}
	now := time.Now()
	a.ReviewedBy = &doctorID
	a.ReviewedAt = &now

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes an appointment. Doctors may delete any; a patient may only
// cancel their own while it is still pending.
func (s *Service) Delete(ctx context.Context, id, requesterID uuid.UUID, requesterRole string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if requesterRole != "doctor" {
		if a.PatientID != requesterID {
			return ErrForbidden
		}
		if a.Status != StatusPending {
			return validationErr("only pending appointments can be cancelled")
		}
	}
	return s.repo.Delete(ctx, id)
}
