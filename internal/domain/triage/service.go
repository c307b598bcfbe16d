package triage

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

// Submit assesses the symptoms and stores the scored record.
func (s *Service) Submit(ctx context.Context, patientID uuid.UUID, symptoms Symptoms) (*Record, error) {
	symptoms.Other = strings.TrimSpace(symptoms.Other)
	a := Assess(symptoms)

	rec := &Record{
		PatientID:      patientID,
		Symptoms:       symptoms,
		RiskLevel:      a.RiskLevel,
		Recommendation: a.Recommendation,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) MyHistory(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, riskLevel string, limit, offset int) ([]*Record, int, error) {
	if riskLevel != "" && !ValidRiskLevel(riskLevel) {
		return nil, 0, validationErr("unknown risk level filter")
	}
	return s.repo.List(ctx, riskLevel, limit, offset)
}

// Respond records the doctor's feedback on a triage record.
func (s *Service) Respond(ctx context.Context, id, doctorID uuid.UUID, doctorResponse string) (*Record, error) {
	doctorResponse = strings.TrimSpace(doctorResponse)
	if doctorResponse == "" {
		return nil, validationErr("doctorResponse is required")
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec.DoctorResponse = doctorResponse
	rec.RespondedBy = &doctorID
	rec.RespondedAt = &now
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Get returns one record; a patient may only read their own, doctors read
// any.
func (s *Service) Get(ctx context.Context, id, requesterID uuid.UUID, requesterRole string) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if requesterRole != "doctor" && rec.PatientID != requesterID {
		return nil, ErrForbidden
	}
	return rec, nil
}
