package integration

import (
	"context"
	"testing"
	"time"

	"github.com/healthlink/healthlink/internal/domain/identity"
	"github.com/healthlink/healthlink/internal/domain/triage"
)

func TestTriageRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := triage.NewRepoPG(globalPool)

	patient := createTestUser(t, ctx, identity.RolePatient)
	doctor := createTestUser(t, ctx, identity.RoleDoctor)

	symptoms := triage.Symptoms{Fever: true, Cough: true, DifficultyBreathing: true, Other: "dizzy"}
	rec := &triage.Record{
		PatientID:      patient.ID,
		Symptoms:       symptoms,
		RiskLevel:      triage.RiskHigh,
		Recommendation: "seek care",
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Symptoms != symptoms {
		t.Errorf("symptoms did not survive the JSONB round trip: %+v", got.Symptoms)
	}
	if got.RiskLevel != triage.RiskHigh {
		t.Errorf("risk level mismatch: %s", got.RiskLevel)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	got.DoctorResponse = "please book an appointment"
	got.RespondedBy = &doctor.ID
	got.RespondedAt = &now
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	responded, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if responded.Responder == nil || responded.Responder.ID != doctor.ID {
		t.Errorf("responder not joined in: %+v", responded.Responder)
	}

	items, total, err := repo.List(ctx, triage.RiskHigh, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total < 1 {
		t.Fatal("expected the record in the high-risk listing")
	}
	found := false
	for _, it := range items {
		if it.ID == rec.ID {
			found = true
			if it.Patient == nil || it.Patient.ID != patient.ID {
				t.Errorf("patient not joined in listing: %+v", it.Patient)
			}
		}
	}
	if !found {
		t.Error("record missing from high-risk listing")
	}
}
