package integration

import (
	"context"
	"testing"
	"time"

	"github.com/healthlink/healthlink/internal/domain/identity"
	"github.com/healthlink/healthlink/internal/domain/scheduling"
)

func TestAppointmentLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := scheduling.NewRepoPG(globalPool)

	patient := createTestUser(t, ctx, identity.RolePatient)
	doctor := createTestUser(t, ctx, identity.RoleDoctor)

	appt := &scheduling.Appointment{
		PatientID:     patient.ID,
		Symptoms:      "persistent cough",
		PreferredDate: time.Now().UTC().Add(48 * time.Hour).Truncate(time.Millisecond),
	}
	if err := repo.Create(ctx, appt); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if appt.Status != scheduling.StatusPending {
		t.Fatalf("new appointments must be pending, got %s", appt.Status)
	}

	got, err := repo.GetByID(ctx, appt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Patient == nil || got.Patient.ID != patient.ID {
		t.Errorf("expected patient joined in, got %+v", got.Patient)
	}
	if got.Reviewer != nil {
		t.Error("unreviewed appointment should have no reviewer")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	got.Status = scheduling.StatusApproved
	got.DoctorNotes = "come in Thursday"
	got.ReviewedBy = &doctor.ID
	got.ReviewedAt = &now
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reviewed, err := repo.GetByID(ctx, appt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reviewed.Status != scheduling.StatusApproved || reviewed.Reviewer == nil {
		t.Errorf("review not persisted: %+v", reviewed)
	}
	if reviewed.Reviewer != nil && reviewed.Reviewer.ID != doctor.ID {
		t.Errorf("wrong reviewer joined in: %+v", reviewed.Reviewer)
	}

	items, total, err := repo.ListByPatient(ctx, patient.ID, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected exactly one appointment for patient, got %d", total)
	}

	if err := repo.Delete(ctx, appt.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, appt.ID); err == nil {
		t.Error("expected not found after delete")
	}
}
