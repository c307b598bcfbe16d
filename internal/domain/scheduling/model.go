// Package scheduling handles appointment requests: patients submit symptoms
// and a preferred date, doctors review and resolve them.
package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// PersonRef is the joined-in summary of a related user.
type PersonRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type Appointment struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patientId"`
	Symptoms      string     `json:"symptoms"`
	PreferredDate time.Time  `json:"preferredDate"`
	Status        string     `json:"status"`
	DoctorNotes   string     `json:"doctorNotes,omitempty"`
	ReviewedBy    *uuid.UUID `json:"-"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`

	Patient  *PersonRef `json:"patient,omitempty"`
	Reviewer *PersonRef `json:"reviewer,omitempty"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}
