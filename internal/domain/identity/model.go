// Package identity owns user accounts: registration, login, profiles and
// the medical history attached to a patient profile.
package identity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// MedicalHistoryEntry is one condition on a patient's record.
type MedicalHistoryEntry struct {
	Condition string     `json:"condition"`
	Date      *time.Time `json:"date,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

type User struct {
	ID             uuid.UUID             `json:"id"`
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	PasswordHash   string                `json:"-"`
	Role           string                `json:"role"`
	Phone          string                `json:"phone,omitempty"`
	Age            *int                  `json:"age,omitempty"`
	Gender         string                `json:"gender,omitempty"`
	MedicalHistory []MedicalHistoryEntry `json:"medicalHistory"`
	CreatedAt      time.Time             `json:"createdAt"`
}

func ValidRole(role string) bool {
	return role == RolePatient || role == RoleDoctor
}

func validGender(g string) bool {
	switch g {
	case "", "male", "female", "other", "prefer-not-to-say":
		return true
	}
	return false
}
