// Package triage implements the rule-based symptom checker: patients submit
// a set of symptom flags, the assessment assigns a risk level and
// recommendation, and doctors follow up on stored records.
package triage

import (
	"time"

	"github.com/google/uuid"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Symptoms is the fixed flag set the assessment rules run over.
type Symptoms struct {
	Fever               bool   `json:"fever"`
	Cough               bool   `json:"cough"`
	DifficultyBreathing bool   `json:"difficultyBreathing"`
	Weakness            bool   `json:"weakness"`
	Headache            bool   `json:"headache"`
	BodyAches           bool   `json:"bodyAches"`
	SoreThroat          bool   `json:"soreThroat"`
	Nausea              bool   `json:"nausea"`
	Diarrhea            bool   `json:"diarrhea"`
	ChestPain           bool   `json:"chestPain"`
	Other               string `json:"other,omitempty"`
}

// PersonRef is the joined-in summary of a related user.
type PersonRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type Record struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patientId"`
	Symptoms       Symptoms   `json:"symptoms"`
	RiskLevel      string     `json:"riskLevel"`
	Recommendation string     `json:"recommendation"`
	DoctorResponse string     `json:"doctorResponse,omitempty"`
	RespondedBy    *uuid.UUID `json:"-"`
	RespondedAt    *time.Time `json:"respondedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`

	Patient   *PersonRef `json:"patient,omitempty"`
	Responder *PersonRef `json:"responder,omitempty"`
}

func ValidRiskLevel(level string) bool {
	switch level {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}
