package identity

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Age      *int   `json:"age"`
	Gender   string `json:"gender"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Name == "" {
		return nil, validationErr("name is required")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, validationErr("a valid email is required")
	}
	if len(in.Password) < 6 {
		return nil, validationErr("password must be at least 6 characters")
	}
	if in.Role == "" {
		in.Role = RolePatient
	}
	if !ValidRole(in.Role) {
		return nil, validationErr("role must be patient or doctor")
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > 150) {
		return nil, validationErr("age must be between 0 and 150")
	}
	if !validGender(in.Gender) {
		return nil, validationErr("invalid gender value")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   string(hash),
		Role:           in.Role,
		Phone:          strings.TrimSpace(in.Phone),
		Age:            in.Age,
		Gender:         in.Gender,
		MedicalHistory: []MedicalHistoryEntry{},
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials. Unknown email and wrong password both come back
// as ErrInvalidCredentials so the response does not leak which one it was.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

type UpdateProfileInput struct {
	Name           string                 `json:"name"`
	Phone          string                 `json:"phone"`
	Age            *int                   `json:"age"`
	Gender         string                 `json:"gender"`
	MedicalHistory *[]MedicalHistoryEntry `json:"medicalHistory"`
}

// UpdateProfile applies the provided fields; zero-valued fields are left
// untouched. MedicalHistory, when present, replaces the whole list.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		u.Phone = phone
	}
	if in.Age != nil {
		if *in.Age < 0 || *in.Age > 150 {
			return nil, validationErr("age must be between 0 and 150")
		}
		u.Age = in.Age
	}
	if in.Gender != "" {
		if !validGender(in.Gender) {
			return nil, validationErr("invalid gender value")
		}
		u.Gender = in.Gender
	}
	if in.MedicalHistory != nil {
		u.MedicalHistory = *in.MedicalHistory
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// AddMedicalHistory appends one entry to the user's record.
func (s *Service) AddMedicalHistory(ctx context.Context, id uuid.UUID, entry MedicalHistoryEntry) (*User, error) {
	entry.Condition = strings.TrimSpace(entry.Condition)
	if entry.Condition == "" {
		return nil, validationErr("condition is required")
	}
	if entry.Date == nil {
		now := time.Now()
		entry.Date = &now
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.MedicalHistory = append(u.MedicalHistory, entry)
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ListByRole(ctx context.Context, role string) ([]*User, error) {
	if !ValidRole(role) {
		return nil, validationErr("role must be patient or doctor")
	}
	return s.repo.ListByRole(ctx, role)
}
