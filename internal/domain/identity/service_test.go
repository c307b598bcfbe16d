package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// -- Mock Repository --

type mockRepo struct {
	items map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.items {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.items {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.items[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *mockRepo) ListByRole(_ context.Context, role string) ([]*User, error) {
	var result []*User
	for _, u := range m.items {
		if u.Role == role {
			cp := *u
			result = append(result, &cp)
		}
	}
	return result, nil
}

// -- Register --

func TestRegister_HashesPasswordAndDefaultsRole(t *testing.T) {
	svc := NewService(newMockRepo())

	u, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ada",
		Email:    "  ADA@Example.com ",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u.Role != RolePatient {
		t.Errorf("expected default role patient, got %s", u.Role)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("expected normalized email, got %s", u.Email)
	}
	if u.PasswordHash == "secret1" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")) != nil {
		t.Error("hash does not verify against the original password")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	bad := []RegisterInput{
		{Name: "", Email: "a@b.c", Password: "secret1"},
		{Name: "Ada", Email: "not-an-email", Password: "secret1"},
		{Name: "Ada", Email: "a@b.c", Password: "short"},
		{Name: "Ada", Email: "a@b.c", Password: "secret1", Role: "admin"},
		{Name: "Ada", Email: "a@b.c", Password: "secret1", Gender: "unknown"},
	}
	for _, in := range bad {
		if _, err := svc.Register(ctx, in); err == nil {
			t.Errorf("expected validation error for %+v", in)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	in := RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"}

	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(ctx, in); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

// -- Login --

func TestLogin_RoundTrip(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1", Role: RoleDoctor})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	u, err := svc.Login(ctx, "Ada@Example.com", "secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if u.ID != reg.ID {
		t.Error("login returned a different user")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

// -- Profile --

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1", Phone: "111"})
	if err != nil {
		t.Fatal(err)
	}

	age := 30
	updated, err := svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{Age: &age, Gender: "female"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Name != "Ada" || updated.Phone != "111" {
		t.Error("untouched fields must survive a partial update")
	}
	if updated.Age == nil || *updated.Age != 30 || updated.Gender != "female" {
		t.Errorf("expected age 30 / female, got %+v", updated)
	}
}

func TestAddMedicalHistory_AppendsWithDefaultDate(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.AddMedicalHistory(ctx, u.ID, MedicalHistoryEntry{Condition: "asthma", Notes: "mild"})
	if err != nil {
		t.Fatalf("AddMedicalHistory failed: %v", err)
	}
	if len(updated.MedicalHistory) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(updated.MedicalHistory))
	}
	if updated.MedicalHistory[0].Date == nil {
		t.Error("expected a default date")
	}

	updated, err = svc.AddMedicalHistory(ctx, u.ID, MedicalHistoryEntry{Condition: "allergy"})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.MedicalHistory) != 2 {
		t.Errorf("expected 2 entries, got %d", len(updated.MedicalHistory))
	}

	if _, err := svc.AddMedicalHistory(ctx, u.ID, MedicalHistoryEntry{Condition: "  "}); err == nil {
		t.Error("expected validation error for empty condition")
	}
}

func TestListByRole(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	for _, in := range []RegisterInput{
		{Name: "Ada", Email: "ada@example.com", Password: "secret1"},
		{Name: "Ben", Email: "ben@example.com", Password: "secret1"},
		{Name: "Dr. Gray", Email: "gray@example.com", Password: "secret1", Role: RoleDoctor},
	} {
		if _, err := svc.Register(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	patients, err := svc.ListByRole(ctx, RolePatient)
	if err != nil {
		t.Fatal(err)
	}
	if len(patients) != 2 {
		t.Errorf("expected 2 patients, got %d", len(patients))
	}

	if _, err := svc.ListByRole(ctx, "admin"); err == nil {
		t.Error("expected validation error for unknown role")
	}
}
