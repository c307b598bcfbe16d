// Package integration exercises the Postgres repositories against a real
// database. Set TEST_DATABASE_URL to run; the suite is skipped otherwise.
// Migrations are applied once per run and every test works in freshly
// created rows, so the suite can share a database with other runs.
package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/healthlink/healthlink/internal/domain/identity"
	"github.com/healthlink/healthlink/internal/platform/db"
)

var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		fmt.Fprintln(os.Stderr, "TEST_DATABASE_URL not set, skipping integration tests")
		os.Exit(0)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}

	if _, err := db.NewMigrator(pool, findMigrationsDir()).Up(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func findMigrationsDir() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "migrations")
}

// createTestUser inserts a user with a unique email and returns it.
func createTestUser(t *testing.T, ctx context.Context, role string) *identity.User {
	t.Helper()
	repo := identity.NewRepoPG(globalPool)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &identity.User{
		Name:         "Test " + role,
		Email:        fmt.Sprintf("%s-%s@test.local", role, uuid.NewString()),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create %s: %v", role, err)
	}
	return u
}
