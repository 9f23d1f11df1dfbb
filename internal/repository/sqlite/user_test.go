package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" creates a fresh database that exists only during the test, so
// every test is isolated and nothing touches the disk.
//
// t.Helper() makes failures point at the caller's line, not this function.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, u *UserDB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "$2a$04$hash"}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func int64Ptr(v int64) *int64 { return &v }

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	u := newTestDB(t).Users()

	user := &model.User{Email: "ada@example.com", PasswordHash: "$2a$04$hash"}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	u := newTestDB(t).Users()
	createTestUser(t, u, "dup@example.com")

	err := u.Create(context.Background(), &model.User{Email: "dup@example.com"})
	if err == nil {
		t.Fatal("Create() should fail for a duplicate email")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("expected ErrConflict, got: %v", err)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	u := newTestDB(t).Users()
	created := createTestUser(t, u, "grace@example.com")

	got, err := u.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Email != "grace@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "grace@example.com")
	}
	if got.PasswordHash != created.PasswordHash {
		t.Error("PasswordHash was not persisted")
	}
	if got.GitHubID != nil {
		t.Errorf("GitHubID = %v, want nil", *got.GitHubID)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	u := newTestDB(t).Users()

	_, err := u.GetUserByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	u := newTestDB(t).Users()
	created := createTestUser(t, u, "linus@example.com")

	got, err := u.GetUserByEmail(context.Background(), "linus@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}

	if _, err := u.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown email, got: %v", err)
	}
}

// =========================================================================
// GITHUB UPSERT TESTS
// =========================================================================

func TestUpsertGitHub_CreatesThenKeepsID(t *testing.T) {
	u := newTestDB(t).Users()
	ctx := context.Background()

	first := &model.User{GitHubID: int64Ptr(42), Login: "octocat", Email: "octo@github.com"}
	if err := u.UpsertGitHub(ctx, first); err != nil {
		t.Fatalf("first UpsertGitHub() error = %v", err)
	}

	second := &model.User{GitHubID: int64Ptr(42), Login: "octocat-renamed", Email: "octo@github.com"}
	if err := u.UpsertGitHub(ctx, second); err != nil {
		t.Fatalf("second UpsertGitHub() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("ID changed on re-login: %q → %q", first.ID, second.ID)
	}

	got, err := u.GetUserByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Login != "octocat-renamed" {
		t.Errorf("Login = %q, want refreshed value", got.Login)
	}
	if got.GitHubID == nil || *got.GitHubID != 42 {
		t.Errorf("GitHubID = %v, want 42", got.GitHubID)
	}
}

func TestUpsertGitHub_RequiresGitHubID(t *testing.T) {
	u := newTestDB(t).Users()

	if err := u.UpsertGitHub(context.Background(), &model.User{Email: "x@example.com"}); err == nil {
		t.Fatal("UpsertGitHub() should fail without a GitHub ID")
	}
}
