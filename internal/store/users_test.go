package store

import (
	"context"
	"testing"

	"github.com/mklavora/fieldstock/internal/db"
	"github.com/mklavora/fieldstock/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "jdoe", "Jane Doe", "hash123", model.RoleEngineer)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "jdoe" {
		t.Errorf("expected username 'jdoe', got %q", user.Username)
	}
	if user.Role != model.RoleEngineer {
		t.Errorf("expected role 'engineer', got %q", user.Role)
	}
	if user.FullName != "Jane Doe" {
		t.Errorf("expected full name 'Jane Doe', got %q", user.FullName)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "jdoe" {
		t.Errorf("expected username 'jdoe', got %q", got.Username)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "alice", "", "hash", model.RoleEngineer); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Duplicate differs only in case.
	_, err := CreateUser(ctx, database, "ALICE", "", "hash", model.RoleEngineer)
	if err != ErrConflict {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestGetUserByUsernameCaseInsensitive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "Alice", "", "hash", model.RoleHOD)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Username != "Alice" {
		t.Errorf("expected 'Alice', got %q", user.Username)
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListUsersByRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "boss", "", "hash", model.RoleHOD)
	CreateUser(ctx, database, "a", "", "hash", model.RoleEngineer)
	CreateUser(ctx, database, "b", "", "hash", model.RoleEngineer)

	engineers, err := ListUsersByRole(ctx, database, model.RoleEngineer)
	if err != nil {
		t.Fatalf("ListUsersByRole: %v", err)
	}
	if len(engineers) != 2 {
		t.Errorf("expected 2 engineers, got %d", len(engineers))
	}

	hods, _ := ListUsersByRole(ctx, database, model.RoleHOD)
	if len(hods) != 1 {
		t.Errorf("expected 1 HOD, got %d", len(hods))
	}
}

func TestDeleteUserFreesUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "", "hash", model.RoleEngineer)
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	users, _ := ListUsersByRole(ctx, database, model.RoleEngineer)
	if len(users) != 0 {
		t.Errorf("expected 0 engineers after delete, got %d", len(users))
	}

	// Username is reusable after soft delete.
	if _, err := CreateUser(ctx, database, "deleteme", "", "hash", model.RoleEngineer); err != nil {
		t.Errorf("expected username reusable after delete, got %v", err)
	}

	// Second delete reports absence.
	if err := DeleteUser(ctx, database, user.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "", "oldhash", model.RoleEngineer)
	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}

	if err := UpdateUserPassword(ctx, database, 9999, "x"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestCountUsersByRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	count, err := CountUsersByRole(ctx, database, model.RoleHOD)
	if err != nil {
		t.Fatalf("CountUsersByRole: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}

	CreateUser(ctx, database, "boss", "", "hash", model.RoleHOD)

	count, _ = CountUsersByRole(ctx, database, model.RoleHOD)
	if count != 1 {
		t.Errorf("expected 1, got %d", count)
	}
}
