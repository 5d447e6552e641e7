package service

import (
	"context"
	"testing"

	"github.com/yourorg/campusbus/internal/domain"
)

func registerStudent(t *testing.T, env *testEnv, regNo, email string) *domain.UserAccount {
	t.Helper()
	account, _, err := env.users.Register(context.Background(), RegisterInput{
		Role:       domain.RoleStudent,
		Identifier: regNo,
		Name:       "Test Student",
		Email:      email,
		Password:   "secret-pass-1",
	})
	if err != nil {
		t.Fatalf("register student failed: %v", err)
	}
	return account
}

func TestRegisterValidatesIdentifierByRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, _, err := env.users.Register(ctx, RegisterInput{
		Role:       domain.RoleStudent,
		Identifier: "not-a-regno",
		Name:       "Bad Student",
		Email:      "bad@campus.edu",
		Password:   "secret-pass-1",
	}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for malformed reg no, got %v", err)
	}

	if _, _, err := env.users.Register(ctx, RegisterInput{
		Role:       domain.RoleStaff,
		Identifier: "Staff/Elsewhere/1001",
		Name:       "Bad Staff",
		Email:      "staff@campus.edu",
		Password:   "secret-pass-1",
	}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for malformed staff id, got %v", err)
	}

	if _, _, err := env.users.Register(ctx, RegisterInput{
		Role:     domain.RoleDriver,
		Name:     "Driver",
		Email:    "driver@campus.edu",
		Password: "secret-pass-1",
	}); err != nil {
		t.Fatalf("driver registration with email identifier must pass, got %v", err)
	}
}

func TestRegisterDetectsRoleWhenOmitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, _, err := env.users.Register(ctx, RegisterInput{
		Identifier: "UG20/COMS/1184",
		Name:       "Detected Student",
		Email:      "ug20@campus.edu",
		Password:   "secret-pass-1",
	})
	if err != nil {
		t.Fatalf("register without role failed: %v", err)
	}
	if account.Role != domain.RoleStudent {
		t.Fatalf("expected detected student role, got %q", account.Role)
	}

	admin, _, err := env.users.Register(ctx, RegisterInput{
		Identifier: "admin@campus.edu",
		Name:       "Detected Admin",
		Email:      "admin@campus.edu",
		Password:   "secret-pass-1",
	})
	if err != nil {
		t.Fatalf("register admin without role failed: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected detected admin role, got %q", admin.Role)
	}
}

func TestRegisterCrossRoleConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registerStudent(t, env, "UG20/COMS/1184", "ug20@campus.edu")

	// Same email under a different role.
	if _, _, err := env.users.Register(ctx, RegisterInput{
		Role:       domain.RoleStaff,
		Identifier: "Staff/Adustech/1001",
		Name:       "Duplicate Mail",
		Email:      "ug20@campus.edu",
		Password:   "secret-pass-1",
	}); !domain.IsConflict(err) {
		t.Fatalf("expected cross-role email conflict, got %v", err)
	}

	// Same identifier, different case.
	if _, _, err := env.users.Register(ctx, RegisterInput{
		Role:       domain.RoleStudent,
		Identifier: "ug20/coms/1184",
		Name:       "Duplicate RegNo",
		Email:      "another@campus.edu",
		Password:   "secret-pass-1",
	}); !domain.IsConflict(err) {
		t.Fatalf("expected identifier conflict, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerStudent(t, env, "UG20/COMS/1184", "ug20@campus.edu")

	// By registration number.
	if _, err := env.users.Authenticate(ctx, "UG20/COMS/1184", "secret-pass-1"); err != nil {
		t.Fatalf("authenticate by identifier failed: %v", err)
	}
	// By email.
	if _, err := env.users.Authenticate(ctx, "ug20@campus.edu", "secret-pass-1"); err != nil {
		t.Fatalf("authenticate by email failed: %v", err)
	}
	// Wrong password.
	if _, err := env.users.Authenticate(ctx, "UG20/COMS/1184", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	// Unknown identifier.
	if _, err := env.users.Authenticate(ctx, "UG99/NONE/999", "secret-pass-1"); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials for unknown account, got %v", err)
	}
}

func TestPasswordHashNeverStoredPlain(t *testing.T) {
	env := newTestEnv(t)
	account := registerStudent(t, env, "UG20/COMS/1184", "ug20@campus.edu")

	if account.PasswordHash == "secret-pass-1" {
		t.Fatalf("password stored in the clear")
	}
	if len(account.PasswordHash) == 0 {
		t.Fatalf("expected stored credential hash")
	}
}

func TestResetPasswordRewritesCredential(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerStudent(t, env, "UG20/COMS/1184", "ug20@campus.edu")

	if _, err := env.users.ResetPassword(ctx, "ug20@campus.edu", "brand-new-pass"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if _, err := env.users.Authenticate(ctx, "ug20@campus.edu", "secret-pass-1"); err == nil {
		t.Fatalf("old password must stop working")
	}
	if _, err := env.users.Authenticate(ctx, "ug20@campus.edu", "brand-new-pass"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}

func TestUpdateAndDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := registerStudent(t, env, "UG20/COMS/1184", "ug20@campus.edu")

	newName := "Renamed Student"
	updated, _, err := env.users.Update(ctx, account.ID, UpdateUserInput{Name: &newName}, account.ID)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("expected name update, got %q", updated.Name)
	}

	if err := env.users.Delete(ctx, account.ID, "admin_test"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := env.users.FindByIdentifier(ctx, "UG20/COMS/1184"); ok {
		t.Fatalf("expected account gone after delete")
	}
	if err := env.users.Delete(ctx, account.ID, "admin_test"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestGetAllSpansRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registerStudent(t, env, "UG20/COMS/1184", "ug20@campus.edu")
	if _, _, err := env.users.Register(ctx, RegisterInput{
		Role:       domain.RoleStaff,
		Identifier: "Staff/Adustech/1001",
		Name:       "Test Staff",
		Email:      "staff1001@campus.edu",
		Password:   "secret-pass-1",
	}); err != nil {
		t.Fatalf("register staff failed: %v", err)
	}

	accounts := env.users.GetAll(ctx)
	if len(accounts) != 2 {
		t.Fatalf("expected accounts across roles, got %d", len(accounts))
	}
}
