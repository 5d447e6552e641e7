package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	tm := NewTokenManager("test-secret", "campusbus")

	token, err := tm.GenerateToken("student", "usr_1", "UG20/COMS/1184", "ug20@campus.edu", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Role != "student" || claims.UserID != "usr_1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Identifier != "UG20/COMS/1184" {
		t.Fatalf("expected identifier carried, got %q", claims.Identifier)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", "campusbus")
	other := NewTokenManager("secret-b", "campusbus")

	token, err := tm.GenerateToken("admin", "usr_1", "admin@campus.edu", "admin@campus.edu", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatalf("expected rejection with wrong secret")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret", "campusbus")

	token, err := tm.GenerateToken("staff", "usr_2", "Staff/Adustech/1001", "staff@campus.edu", -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := tm.ValidateToken(token); err == nil {
		t.Fatalf("expected rejection of expired token")
	}
}

func TestGenerateRequiresRoleAndUser(t *testing.T) {
	tm := NewTokenManager("test-secret", "campusbus")
	if _, err := tm.GenerateToken("", "usr_1", "x", "x", time.Hour); err == nil {
		t.Fatalf("expected error for empty role")
	}
	if _, err := tm.GenerateToken("student", "", "x", "x", time.Hour); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}

func TestExtractToken(t *testing.T) {
	if _, err := ExtractToken("Bearer abc.def.ghi"); err != nil {
		t.Fatalf("expected bearer header accepted: %v", err)
	}
	for _, header := range []string{"", "abc", "Basic abc", "Bearer a b"} {
		if _, err := ExtractToken(header); err == nil {
			t.Fatalf("expected rejection of %q", header)
		}
	}
}
