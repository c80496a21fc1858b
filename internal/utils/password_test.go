package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("hunter2", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(h, "hunter2") {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(h, "hunter3") {
		t.Fatal("wrong password verified")
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	if _, err := HashPassword("abc", bcrypt.MinCost); err != ErrWeakPassword {
		t.Fatalf("want ErrWeakPassword, got %v", err)
	}
}

func TestVerifyPasswordEmptyHash(t *testing.T) {
	if VerifyPassword("", "anything") {
		t.Fatal("empty hash must never verify")
	}
}
