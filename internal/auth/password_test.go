package auth

import "testing"

func TestHashPassword(t *testing.T) {
	// SHA-256 of the empty string is a well-known constant.
	if got := HashPassword(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("HashPassword(\"\") = %v", got)
	}

	hash := HashPassword("pw")
	if len(hash) != 64 {
		t.Errorf("HashPassword returned %d chars, want 64", len(hash))
	}
	if hash == "pw" {
		t.Error("HashPassword returned the plaintext")
	}
}

func TestHashPassword_Deterministic(t *testing.T) {
	if HashPassword("secret") != HashPassword("secret") {
		t.Error("HashPassword is not deterministic")
	}
	if HashPassword("secret") == HashPassword("secret2") {
		t.Error("different passwords produced the same hash")
	}
}
