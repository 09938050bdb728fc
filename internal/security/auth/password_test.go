package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Stake123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "Stake123" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPassword("Stake123", hash) {
		t.Fatalf("expected password to verify against its hash")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("Stake123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	h2, err := HashPassword("Stake123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if CheckPassword("Stake123", "not-a-bcrypt-hash") {
		t.Fatalf("expected malformed hash to fail verification")
	}
	if CheckPassword("Stake123", "") {
		t.Fatalf("expected empty hash to fail verification")
	}
}
