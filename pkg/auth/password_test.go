package auth

import (
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{name: "valid strong password", password: "SecureP@ss123", shouldFail: false},
		{name: "too short", password: "Pass@1", shouldFail: true},
		{name: "missing uppercase", password: "securepass@123", shouldFail: true},
		{name: "missing lowercase", password: "SECUREPASS@123", shouldFail: true},
		{name: "missing digit", password: "SecurePass@xyz", shouldFail: true},
		{name: "missing special character", password: "SecurePass123", shouldFail: true},
		{name: "common password rejected", password: "password123!", shouldFail: true},
		{name: "valid with symbols", password: "MyP@ssw0rd!", shouldFail: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.shouldFail && err == nil {
				t.Errorf("expected validation to fail for %q", tt.password)
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("expected validation to pass for %q, got %v", tt.password, err)
			}
		})
	}
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("SecureP@ss123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "SecureP@ss123" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := ComparePassword(hash, "SecureP@ss123"); err != nil {
		t.Errorf("expected matching password to compare, got %v", err)
	}
	if err := ComparePassword(hash, "WrongP@ss123"); err == nil {
		t.Error("expected mismatched password to fail comparison")
	}
}

func TestHashSecretNeverStoresPlaintext(t *testing.T) {
	hash, err := HashSecret("483920")
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}
	if hash == "483920" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CompareSecret(hash, "483920") {
		t.Error("expected matching secret to verify")
	}
	if CompareSecret(hash, "000000") {
		t.Error("expected mismatched secret to fail")
	}
}

func TestHashSecretEmptyRejected(t *testing.T) {
	if _, err := HashSecret(""); err == nil {
		t.Error("expected empty secret to be rejected")
	}
}
