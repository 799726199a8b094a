package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := NewTokenManager("secret")
	userID := uuid.New()

	token, err := m.Issue(userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID, got)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewTokenManager("secret")
	if _, err := m.Verify("not-a-token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").Issue(uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenManager("secret-b").Verify(token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret")
	m.ttl = -1
	token, err := m.Issue(uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}
