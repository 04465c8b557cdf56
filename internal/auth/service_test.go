package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Token tests need no repository; the nil repo is never touched.

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService(nil, []byte("test-secret"), time.Hour)
	userID := uuid.New()

	token, err := svc.issueToken(userID)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}

	got, err := svc.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if got != userID {
		t.Fatalf("subject = %s, want %s", got, userID)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	issuer := NewService(nil, []byte("secret-a"), time.Hour)
	verifier := NewService(nil, []byte("secret-b"), time.Hour)

	token, err := issuer.issueToken(uuid.New())
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	if _, err := verifier.VerifyToken(context.Background(), token); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	svc := NewService(nil, []byte("test-secret"), -time.Minute)

	token, err := svc.issueToken(uuid.New())
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	if _, err := svc.VerifyToken(context.Background(), token); err == nil {
		t.Fatal("expired token was accepted")
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc := NewService(nil, []byte("test-secret"), time.Hour)
	if _, err := svc.VerifyToken(context.Background(), "not.a.jwt"); err == nil {
		t.Fatal("garbage token was accepted")
	}
}
