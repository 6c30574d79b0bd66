package redis

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSessionLocker_KeyAndDefaults(t *testing.T) {
	l := NewSessionLocker(nil, 0, zerolog.Nop())
	if l.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl %v, got %v", defaultLockTTL, l.ttl)
	}
	if got := l.key("Doctor:7"); got != "session-lock:Doctor:7" {
		t.Fatalf("unexpected key %q", got)
	}
	if l2 := NewSessionLocker(nil, time.Minute, zerolog.Nop()); l2.ttl != time.Minute {
		t.Fatalf("expected explicit ttl to be kept")
	}
}

func TestOwnerToken_Unique(t *testing.T) {
	a, err := ownerToken()
	if err != nil {
		t.Fatalf("ownerToken returned error: %v", err)
	}
	b, _ := ownerToken()
	if a == b || len(a) != 32 {
		t.Fatalf("expected distinct 32-char tokens, got %q and %q", a, b)
	}
}
