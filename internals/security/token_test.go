package security

import (
	"strings"
	"testing"
)

func TestNewHeartbeatToken_Length(t *testing.T) {
	tok, err := NewHeartbeatToken(HeartbeatTokenLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tok) != HeartbeatTokenLength {
		t.Errorf("expected %d chars, got %d", HeartbeatTokenLength, len(tok))
	}
}

func TestNewHeartbeatToken_EnforcesMinimumLength(t *testing.T) {
	tok, err := NewHeartbeatToken(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tok) < HeartbeatTokenLength {
		t.Errorf("short request must be padded to %d chars, got %d", HeartbeatTokenLength, len(tok))
	}
}

func TestNewHeartbeatToken_URLSafeAlphabet(t *testing.T) {
	tok, err := NewHeartbeatToken(128)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range tok {
		if !strings.ContainsRune(tokenAlphabet, r) {
			t.Fatalf("token contains character outside alphabet: %q", r)
		}
	}
}

func TestNewHeartbeatToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := NewHeartbeatToken(HeartbeatTokenLength)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[tok] {
			t.Fatal("generated a duplicate token")
		}
		seen[tok] = true
	}
}
