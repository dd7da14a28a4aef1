package cache

import (
	"strings"
	"testing"
)

func TestDefaultKeyer_Deterministic(t *testing.T) {
	k := NewDefaultKeyer()

	params := map[string]any{"folder": "inbox", "limit": 50, "unread": true}

	first, err := k.Key("google", "mail.list", params)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := k.Key("google", "mail.list", params)
		if err != nil {
			t.Fatalf("Key() error = %v", err)
		}
		if again != first {
			t.Fatalf("Key() = %q, want stable %q", again, first)
		}
	}
}

func TestDefaultKeyer_Format(t *testing.T) {
	k := NewDefaultKeyer()

	key, err := k.Key("microsoft", "calendar.list", nil)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if !strings.HasPrefix(key, "microsoft:calendar.list:") {
		t.Errorf("Key() = %q, want platform:operation: prefix", key)
	}
	hash := strings.TrimPrefix(key, "microsoft:calendar.list:")
	if len(hash) != 16 {
		t.Errorf("hash length = %d, want 16", len(hash))
	}
}

func TestDefaultKeyer_DistinctParams(t *testing.T) {
	k := NewDefaultKeyer()

	a, _ := k.Key("google", "mail.list", map[string]any{"folder": "inbox"})
	b, _ := k.Key("google", "mail.list", map[string]any{"folder": "archive"})

	if a == b {
		t.Error("different params should produce different keys")
	}
}

func TestDefaultKeyer_NestedMapsDeterministic(t *testing.T) {
	k := NewDefaultKeyer()

	params := map[string]any{
		"filter": map[string]any{"from": "alice", "after": "2026-01-01"},
		"fields": []any{"subject", "date"},
	}

	a, err := k.Key("google", "mail.search", params)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	b, _ := k.Key("google", "mail.search", params)
	if a != b {
		t.Error("nested params should canonicalize deterministically")
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", "google:mail.list:abc123", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"newline", "a\nb", true},
		{"too long", strings.Repeat("x", MaxKeyLength+1), true},
		{"max length", strings.Repeat("x", MaxKeyLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}
