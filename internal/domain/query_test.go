package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewQueryNormalization(t *testing.T) {
	q, err := NewQuery("  What Is Our Roadmap?  ", "strategy")
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	if q.Normalized() != "what is our roadmap?" {
		t.Errorf("normalized = %q", q.Normalized())
	}
	if q.Raw() != "  What Is Our Roadmap?  " {
		t.Errorf("raw modified: %q", q.Raw())
	}
	if q.Category() != "strategy" {
		t.Errorf("category = %q", q.Category())
	}
}

func TestFingerprintStability(t *testing.T) {
	// Case and surrounding whitespace never change the fingerprint.
	variants := []string{
		"what is our roadmap?",
		"What Is Our Roadmap?",
		"  what is our roadmap?  ",
		"\tWHAT IS OUR ROADMAP?\n",
	}

	var want string
	for i, v := range variants {
		q, err := NewQuery(v, "")
		if err != nil {
			t.Fatalf("NewQuery(%q): %v", v, err)
		}
		if i == 0 {
			want = q.Fingerprint()
			continue
		}
		if q.Fingerprint() != want {
			t.Errorf("fingerprint(%q) = %s, want %s", v, q.Fingerprint(), want)
		}
	}
}

func TestFingerprintPunctuationDiffers(t *testing.T) {
	a, _ := NewQuery("what is our roadmap", "")
	b, _ := NewQuery("what is our roadmap?", "")
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("punctuation difference must produce a different fingerprint")
	}
}

func TestNewQueryValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   \t\n"},
		{"oversized", strings.Repeat("a", MaxQueryLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuery(tt.raw, "")
			if !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("err = %v, want ErrInvalidQuery", err)
			}
		})
	}
}

func TestNewQueryMaxLengthBoundary(t *testing.T) {
	if _, err := NewQuery(strings.Repeat("a", MaxQueryLength), ""); err != nil {
		t.Errorf("query of exactly max length rejected: %v", err)
	}

	// The limit counts characters, not bytes: a multi-byte query under
	// the limit must pass even when its byte length exceeds it.
	cjk := strings.Repeat("情", MaxQueryLength/2)
	if len(cjk) <= MaxQueryLength {
		t.Fatalf("fixture too short to exercise the byte/rune distinction: %d bytes", len(cjk))
	}
	if _, err := NewQuery(cjk, ""); err != nil {
		t.Errorf("multi-byte query under the character limit rejected: %v", err)
	}

	if _, err := NewQuery(strings.Repeat("情", MaxQueryLength+1), ""); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("multi-byte query over the character limit: err = %v, want ErrInvalidQuery", err)
	}
}
