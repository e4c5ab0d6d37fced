package guard

import "testing"

// ---------------------------------------------------------------------------
// Protect
// ---------------------------------------------------------------------------

func TestProtect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"leading verb joins the span", "Tell John about it", `"Tell John" about it`},
		{"two word name", "He lives in New York now", `"He" lives in "New York" now`},
		{"no capitals", "nothing to protect here", "nothing to protect here"},
		{"span caps at three words", "Ask Jean Pierre Polnareff", `"Ask Jean Pierre" "Polnareff"`},
		{"single letter word skipped", "I saw him", `I saw him`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := Protect(tc.in)
			if got != tc.want {
				t.Errorf("Protect(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestProtect_SkipsAlreadyQuoted(t *testing.T) {
	got, positions := Protect(`He said "John is here" loudly`)
	// "John" sits after one quote character, so it is already protected.
	want := `"He" said "John is here" loudly`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(positions) != 1 {
		t.Errorf("expected 1 recorded position, got %v", positions)
	}
}

func TestProtect_RecordsOriginalOffsets(t *testing.T) {
	text := "Tell John about Mary"
	_, positions := Protect(text)
	if len(positions) != 2 {
		t.Fatalf("got positions %v, want 2 entries", positions)
	}
	if text[positions[0]:positions[0]+9] != "Tell John" {
		t.Errorf("first position %d does not point at the Tell John span", positions[0])
	}
	if text[positions[1]:positions[1]+4] != "Mary" {
		t.Errorf("second position %d does not point at Mary", positions[1])
	}
}

// ---------------------------------------------------------------------------
// Unprotect
// ---------------------------------------------------------------------------

func TestUnprotect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"removes wrapped name", `Diga a "John" sobre isso`, "Diga a John sobre isso"},
		{"removes multi word name", `Ele mora em "New York" agora`, "Ele mora em New York agora"},
		{"keeps real quotation", `Ele disse "olá mundo"`, `Ele disse "olá mundo"`},
		{"keeps altered span", `O "Joãozinho favorito" chegou`, `O "Joãozinho favorito" chegou`},
		{"no quotes", "nada aqui", "nada aqui"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Unprotect(tc.in, nil)
			if got != tc.want {
				t.Errorf("Unprotect(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// Round trip: when the backend does not touch protected spans, the guard
// must come back to the original text.
func TestProtectUnprotect_RoundTrip(t *testing.T) {
	texts := []string{
		"Tell John about it",
		"He lives in New York now",
		"Ask Jean Pierre Polnareff about Stand users",
		"nothing capitalized at all",
	}
	for _, text := range texts {
		marked, positions := Protect(text)
		if got := Unprotect(marked, positions); got != text {
			t.Errorf("round trip of %q = %q", text, got)
		}
	}
}
