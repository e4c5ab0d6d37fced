package translate

import (
	"reflect"
	"testing"
)

func TestCleanResponse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "numbered list",
			raw:  "1. Olá\n2. Tudo bem?\n3. Até logo",
			want: []string{"Olá", "Tudo bem?", "Até logo"},
		},
		{
			name: "paren numbering",
			raw:  "1) Primeiro\n2) Segundo",
			want: []string{"Primeiro", "Segundo"},
		},
		{
			name: "commentary dropped",
			raw:  "Here are the translations:\n1. Olá\nNote: kept the tone informal\n2. Adeus",
			want: []string{"Olá", "Adeus"},
		},
		{
			name: "unnumbered lines kept",
			raw:  "Olá\nAdeus",
			want: []string{"Olá", "Adeus"},
		},
		{
			name: "code fences and dividers dropped",
			raw:  "```\n1. Olá\n---\n2. Adeus\n```",
			want: []string{"Olá", "Adeus"},
		},
		{
			name: "blank lines skipped",
			raw:  "\n\n1. Olá\n\n\n2. Adeus\n",
			want: []string{"Olá", "Adeus"},
		},
		{
			name: "empty response",
			raw:  "",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanResponse(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("CleanResponse() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	originals := []string{"one", "two", "three"}

	t.Run("exact count", func(t *testing.T) {
		got := Reconcile([]string{"um", "dois", "três"}, originals)
		want := []string{"um", "dois", "três"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v", got)
		}
	})

	t.Run("short response pads tail with originals", func(t *testing.T) {
		got := Reconcile([]string{"um"}, originals)
		want := []string{"um", "two", "three"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v", got)
		}
	})

	t.Run("long response truncated", func(t *testing.T) {
		got := Reconcile([]string{"um", "dois", "três", "quatro"}, originals)
		want := []string{"um", "dois", "três"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v", got)
		}
	})

	t.Run("empty entry falls back to original", func(t *testing.T) {
		got := Reconcile([]string{"um", "  ", "três"}, originals)
		want := []string{"um", "two", "três"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v", got)
		}
	})

	t.Run("length always matches input", func(t *testing.T) {
		got := Reconcile(nil, originals)
		if len(got) != len(originals) {
			t.Fatalf("len = %d, want %d", len(got), len(originals))
		}
	})
}

func TestTranslationPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Translation: Olá mundo", want: "Olá mundo"},
		{in: "Tradução: Olá mundo", want: "Olá mundo"},
		{in: "Here is the translation: Olá", want: "Olá"},
		{in: "Olá mundo", want: "Olá mundo"},
	}

	for _, tc := range cases {
		got := translationPrefix.ReplaceAllString(tc.in, "")
		if got != tc.want {
			t.Fatalf("strip(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
