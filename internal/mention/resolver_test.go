package mention

import (
	"reflect"
	"testing"
)

func TestExtractReturnsDistinctTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single-token",
			text: "Hello @Jane, please review",
			want: []string{"Jane"},
		},
		{
			name: "token-stops-at-whitespace",
			text: "ping @Jane Doe about the report",
			want: []string{"Jane"},
		},
		{
			name: "trailing-punctuation-stripped",
			text: "thanks @Minh! cc @Lan.",
			want: []string{"Minh", "Lan"},
		},
		{
			name: "adjacent-mentions",
			text: "@Anna@Bea please sync",
			want: []string{"Anna", "Bea"},
		},
		{
			name: "duplicates-collapse-case-insensitively",
			text: "@jane and @Jane and @JANE",
			want: []string{"jane"},
		},
		{
			name: "accented-characters",
			text: "nhờ @Hùng kiểm tra",
			want: []string{"Hùng"},
		},
		{
			name: "no-mentions",
			text: "plain text without references",
			want: nil,
		},
		{
			name: "bare-at-sign",
			text: "meet @ noon",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestResolveMatchesFullNamesCaseInsensitively(t *testing.T) {
	roster := []RosterEntry{
		{Name: "Minh", Address: "minh@example.com"},
		{Name: "Lan Pham", Address: "lan@example.com"},
		{Name: "NoAddress", Address: ""},
	}

	resolved := Resolve([]string{"minh", "Lan", "Ghost", "NoAddress"}, roster)

	if len(resolved) != 1 {
		t.Fatalf("expected exactly one resolved token, got %v", resolved)
	}
	if resolved["minh"] != "minh@example.com" {
		t.Fatalf("expected case-insensitive match for minh, got %v", resolved)
	}
}

func TestResolveSingleWordTokenNeverMatchesMultiWordName(t *testing.T) {
	// A roster entry "Jane Doe" must not resolve for the token "Jane"; the
	// match is on the exact full name.
	roster := []RosterEntry{{Name: "Jane Doe", Address: "jane@x.com"}}

	resolved := Resolve(Extract("Hello @Jane, please review"), roster)
	if len(resolved) != 0 {
		t.Fatalf("expected no resolution, got %v", resolved)
	}
}
