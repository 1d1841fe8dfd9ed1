// Package mention parses @name references out of free text and resolves
// them against a project roster.
package mention

import (
	"regexp"
	"strings"
)

// A token is a single @-prefixed run of letters and digits. It stops at the
// first whitespace or punctuation character, so "@Jane Doe" yields "Jane"
// and "@Anna,@Bea" yields both tokens.
var tokenPattern = regexp.MustCompile(`@([\p{L}\p{N}]+)`)

// Extract returns the distinct mention tokens found in text, stripped of the
// leading @, in first-occurrence order.
func Extract(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, match := range matches {
		token := strings.TrimSpace(match[1])
		if token == "" {
			continue
		}
		key := strings.ToLower(token)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

// RosterEntry pairs a team member's full display name with a contact address.
type RosterEntry struct {
	Name    string
	Address string
}

// Resolve matches tokens against roster full names, case-insensitively.
// Unmatched tokens are dropped; they are not an error. The returned map is
// keyed by the original token spelling.
func Resolve(tokens []string, roster []RosterEntry) map[string]string {
	resolved := make(map[string]string)
	for _, token := range tokens {
		for _, entry := range roster {
			if entry.Address == "" {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(entry.Name), token) {
				resolved[token] = entry.Address
				break
			}
		}
	}
	return resolved
}
