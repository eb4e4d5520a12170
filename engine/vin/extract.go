package vin

import (
	"regexp"
	"strings"
)

// Match is a VIN-shaped token found in free text.
type Match struct {
	VIN    string `json:"vin"`    // upper-cased token
	Offset int    `json:"offset"` // byte offset in the source text
	Valid  bool   `json:"valid"`  // checksum holds
}

// candidateRe finds 17-char runs of the VIN alphabet bounded by non-alphanumerics.
var candidateRe = regexp.MustCompile(`(?i)\b[A-HJ-NPR-Z0-9]{17}\b`)

// Extract finds VIN-shaped tokens in dispatcher notes, emails and the like.
// Tokens are reported in order of first appearance; repeats are dropped.
func Extract(text string) []Match {
	if len(text) < Length {
		return nil
	}
	locs := candidateRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(locs))
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		tok := strings.ToUpper(text[loc[0]:loc[1]])
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, Match{VIN: tok, Offset: loc[0], Valid: IsValid(tok)})
	}
	return out
}

// ExtractValid returns only the checksum-valid VINs from text.
func ExtractValid(text string) []string {
	var out []string
	for _, m := range Extract(text) {
		if m.Valid {
			out = append(out, m.VIN)
		}
	}
	return out
}
