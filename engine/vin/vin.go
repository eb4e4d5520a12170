// Package vin validates and decodes 17-character Vehicle Identification
// Numbers using the North American check-digit algorithm (49 CFR 565.15).
//
// Every function in this package is pure and safe for concurrent use.
package vin

import (
	"errors"
	"fmt"
	"strings"
)

// Length is the fixed length of a modern VIN.
const Length = 17

// checkPos is the 0-indexed position of the check digit (position 9).
const checkPos = 8

// weights are the positional multipliers; the check digit carries 0.
var weights = [Length]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

// Sentinel errors returned by Validate and friends.
var (
	ErrLength     = errors.New("vin: must be 17 characters")
	ErrCharacter  = errors.New("vin: character not allowed")
	ErrCheckDigit = errors.New("vin: check digit mismatch")
)

// IsValid reports whether s is a well-formed VIN whose check digit matches.
// It never panics and never returns an error; malformed input is false.
func IsValid(s string) bool {
	return Validate(s) == nil
}

// Validate is IsValid with the first failed rule as an error.
func Validate(s string) error {
	want, err := CheckDigit(s)
	if err != nil {
		return err
	}
	if got := s[checkPos]; got != want {
		return fmt.Errorf("%w: expected %q at position 9, got %q", ErrCheckDigit, want, got)
	}
	return nil
}

// CheckDigit computes the check character for s. The character currently at
// position 9 does not influence the result, but must still be in the alphabet.
func CheckDigit(s string) (byte, error) {
	if len(s) != Length {
		return 0, fmt.Errorf("%w (got %d)", ErrLength, len(s))
	}
	sum := 0
	for i := 0; i < Length; i++ {
		v, ok := value(s[i])
		if !ok {
			return 0, fmt.Errorf("%w: %q at position %d", ErrCharacter, s[i], i+1)
		}
		sum += v * weights[i]
	}
	rem := sum % 11
	if rem == 10 {
		return 'X', nil
	}
	return byte('0' + rem), nil
}

// Fix returns s with position 9 replaced by the computed check digit.
func Fix(s string) (string, error) {
	d, err := CheckDigit(s)
	if err != nil {
		return "", err
	}
	b := []byte(s)
	b[checkPos] = d
	return string(b), nil
}

// Normalize upper-cases s and strips spaces and hyphens. It does not validate.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(s)
	return strings.ToUpper(s)
}

// value transliterates one VIN character. I, O and Q are not mapped.
func value(c byte) (int, bool) {
	switch c {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return int(c - '0'), true
	case 'A', 'J':
		return 1, true
	case 'B', 'K', 'S':
		return 2, true
	case 'C', 'L', 'T':
		return 3, true
	case 'D', 'M', 'U':
		return 4, true
	case 'E', 'N', 'V':
		return 5, true
	case 'F', 'W':
		return 6, true
	case 'G', 'P', 'X':
		return 7, true
	case 'H', 'Y':
		return 8, true
	case 'R', 'Z':
		return 9, true
	default:
		return 0, false
	}
}
