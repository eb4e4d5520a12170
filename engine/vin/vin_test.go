package vin

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hondaAccord = "1HGCM82633A004352"
	xCheck      = "1M8GDM9AXKP042788" // remainder 10, needs P=7
	allOnes     = "11111111111111111"
	alphabet    = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"
)

func TestIsValid_KnownGood(t *testing.T) {
	for _, v := range []string{hondaAccord, xCheck, allOnes, "1HGCM82673A123456", "5YJ3E1EA0NF123456"} {
		assert.True(t, IsValid(v), v)
	}
}

func TestIsValid_Lengths(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("1HGCM8263A123456"), "16 chars")
	assert.False(t, IsValid("1HGCM82633A1234567"), "18 chars")
	for n := 0; n <= 40; n++ {
		if n == Length {
			continue
		}
		assert.False(t, IsValid(strings.Repeat("1", n)), "length %d", n)
	}
}

func TestIsValid_ForbiddenLetters(t *testing.T) {
	assert.False(t, IsValid("1HGCM82633O123456"))
	for _, bad := range []byte{'I', 'O', 'Q'} {
		for pos := 0; pos < Length; pos++ {
			b := []byte(hondaAccord)
			b[pos] = bad
			assert.False(t, IsValid(string(b)), "%c at %d", bad, pos)
		}
	}
}

func TestIsValid_RejectsLowercaseAndJunk(t *testing.T) {
	assert.False(t, IsValid(strings.ToLower(hondaAccord)))
	assert.False(t, IsValid("1HGCM8263 A004352"))
	assert.False(t, IsValid("1HGCM82633A00435é"))
	assert.True(t, IsValid(Normalize(" 1hgcm8263-3a004352 ")))
}

// The listed example with the wrong check digit: the sum mod 11 is 7, not 3.
func TestIsValid_WrongCheckDigit(t *testing.T) {
	assert.False(t, IsValid("1HGCM82633A123456"))
	err := Validate("1HGCM82633A123456")
	require.ErrorIs(t, err, ErrCheckDigit)
	assert.Contains(t, err.Error(), `'7'`)
}

func TestIsValid_CheckDigitMutation(t *testing.T) {
	for _, v := range []string{hondaAccord, xCheck, allOnes} {
		for i := 0; i < len(alphabet); i++ {
			c := alphabet[i]
			if c == v[checkPos] {
				continue
			}
			b := []byte(v)
			b[checkPos] = c
			assert.False(t, IsValid(string(b)), "%s with %c", v, c)
		}
	}
}

func TestIsValid_Idempotent(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.True(t, IsValid(hondaAccord))
		assert.False(t, IsValid("1HGCM82633A123456"))
	}
}

func TestIsValid_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if !IsValid(hondaAccord) || IsValid(allOnes[:16]) {
					t.Error("unexpected result under concurrency")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestTransliterationTable(t *testing.T) {
	want := map[int]string{
		1: "AJ", 2: "BKS", 3: "CLT", 4: "DMU", 5: "ENV",
		6: "FW", 7: "GPX", 8: "HY", 9: "RZ",
	}
	seen := 0
	for n, letters := range want {
		for i := 0; i < len(letters); i++ {
			got, ok := value(letters[i])
			require.True(t, ok, "%c", letters[i])
			assert.Equal(t, n, got, "%c", letters[i])
			seen++
		}
	}
	assert.Equal(t, 23, seen)
	for _, c := range []byte("IOQ-a ") {
		_, ok := value(c)
		assert.False(t, ok, "%q should be unmapped", c)
	}
}

func TestValidate_Errors(t *testing.T) {
	assert.NoError(t, Validate(hondaAccord))
	assert.ErrorIs(t, Validate("SHORT"), ErrLength)

	err := Validate("1HGCM82633Q004352")
	require.ErrorIs(t, err, ErrCharacter)
	assert.Contains(t, err.Error(), "position 11")

	assert.True(t, errors.Is(Validate("1HGCM82643A004352"), ErrCheckDigit))
}

func TestCheckDigit(t *testing.T) {
	d, err := CheckDigit(hondaAccord)
	require.NoError(t, err)
	assert.Equal(t, byte('3'), d)

	d, err = CheckDigit(xCheck)
	require.NoError(t, err)
	assert.Equal(t, byte('X'), d)

	_, err = CheckDigit("1HGCM82633A00435")
	assert.ErrorIs(t, err, ErrLength)
}

func TestFix(t *testing.T) {
	fixed, err := Fix("1HGCM82633A123456")
	require.NoError(t, err)
	assert.Equal(t, "1HGCM82673A123456", fixed)
	assert.True(t, IsValid(fixed))

	fixed, err = Fix("1M8GDM9A0KP042788")
	require.NoError(t, err)
	assert.Equal(t, xCheck, fixed)

	_, err = Fix("1HGCM82633O123456")
	assert.ErrorIs(t, err, ErrCharacter)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, hondaAccord, Normalize("  1hgcm 826 33a-004352\t"))
	assert.Equal(t, "", Normalize("   "))
}
