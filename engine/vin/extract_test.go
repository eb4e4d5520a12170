package vin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	text := "Tow 1hgcm82633a004352 from lot B; plate says 1HGCM82633A123456. Repeat: 1HGCM82633A004352."
	got := Extract(text)
	require.Len(t, got, 2)

	assert.Equal(t, Match{VIN: hondaAccord, Offset: 4, Valid: true}, got[0])
	assert.Equal(t, "1HGCM82633A123456", got[1].VIN)
	assert.False(t, got[1].Valid)
}

func TestExtract_IgnoresLongerRuns(t *testing.T) {
	assert.Empty(t, Extract("ref 1HGCM82633A0043521 is an order number"))
	assert.Empty(t, Extract("short"))
	assert.Empty(t, Extract(""))
}

func TestExtractValid(t *testing.T) {
	text := "units: " + xCheck + ", 1HGCM82633A123456, " + allOnes
	assert.Equal(t, []string{xCheck, allOnes}, ExtractValid(text))
}
