package vin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Sections(t *testing.T) {
	d, err := Decode(hondaAccord)
	require.NoError(t, err)
	assert.Equal(t, "1HG", d.WMI)
	assert.Equal(t, "CM826", d.VDS)
	assert.Equal(t, "3", d.CheckDigit)
	assert.Equal(t, "3", d.YearCode)
	assert.Equal(t, "A", d.Plant)
	assert.Equal(t, "004352", d.Serial)
	assert.Equal(t, RegionNorthAmerica, d.Region)
	assert.Equal(t, 2003, d.ModelYear)
	assert.Equal(t, []int{2003, 2033}, d.YearCandidates)
}

func TestDecode_ModelYearCycle(t *testing.T) {
	cases := []struct {
		vin  string
		year int
	}{
		{hondaAccord, 2003},
		{xCheck, 1989},              // position 7 numeric
		{"5YJ3E1EA0NF123456", 2022}, // position 7 alphabetic
	}
	for _, tc := range cases {
		d, err := Decode(tc.vin)
		require.NoError(t, err, tc.vin)
		assert.Equal(t, tc.year, d.ModelYear, tc.vin)
	}
}

func TestDecode_NonYearCode(t *testing.T) {
	// '0' and 'Z' are not model-year codes.
	v, err := Fix("1HGCM82630A004352")
	require.NoError(t, err)
	d, err := Decode(v)
	require.NoError(t, err)
	assert.Zero(t, d.ModelYear)
	assert.Nil(t, d.YearCandidates)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("1HGCM82633A123456")
	assert.ErrorIs(t, err, ErrCheckDigit)
	_, err = Decode("nope")
	assert.ErrorIs(t, err, ErrLength)
}

func TestRegionOf(t *testing.T) {
	cases := map[byte]Region{
		'A': RegionAfrica, 'J': RegionAsia, 'K': RegionAsia, 'W': RegionEurope,
		'1': RegionNorthAmerica, '5': RegionNorthAmerica, '6': RegionOceania,
		'9': RegionSouthAmerica, '0': RegionUnknown,
	}
	for c, want := range cases {
		assert.Equal(t, want, regionOf(c), "%c", c)
	}
}
