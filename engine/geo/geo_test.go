package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	newYork = Location{Lat: 40.7128, Lon: -74.0060}
	losAng  = Location{Lat: 34.0522, Lon: -118.2437}
)

func TestHaversine_KnownDistance(t *testing.T) {
	// NYC to LA is roughly 3936 km along the great circle.
	assert.InDelta(t, 3936, Haversine(newYork, losAng), 5)
}

func TestHaversine_SymmetricAndZero(t *testing.T) {
	assert.InDelta(t, Haversine(newYork, losAng), Haversine(losAng, newYork), 1e-9)
	assert.Zero(t, Haversine(newYork, newYork))
}

func TestHaversine_Antipodal(t *testing.T) {
	d := Haversine(Location{0, 0}, Location{0, 180})
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 1e-6)
}

func TestMiles(t *testing.T) {
	assert.InDelta(t, 1.0, Miles(1.609344), 1e-12)
}

func TestLocation_Valid(t *testing.T) {
	assert.True(t, newYork.Valid())
	assert.True(t, Location{Lat: -90, Lon: 180}.Valid())
	assert.False(t, Location{Lat: 91}.Valid())
	assert.False(t, Location{Lon: -181}.Valid())
	assert.False(t, Location{Lat: math.NaN()}.Valid())
}
