package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/WessleyAI/towline/engine/vin"
)

// ValidateVehicle validates a Vehicle. The VIN is required and must pass the
// check-digit test; when it encodes a model year, Year must be one of them.
func ValidateVehicle(v Vehicle) error {
	// VIN
	if err := vin.Validate(v.VIN); err != nil {
		return NewValidationError("vin", v.VIN, fmt.Errorf("%w: %w", ErrInvalidVIN, err))
	}

	// Make
	models, ok := SupportedMakes[v.Make]
	if !ok {
		return NewValidationError("make", v.Make, ErrUnsupportedMake)
	}

	// Model
	found := false
	for _, m := range models {
		if strings.EqualFold(m, v.Model) {
			found = true
			break
		}
	}
	if !found {
		return NewValidationError("model", v.Model, ErrUnsupportedModel)
	}

	// Year
	if v.Year < MinModelYear || v.Year > MaxModelYear {
		return NewValidationError("year", strconv.Itoa(v.Year), ErrYearOutOfRange)
	}
	if d, err := vin.Decode(v.VIN); err == nil && len(d.YearCandidates) > 0 {
		if !slices.Contains(d.YearCandidates, v.Year) {
			return NewValidationError("year", strconv.Itoa(v.Year), ErrVINYearMismatch)
		}
	}

	return nil
}

// ValidateTowRequest validates a tow request before it is quoted or dispatched.
func ValidateTowRequest(r TowRequest) error {
	if !vin.IsValid(r.VIN) {
		return NewValidationError("vin", r.VIN, fmt.Errorf("%w: %w", ErrInvalidVIN, vin.Validate(r.VIN)))
	}
	if !r.Pickup.Valid() {
		return NewValidationError("pickup", fmt.Sprintf("%g,%g", r.Pickup.Lat, r.Pickup.Lon), ErrInvalidLocation)
	}
	if !r.Dropoff.Valid() {
		return NewValidationError("dropoff", fmt.Sprintf("%g,%g", r.Dropoff.Lat, r.Dropoff.Lon), ErrInvalidLocation)
	}
	if !ValidTowClasses[r.Class] {
		return NewValidationError("class", string(r.Class), ErrUnknownTowClass)
	}
	return nil
}
