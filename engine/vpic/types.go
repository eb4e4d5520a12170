package vpic

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidVIN = errors.New("vpic: invalid vin")
	ErrNoResult   = errors.New("vpic: empty result set")
)

// StatusError is returned for a non-200 upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("vpic: unexpected status %d", e.Code) }

// Temporary reports whether the request is worth repeating.
func (e *StatusError) Temporary() bool { return e.Code >= 500 || e.Code == 429 }

// Result is the subset of the DecodeVinValues payload we keep.
type Result struct {
	VIN          string `json:"vin"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	ModelYear    int    `json:"model_year"`
	Manufacturer string `json:"manufacturer,omitempty"`
	BodyClass    string `json:"body_class,omitempty"`
	VehicleType  string `json:"vehicle_type,omitempty"`
	GVWR         string `json:"gvwr,omitempty"`
	PlantCountry string `json:"plant_country,omitempty"`
	ErrorCode    string `json:"error_code"`
	ErrorText    string `json:"error_text,omitempty"`
}

// Clean reports whether vPIC decoded the VIN without remarks. ErrorCode is a
// comma-separated list; "0" alone means clean.
func (r Result) Clean() bool {
	return strings.TrimSpace(r.ErrorCode) == "0"
}

type apiResponse struct {
	Count          int         `json:"Count"`
	Message        string      `json:"Message"`
	SearchCriteria string      `json:"SearchCriteria"`
	Results        []apiResult `json:"Results"`
}

type apiResult struct {
	VIN          string `json:"VIN"`
	Make         string `json:"Make"`
	Model        string `json:"Model"`
	ModelYear    string `json:"ModelYear"`
	Manufacturer string `json:"Manufacturer"`
	BodyClass    string `json:"BodyClass"`
	VehicleType  string `json:"VehicleType"`
	GVWR         string `json:"GVWR"`
	PlantCountry string `json:"PlantCountry"`
	ErrorCode    string `json:"ErrorCode"`
	ErrorText    string `json:"ErrorText"`
}
