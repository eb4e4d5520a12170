// Package domain defines core domain types, constants, and validation for
// towing and fleet operations. It acts as the validation gate at every entry
// point that accepts a vehicle or a tow request.
package domain

import (
	"time"

	"github.com/WessleyAI/towline/engine/geo"
)

// Vehicle is a unit in a yard, on a truck, or in a customer fleet.
type Vehicle struct {
	VIN        string    `json:"vin"`
	Make       string    `json:"make"`
	Model      string    `json:"model"`
	Year       int       `json:"year"`
	Plate      string    `json:"plate,omitempty"`
	Color      string    `json:"color,omitempty"`
	TenantID   string    `json:"tenant_id,omitempty"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// TowClass is the equipment class needed for a tow.
type TowClass string

const (
	TowLight  TowClass = "light"
	TowMedium TowClass = "medium"
	TowHeavy  TowClass = "heavy"
)

// ValidTowClasses is the set of recognised tow classes.
var ValidTowClasses = map[TowClass]bool{
	TowLight: true, TowMedium: true, TowHeavy: true,
}

// TowRequest asks for a vehicle to be moved from Pickup to Dropoff.
type TowRequest struct {
	VIN     string       `json:"vin"`
	Pickup  geo.Location `json:"pickup"`
	Dropoff geo.Location `json:"dropoff"`
	Class   TowClass     `json:"class"`
}
