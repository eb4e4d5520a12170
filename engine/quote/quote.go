// Package quote estimates tow charges with a flat per-mile rate.
package quote

import (
	"fmt"
	"math"

	"github.com/WessleyAI/towline/engine/domain"
	"github.com/WessleyAI/towline/engine/geo"
)

// Rates is the price schedule for one tow class, in dollars.
type Rates struct {
	BaseFee       float64 `json:"base_fee"`
	PerMile       float64 `json:"per_mile"`
	MinimumCharge float64 `json:"minimum_charge"`
}

// RateTable maps each tow class to its rates.
type RateTable map[domain.TowClass]Rates

// DefaultRates is used when an operator has not configured its own table.
var DefaultRates = RateTable{
	domain.TowLight:  {BaseFee: 75, PerMile: 4.00, MinimumCharge: 95},
	domain.TowMedium: {BaseFee: 150, PerMile: 6.50, MinimumCharge: 200},
	domain.TowHeavy:  {BaseFee: 350, PerMile: 12.00, MinimumCharge: 500},
}

// Quote is the estimate returned to a dispatcher or customer.
type Quote struct {
	VIN      string          `json:"vin"`
	Class    domain.TowClass `json:"class"`
	Km       float64         `json:"km"`
	Miles    float64         `json:"miles"`
	Subtotal float64         `json:"subtotal"`
	Total    float64         `json:"total"`
	Minimum  bool            `json:"minimum_applied"`
}

// Estimate prices req against rates. Distance is straight-line (haversine);
// the total never falls below the class minimum.
func Estimate(req domain.TowRequest, rates RateTable) (Quote, error) {
	if err := domain.ValidateTowRequest(req); err != nil {
		return Quote{}, err
	}
	r, ok := rates[req.Class]
	if !ok {
		return Quote{}, fmt.Errorf("quote: no rates for class %q", req.Class)
	}

	km := geo.Haversine(req.Pickup, req.Dropoff)
	miles := geo.Miles(km)
	sub := cents(r.BaseFee + miles*r.PerMile)

	q := Quote{
		VIN:      req.VIN,
		Class:    req.Class,
		Km:       math.Round(km*100) / 100,
		Miles:    math.Round(miles*100) / 100,
		Subtotal: sub,
		Total:    sub,
	}
	if sub < r.MinimumCharge {
		q.Total = cents(r.MinimumCharge)
		q.Minimum = true
	}
	return q, nil
}

func cents(v float64) float64 { return math.Round(v*100) / 100 }
