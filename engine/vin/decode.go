package vin

// Region is the broad manufacturing region encoded in position 1.
type Region string

const (
	RegionAfrica       Region = "africa"
	RegionAsia         Region = "asia"
	RegionEurope       Region = "europe"
	RegionNorthAmerica Region = "north_america"
	RegionOceania      Region = "oceania"
	RegionSouthAmerica Region = "south_america"
	RegionUnknown      Region = "unknown"
)

// Decoded holds the standard sections of a valid VIN.
type Decoded struct {
	VIN        string `json:"vin"`
	WMI        string `json:"wmi"`         // positions 1-3, world manufacturer identifier
	VDS        string `json:"vds"`         // positions 4-8, vehicle descriptor section
	CheckDigit string `json:"check_digit"` // position 9
	YearCode   string `json:"year_code"`   // position 10
	Plant      string `json:"plant"`       // position 11
	Serial     string `json:"serial"`      // positions 12-17
	Region     Region `json:"region"`
	// ModelYear is the best guess; 0 when the year code is not a year code.
	ModelYear int `json:"model_year,omitempty"`
	// YearCandidates lists every year the code maps to, oldest first.
	YearCandidates []int `json:"year_candidates,omitempty"`
}

// yearCodes is the 30-character model-year cycle starting at 1980.
const yearCodes = "ABCDEFGHJKLMNPRSTVWXY123456789"

const (
	firstCycle = 1980
	cycleLen   = 30
)

// Decode validates s and splits it into its sections.
func Decode(s string) (Decoded, error) {
	if err := Validate(s); err != nil {
		return Decoded{}, err
	}
	d := Decoded{
		VIN:        s,
		WMI:        s[0:3],
		VDS:        s[3:8],
		CheckDigit: s[8:9],
		YearCode:   s[9:10],
		Plant:      s[10:11],
		Serial:     s[11:17],
		Region:     regionOf(s[0]),
	}
	d.YearCandidates = yearCandidates(s[9])
	d.ModelYear = modelYear(s)
	return d, nil
}

func yearCandidates(code byte) []int {
	idx := yearIndex(code)
	if idx < 0 {
		return nil
	}
	return []int{firstCycle + idx, firstCycle + cycleLen + idx}
}

// modelYear applies the position 7 rule for light vehicles: numeric means the
// 1980-2009 cycle, alphabetic means 2010-2039.
func modelYear(s string) int {
	idx := yearIndex(s[9])
	if idx < 0 {
		return 0
	}
	if c := s[6]; c >= '0' && c <= '9' {
		return firstCycle + idx
	}
	return firstCycle + cycleLen + idx
}

func yearIndex(code byte) int {
	for i := 0; i < len(yearCodes); i++ {
		if yearCodes[i] == code {
			return i
		}
	}
	return -1
}

func regionOf(c byte) Region {
	switch {
	case c >= 'A' && c <= 'H':
		return RegionAfrica
	case c >= 'J' && c <= 'R':
		return RegionAsia
	case c >= 'S' && c <= 'Z':
		return RegionEurope
	case c >= '1' && c <= '5':
		return RegionNorthAmerica
	case c == '6' || c == '7':
		return RegionOceania
	case c == '8' || c == '9':
		return RegionSouthAmerica
	default:
		return RegionUnknown
	}
}
