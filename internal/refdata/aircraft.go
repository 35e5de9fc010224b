package refdata

import "strings"

// DefaultCruiseSpeedKmh is used when the aircraft family is unknown.
const DefaultCruiseSpeedKmh = 850.0

var cruiseSpeedKmh = map[string]float64{
	"A318":  830,
	"A319":  830,
	"A320":  840,
	"A321":  840,
	"A330":  870,
	"A340":  880,
	"A350":  903,
	"A380":  900,
	"B737":  840,
	"B747":  920,
	"B757":  850,
	"B767":  850,
	"B777":  905,
	"B787":  903,
	"E175":  800,
	"E190":  820,
	"CRJ":   830,
	"Q400":  667,
	"ATR72": 510,
	"MD11":  880,
	"MD80":  810,
}

// Порядок важен: A321 проверяется раньше A32x-синонимов, 747 раньше 74x-кодов.
var aircraftCodePatterns = []struct {
	needles []string
	code    string
}{
	{[]string{"a380", "a388"}, "A380"},
	{[]string{"a350", "a359", "a35k"}, "A350"},
	{[]string{"a340", "a343", "a346"}, "A340"},
	{[]string{"a330", "a332", "a333", "a339"}, "A330"},
	{[]string{"a321", "a21n"}, "A321"},
	{[]string{"a320", "a20n"}, "A320"},
	{[]string{"a319", "a19n"}, "A319"},
	{[]string{"a318"}, "A318"},
	{[]string{"747", "b744", "b748"}, "B747"},
	{[]string{"787", "b788", "b789", "b78x"}, "B787"},
	{[]string{"777", "b77w", "b77l", "b772", "b773"}, "B777"},
	{[]string{"767", "b763", "b764"}, "B767"},
	{[]string{"757", "b752", "b753"}, "B757"},
	{[]string{"737", "b738", "b739", "b38m", "b39m", "b737"}, "B737"},
	{[]string{"e190", "e195", "e290", "e295", "embraer190", "embraer195"}, "E190"},
	{[]string{"e170", "e175", "embraer170", "embraer175"}, "E175"},
	{[]string{"crj"}, "CRJ"},
	{[]string{"q400", "dash8", "dh8d"}, "Q400"},
	{[]string{"atr"}, "ATR72"},
	{[]string{"md11"}, "MD11"},
	{[]string{"md8", "md9"}, "MD80"},
}

// AircraftCode maps a free-form type string ("Airbus A320neo", "B738") to a
// family code used by the speed table. Empty when unknown.
func AircraftCode(aircraftType string) string {
	s := squash(aircraftType)
	if s == "" {
		return ""
	}
	for _, p := range aircraftCodePatterns {
		for _, n := range p.needles {
			if strings.Contains(s, n) {
				return p.code
			}
		}
	}
	return ""
}

// CruiseSpeedKmh accepts either a family code or a free-form type string.
func CruiseSpeedKmh(aircraft string) float64 {
	if v, ok := cruiseSpeedKmh[strings.ToUpper(strings.TrimSpace(aircraft))]; ok {
		return v
	}
	if v, ok := cruiseSpeedKmh[AircraftCode(aircraft)]; ok {
		return v
	}
	return DefaultCruiseSpeedKmh
}

func squash(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
