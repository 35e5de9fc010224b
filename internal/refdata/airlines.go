package refdata

import "strings"

type Airline struct {
	Code    string // IATA designator
	ICAO    string
	Name    string
	Country string
}

var airlines = []Airline{
	{"QP", "AKJ", "Akasa Air", "IN"},
	{"6E", "IGO", "IndiGo", "IN"},
	{"AI", "AIC", "Air India", "IN"},
	{"IX", "AXB", "Air India Express", "IN"},
	{"SG", "SEJ", "SpiceJet", "IN"},
	{"UK", "VTI", "Vistara", "IN"},
	{"EK", "UAE", "Emirates", "AE"},
	{"EY", "ETD", "Etihad Airways", "AE"},
	{"QR", "QTR", "Qatar Airways", "QA"},
	{"TK", "THY", "Turkish Airlines", "TR"},
	{"BA", "BAW", "British Airways", "GB"},
	{"U2", "EZY", "easyJet", "GB"},
	{"VS", "VIR", "Virgin Atlantic", "GB"},
	{"LH", "DLH", "Lufthansa", "DE"},
	{"AF", "AFR", "Air France", "FR"},
	{"KL", "KLM", "KLM Royal Dutch Airlines", "NL"},
	{"IB", "IBE", "Iberia", "ES"},
	{"LX", "SWR", "Swiss International Air Lines", "CH"},
	{"OS", "AUA", "Austrian Airlines", "AT"},
	{"EI", "EIN", "Aer Lingus", "IE"},
	{"FR", "RYR", "Ryanair", "IE"},
	{"AY", "FIN", "Finnair", "FI"},
	{"TP", "TAP", "TAP Air Portugal", "PT"},
	{"AA", "AAL", "American Airlines", "US"},
	{"DL", "DAL", "Delta Air Lines", "US"},
	{"UA", "UAL", "United Airlines", "US"},
	{"WN", "SWA", "Southwest Airlines", "US"},
	{"B6", "JBU", "JetBlue", "US"},
	{"AS", "ASA", "Alaska Airlines", "US"},
	{"AC", "ACA", "Air Canada", "CA"},
	{"AM", "AMX", "Aeromexico", "MX"},
	{"SQ", "SIA", "Singapore Airlines", "SG"},
	{"CX", "CPA", "Cathay Pacific", "HK"},
	{"NH", "ANA", "All Nippon Airways", "JP"},
	{"JL", "JAL", "Japan Airlines", "JP"},
	{"KE", "KAL", "Korean Air", "KR"},
	{"CA", "CCA", "Air China", "CN"},
	{"MU", "CES", "China Eastern Airlines", "CN"},
	{"TG", "THA", "Thai Airways", "TH"},
	{"MH", "MAS", "Malaysia Airlines", "MY"},
	{"QF", "QFA", "Qantas", "AU"},
	{"NZ", "ANZ", "Air New Zealand", "NZ"},
	{"SA", "SAA", "South African Airways", "ZA"},
	{"ET", "ETH", "Ethiopian Airlines", "ET"},
	{"MS", "MSR", "EgyptAir", "EG"},
	{"KQ", "KQA", "Kenya Airways", "KE"},
}

var (
	airlineByIATA = make(map[string]*Airline, len(airlines))
	airlineByICAO = make(map[string]*Airline, len(airlines))
)

func init() {
	for i := range airlines {
		a := &airlines[i]
		airlineByIATA[a.Code] = a
		airlineByICAO[a.ICAO] = a
	}
}

// LookupAirline accepts a 2-character IATA or 3-letter ICAO designator.
func LookupAirline(code string) (Airline, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var a *Airline
	switch len(code) {
	case 2:
		a = airlineByIATA[code]
	case 3:
		a = airlineByICAO[code]
	}
	if a == nil {
		return Airline{}, false
	}
	return *a, true
}

// Callsign converts an IATA flight number (QP1457) to an ICAO callsign (AKJ1457).
// Returns "" when the airline is unknown.
func Callsign(airlineCode, number string) string {
	a, ok := LookupAirline(airlineCode)
	if !ok || a.ICAO == "" {
		return ""
	}
	return a.ICAO + strings.TrimLeft(number, "0")
}
