package synthetic

type route struct {
	from, to   string
	distanceKm float64
}

type airline struct {
	name    string
	country string
	hubs    []string
	fleet   []string
	routes  []route
}

// knownAirlines carry hubs, fleet and routes. Indexing into fleet and routes
// is done with numeric part of the flight number modulo the slice length, so
// the slices must never be reordered.
var knownAirlines = map[string]airline{
	"QP": {
		name:    "Akasa Air",
		country: "IN",
		hubs:    []string{"BOM", "BLR"},
		fleet:   []string{"Airbus A321neo", "Airbus A320neo"},
		routes: []route{
			{"BOM", "DEL", 1137},
			{"BOM", "BLR", 865},
			{"BLR", "DEL", 1709},
			{"BOM", "AMD", 444},
		},
	},
	"6E": {
		name:    "IndiGo",
		country: "IN",
		hubs:    []string{"DEL", "BOM", "BLR"},
		fleet:   []string{"Airbus A320neo", "Airbus A321neo", "ATR 72-600"},
		routes: []route{
			{"DEL", "BOM", 1137},
			{"DEL", "BLR", 1709},
			{"BOM", "GOI", 425},
			{"BLR", "HYD", 456},
			{"CCU", "DEL", 1312},
			{"MAA", "BOM", 1033},
		},
	},
	"AI": {
		name:    "Air India",
		country: "IN",
		hubs:    []string{"DEL", "BOM"},
		fleet:   []string{"Boeing 787-8", "Boeing 777-300ER", "Airbus A320neo", "Airbus A350-900"},
		routes: []route{
			{"DEL", "LHR", 6731},
			{"BOM", "JFK", 12532},
			{"DEL", "BOM", 1137},
			{"DEL", "SFO", 12382},
			{"BOM", "DXB", 1926},
		},
	},
	"BA": {
		name:    "British Airways",
		country: "GB",
		hubs:    []string{"LHR", "LGW"},
		fleet:   []string{"Airbus A320", "Boeing 777-300ER", "Airbus A380", "Boeing 787-9", "Airbus A350-1000"},
		routes: []route{
			{"LHR", "JFK", 5540},
			{"LHR", "BOM", 7212},
			{"LHR", "MAD", 1243},
			{"LHR", "SIN", 10881},
			{"LHR", "EDI", 534},
		},
	},
	"EK": {
		name:    "Emirates",
		country: "AE",
		hubs:    []string{"DXB"},
		fleet:   []string{"Airbus A380-800", "Boeing 777-300ER"},
		routes: []route{
			{"DXB", "LHR", 5497},
			{"DXB", "BOM", 1926},
			{"DXB", "JFK", 11001},
			{"DXB", "SYD", 12043},
			{"DXB", "SIN", 5845},
		},
	},
}

// genericAirlines is the smaller table for common carriers without hub data.
var genericAirlines = map[string]airline{
	"AA": {name: "American Airlines", country: "US", fleet: []string{"Boeing 737-800", "Airbus A321", "Boeing 787-9"},
		routes: []route{{"JFK", "LAX", 3974}, {"DFW", "ORD", 1290}, {"MIA", "JFK", 1757}}},
	"DL": {name: "Delta Air Lines", country: "US", fleet: []string{"Airbus A321", "Boeing 757-200", "Airbus A330-900neo"},
		routes: []route{{"ATL", "LAX", 3126}, {"JFK", "ATL", 1222}, {"ATL", "CDG", 7055}}},
	"UA": {name: "United Airlines", country: "US", fleet: []string{"Boeing 737 MAX 9", "Boeing 777-200", "Boeing 787-10"},
		routes: []route{{"ORD", "SFO", 2964}, {"EWR", "LHR", 5563}, {"SFO", "NRT", 8226}}},
	"LH": {name: "Lufthansa", country: "DE", fleet: []string{"Airbus A320neo", "Boeing 747-8", "Airbus A350-900"},
		routes: []route{{"FRA", "JFK", 6189}, {"MUC", "FRA", 299}, {"FRA", "SIN", 10278}}},
	"AF": {name: "Air France", country: "FR", fleet: []string{"Airbus A320", "Boeing 777-300ER", "Airbus A350-900"},
		routes: []route{{"CDG", "JFK", 5833}, {"CDG", "NRT", 9710}, {"CDG", "MAD", 1062}}},
	"SQ": {name: "Singapore Airlines", country: "SG", fleet: []string{"Airbus A350-900", "Airbus A380-800", "Boeing 787-10"},
		routes: []route{{"SIN", "SYD", 6294}, {"SIN", "LHR", 10881}, {"SIN", "HKG", 2564}}},
	"QF": {name: "Qantas", country: "AU", fleet: []string{"Boeing 737-800", "Airbus A330-300", "Boeing 787-9"},
		routes: []route{{"SYD", "MEL", 706}, {"SYD", "LAX", 12061}, {"SYD", "SIN", 6294}}},
	"TK": {name: "Turkish Airlines", country: "TR", fleet: []string{"Airbus A321neo", "Boeing 777-300ER"},
		routes: []route{{"IST", "LHR", 2488}, {"IST", "JFK", 8027}}},
	"QR": {name: "Qatar Airways", country: "QA", fleet: []string{"Boeing 787-8", "Airbus A350-1000"},
		routes: []route{{"DOH", "LHR", 5241}, {"DOH", "SYD", 12375}}},
	"KL": {name: "KLM Royal Dutch Airlines", country: "NL", fleet: []string{"Boeing 737-800", "Boeing 787-10"},
		routes: []route{{"AMS", "JFK", 5848}, {"AMS", "BCN", 1241}}},
}

var (
	lastResortFleet = []string{"Airbus A320", "Boeing 737-800", "Boeing 787-9", "Airbus A350-900"}

	lastResortRoutes = []route{
		{"JFK", "LAX", 3974},
		{"LHR", "CDG", 347},
		{"SIN", "HKG", 2564},
		{"DXB", "DEL", 2183},
		{"FRA", "ORD", 6971},
		{"SYD", "MEL", 706},
	}
)
