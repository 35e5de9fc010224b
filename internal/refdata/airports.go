// Package refdata holds static reference tables. They are built once at init
// and only read afterwards, so lookups need no locking.
package refdata

import "strings"

type Airport struct {
	IATA    string
	ICAO    string
	Name    string
	City    string
	Country string
	Lat     float64
	Lon     float64
}

var airports = []Airport{
	// India
	{"BOM", "VABB", "Chhatrapati Shivaji Maharaj International", "Mumbai", "IN", 19.0896, 72.8656},
	{"BLR", "VOBL", "Kempegowda International", "Bengaluru", "IN", 13.1986, 77.7066},
	{"DEL", "VIDP", "Indira Gandhi International", "Delhi", "IN", 28.5562, 77.1000},
	{"MAA", "VOMM", "Chennai International", "Chennai", "IN", 12.9941, 80.1709},
	{"CCU", "VECC", "Netaji Subhas Chandra Bose International", "Kolkata", "IN", 22.6547, 88.4467},
	{"HYD", "VOHS", "Rajiv Gandhi International", "Hyderabad", "IN", 17.2403, 78.4294},
	{"AMD", "VAAH", "Sardar Vallabhbhai Patel International", "Ahmedabad", "IN", 23.0772, 72.6347},
	{"COK", "VOCI", "Cochin International", "Kochi", "IN", 10.1520, 76.4019},
	{"GOI", "VOGO", "Goa International", "Goa", "IN", 15.3808, 73.8314},
	{"PNQ", "VAPO", "Pune Airport", "Pune", "IN", 18.5821, 73.9197},
	{"LKO", "VILK", "Chaudhary Charan Singh International", "Lucknow", "IN", 26.7606, 80.8893},
	{"GAU", "VEGT", "Lokpriya Gopinath Bordoloi International", "Guwahati", "IN", 26.1061, 91.5859},

	// Middle East
	{"DXB", "OMDB", "Dubai International", "Dubai", "AE", 25.2532, 55.3657},
	{"AUH", "OMAA", "Zayed International", "Abu Dhabi", "AE", 24.4330, 54.6511},
	{"DOH", "OTHH", "Hamad International", "Doha", "QA", 25.2731, 51.6081},
	{"IST", "LTFM", "Istanbul Airport", "Istanbul", "TR", 41.2753, 28.7519},

	// Europe
	{"LHR", "EGLL", "Heathrow", "London", "GB", 51.4700, -0.4543},
	{"LGW", "EGKK", "Gatwick", "London", "GB", 51.1537, -0.1821},
	{"MAN", "EGCC", "Manchester Airport", "Manchester", "GB", 53.3650, -2.2728},
	{"EDI", "EGPH", "Edinburgh Airport", "Edinburgh", "GB", 55.9500, -3.3725},
	{"CDG", "LFPG", "Charles de Gaulle", "Paris", "FR", 49.0097, 2.5479},
	{"ORY", "LFPO", "Orly", "Paris", "FR", 48.7262, 2.3652},
	{"FRA", "EDDF", "Frankfurt am Main", "Frankfurt", "DE", 50.0379, 8.5622},
	{"MUC", "EDDM", "Munich Airport", "Munich", "DE", 48.3537, 11.7750},
	{"AMS", "EHAM", "Schiphol", "Amsterdam", "NL", 52.3105, 4.7683},
	{"MAD", "LEMD", "Adolfo Suarez Madrid-Barajas", "Madrid", "ES", 40.4983, -3.5676},
	{"BCN", "LEBL", "Josep Tarradellas Barcelona-El Prat", "Barcelona", "ES", 41.2974, 2.0833},
	{"FCO", "LIRF", "Leonardo da Vinci-Fiumicino", "Rome", "IT", 41.8003, 12.2389},
	{"ZRH", "LSZH", "Zurich Airport", "Zurich", "CH", 47.4582, 8.5555},
	{"VIE", "LOWW", "Vienna International", "Vienna", "AT", 48.1103, 16.5697},
	{"CPH", "EKCH", "Copenhagen Airport", "Copenhagen", "DK", 55.6180, 12.6508},
	{"DUB", "EIDW", "Dublin Airport", "Dublin", "IE", 53.4213, -6.2701},
	{"LIS", "LPPT", "Humberto Delgado", "Lisbon", "PT", 38.7742, -9.1342},
	{"HEL", "EFHK", "Helsinki-Vantaa", "Helsinki", "FI", 60.3172, 24.9633},

	// Americas
	{"JFK", "KJFK", "John F. Kennedy International", "New York", "US", 40.6413, -73.7781},
	{"EWR", "KEWR", "Newark Liberty International", "Newark", "US", 40.6895, -74.1745},
	{"BOS", "KBOS", "Logan International", "Boston", "US", 42.3656, -71.0096},
	{"ORD", "KORD", "O'Hare International", "Chicago", "US", 41.9742, -87.9073},
	{"ATL", "KATL", "Hartsfield-Jackson Atlanta International", "Atlanta", "US", 33.6407, -84.4277},
	{"DFW", "KDFW", "Dallas/Fort Worth International", "Dallas", "US", 32.8998, -97.0403},
	{"DEN", "KDEN", "Denver International", "Denver", "US", 39.8561, -104.6737},
	{"LAX", "KLAX", "Los Angeles International", "Los Angeles", "US", 33.9416, -118.4085},
	{"SFO", "KSFO", "San Francisco International", "San Francisco", "US", 37.6213, -122.3790},
	{"SEA", "KSEA", "Seattle-Tacoma International", "Seattle", "US", 47.4502, -122.3088},
	{"MIA", "KMIA", "Miami International", "Miami", "US", 25.7959, -80.2870},
	{"YYZ", "CYYZ", "Toronto Pearson International", "Toronto", "CA", 43.6777, -79.6248},
	{"YVR", "CYVR", "Vancouver International", "Vancouver", "CA", 49.1967, -123.1815},
	{"MEX", "MMMX", "Mexico City International", "Mexico City", "MX", 19.4361, -99.0719},
	{"GRU", "SBGR", "Sao Paulo/Guarulhos International", "Sao Paulo", "BR", -23.4356, -46.4731},
	{"EZE", "SAEZ", "Ministro Pistarini International", "Buenos Aires", "AR", -34.8222, -58.5358},

	// Asia-Pacific
	{"SIN", "WSSS", "Changi", "Singapore", "SG", 1.3644, 103.9915},
	{"HKG", "VHHH", "Hong Kong International", "Hong Kong", "HK", 22.3080, 113.9185},
	{"NRT", "RJAA", "Narita International", "Tokyo", "JP", 35.7720, 140.3929},
	{"HND", "RJTT", "Haneda", "Tokyo", "JP", 35.5494, 139.7798},
	{"ICN", "RKSI", "Incheon International", "Seoul", "KR", 37.4602, 126.4407},
	{"PEK", "ZBAA", "Beijing Capital International", "Beijing", "CN", 40.0799, 116.6031},
	{"PVG", "ZSPD", "Shanghai Pudong International", "Shanghai", "CN", 31.1443, 121.8083},
	{"BKK", "VTBS", "Suvarnabhumi", "Bangkok", "TH", 13.6900, 100.7501},
	{"KUL", "WMKK", "Kuala Lumpur International", "Kuala Lumpur", "MY", 2.7456, 101.7099},
	{"SYD", "YSSY", "Sydney Kingsford Smith", "Sydney", "AU", -33.9399, 151.1753},
	{"MEL", "YMML", "Melbourne Airport", "Melbourne", "AU", -37.6690, 144.8410},
	{"AKL", "NZAA", "Auckland Airport", "Auckland", "NZ", -37.0082, 174.7850},

	// Africa
	{"JNB", "FAOR", "O. R. Tambo International", "Johannesburg", "ZA", -26.1392, 28.2460},
	{"CPT", "FACT", "Cape Town International", "Cape Town", "ZA", -33.9715, 18.6021},
	{"CAI", "HECA", "Cairo International", "Cairo", "EG", 30.1219, 31.4056},
	{"NBO", "HKJK", "Jomo Kenyatta International", "Nairobi", "KE", -1.3192, 36.9278},
}

var (
	airportByIATA = make(map[string]*Airport, len(airports))
	airportByICAO = make(map[string]*Airport, len(airports))
)

func init() {
	for i := range airports {
		a := &airports[i]
		airportByIATA[a.IATA] = a
		airportByICAO[a.ICAO] = a
	}
}

// LookupAirport accepts an IATA (3 letters) or ICAO (4 letters) code.
func LookupAirport(code string) (Airport, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var a *Airport
	switch len(code) {
	case 3:
		a = airportByIATA[code]
	case 4:
		a = airportByICAO[code]
	}
	if a == nil {
		return Airport{}, false
	}
	return *a, true
}
