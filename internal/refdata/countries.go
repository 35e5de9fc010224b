package refdata

import "strings"

// UnknownContinent is returned for countries missing from the table.
const UnknownContinent = "XX"

var continentByCountry = map[string]string{
	// Asia
	"IN": "AS", "AE": "AS", "QA": "AS", "SA": "AS", "OM": "AS", "BH": "AS", "KW": "AS",
	"IL": "AS", "JO": "AS", "SG": "AS", "HK": "AS", "JP": "AS", "KR": "AS", "CN": "AS",
	"TW": "AS", "TH": "AS", "MY": "AS", "ID": "AS", "PH": "AS", "VN": "AS", "LK": "AS",
	"NP": "AS", "BD": "AS", "PK": "AS", "MV": "AS", "KH": "AS", "KZ": "AS", "UZ": "AS",
	// Europe (TR and RU are filed under Europe)
	"GB": "EU", "FR": "EU", "DE": "EU", "NL": "EU", "ES": "EU", "IT": "EU", "CH": "EU",
	"AT": "EU", "DK": "EU", "IE": "EU", "PT": "EU", "FI": "EU", "SE": "EU", "NO": "EU",
	"BE": "EU", "PL": "EU", "CZ": "EU", "GR": "EU", "HU": "EU", "RO": "EU", "IS": "EU",
	"TR": "EU", "RU": "EU", "UA": "EU", "HR": "EU", "LU": "EU",
	// North America
	"US": "NA", "CA": "NA", "MX": "NA", "CU": "NA", "JM": "NA", "PA": "NA", "CR": "NA",
	"DO": "NA", "BS": "NA",
	// South America
	"BR": "SA", "AR": "SA", "CL": "SA", "CO": "SA", "PE": "SA", "EC": "SA", "UY": "SA",
	"VE": "SA", "BO": "SA", "PY": "SA",
	// Oceania
	"AU": "OC", "NZ": "OC", "FJ": "OC", "PG": "OC",
	// Africa
	"ZA": "AF", "EG": "AF", "KE": "AF", "ET": "AF", "NG": "AF", "MA": "AF", "TZ": "AF",
	"GH": "AF", "TN": "AF", "MU": "AF", "SN": "AF",
	// Antarctica
	"AQ": "AN",
}

// ContinentOf never fails: unmapped countries land in the UnknownContinent bucket.
func ContinentOf(country string) string {
	if c, ok := continentByCountry[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return c
	}
	return UnknownContinent
}
