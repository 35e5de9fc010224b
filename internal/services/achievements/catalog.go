package achievements

import "github.com/BearBump/FlightBox/internal/models"

func a(id, name, desc, category string, rarity models.Rarity, xp int, ct models.ConditionType, target float64) models.Achievement {
	return models.Achievement{
		ID: id, Name: name, Description: desc, Category: category, Rarity: rarity, XP: xp,
		Condition: models.Condition{Type: ct, Target: target},
	}
}

// catalog order is the order new achievements are reported in.
var catalog = []models.Achievement{
	a("first_flight", "First Flight", "Log your first flight", "milestones", models.RarityCommon, 50, models.CondTotalFlights, 1),
	a("frequent_flyer", "Frequent Flyer", "Log 10 flights", "milestones", models.RarityCommon, 100, models.CondTotalFlights, 10),
	a("road_warrior", "Road Warrior", "Log 50 flights", "milestones", models.RarityRare, 300, models.CondTotalFlights, 50),
	a("sky_legend", "Sky Legend", "Log 100 flights", "milestones", models.RarityEpic, 500, models.CondTotalFlights, 100),

	a("miles_1k", "Getting Started", "Fly 1,000 miles", "distance", models.RarityCommon, 50, models.CondTotalMiles, 1_000),
	a("miles_10k", "Mile Collector", "Fly 10,000 miles", "distance", models.RarityUncommon, 150, models.CondTotalMiles, 10_000),
	a("miles_100k", "Elite Mileage", "Fly 100,000 miles", "distance", models.RarityEpic, 500, models.CondTotalMiles, 100_000),
	a("around_the_world", "Circumnavigator", "Fly the length of the equator (40,075 km)", "distance", models.RarityRare, 400, models.CondTotalKm, 40_075),
	a("to_the_moon", "To the Moon", "Fly the distance to the Moon (384,400 km)", "distance", models.RarityLegendary, 1000, models.CondTotalKm, 384_400),
	a("long_hauler", "Long Hauler", "Fly a long-haul flight (4,000 km or more)", "distance", models.RarityUncommon, 100, models.CondLongHaulFlights, 1),
	a("marathon_flyer", "Marathon Flyer", "Fly 10 long-haul flights", "distance", models.RarityRare, 300, models.CondLongHaulFlights, 10),
	a("ultra_long_haul", "Ultra Long Haul", "Fly a single flight of 12,000 km or more", "distance", models.RarityEpic, 250, models.CondLongestFlightKm, 12_000),
	a("sky_time", "Day in the Sky", "Spend 24 hours in the air", "distance", models.RarityUncommon, 100, models.CondTotalHours, 24),
	a("hundred_hours", "Centurion", "Spend 100 hours in the air", "distance", models.RarityRare, 300, models.CondTotalHours, 100),

	a("airport_hopper", "Airport Hopper", "Visit 5 airports", "exploration", models.RarityCommon, 75, models.CondAirports, 5),
	a("airport_collector", "Airport Collector", "Visit 25 airports", "exploration", models.RarityRare, 200, models.CondAirports, 25),
	a("globetrotter", "Globetrotter", "Visit 5 countries", "exploration", models.RarityUncommon, 150, models.CondCountries, 5),
	a("world_citizen", "World Citizen", "Visit 20 countries", "exploration", models.RarityEpic, 400, models.CondCountries, 20),
	a("continental", "Continental", "Visit 3 continents", "exploration", models.RarityUncommon, 150, models.CondContinents, 3),
	a("all_continents", "Six Continents", "Visit 6 continents", "exploration", models.RarityLegendary, 600, models.CondContinents, 6),
	a("international_debut", "Passport Stamp", "Take your first international flight", "exploration", models.RarityCommon, 50, models.CondInternationalFlights, 1),
	a("border_crosser", "Border Crosser", "Take 10 international flights", "exploration", models.RarityRare, 200, models.CondInternationalFlights, 10),
	a("home_grown", "Home Grown", "Take 10 domestic flights", "exploration", models.RarityUncommon, 100, models.CondDomesticFlights, 10),

	a("airline_explorer", "Airline Explorer", "Fly with 5 airlines", "airlines", models.RarityUncommon, 100, models.CondAirlines, 5),
	a("airline_connoisseur", "Airline Connoisseur", "Fly with 15 airlines", "airlines", models.RarityRare, 250, models.CondAirlines, 15),
	a("aircraft_spotter", "Aircraft Spotter", "Fly on 5 aircraft types", "aircraft", models.RarityUncommon, 100, models.CondAircraftTypes, 5),
	a("fleet_expert", "Fleet Expert", "Fly on 15 aircraft types", "aircraft", models.RarityEpic, 300, models.CondAircraftTypes, 15),

	a("business_class", "Business Traveler", "Fly business class", "comfort", models.RarityUncommon, 75, models.CondBusinessFlights, 1),
	a("first_class", "First Class", "Fly first class", "comfort", models.RarityRare, 150, models.CondFirstClassFlights, 1),
	a("night_owl", "Night Owl", "Take 5 night flights", "lifestyle", models.RarityUncommon, 100, models.CondNightFlights, 5),
	a("weekend_warrior", "Weekend Warrior", "Fly on 5 weekends", "lifestyle", models.RarityUncommon, 100, models.CondWeekendFlights, 5),
}

// Catalog returns a copy, so callers cannot mutate the shared table.
func Catalog() []models.Achievement {
	out := make([]models.Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalog entry by id.
func Lookup(id string) (models.Achievement, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return models.Achievement{}, false
}
