package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAirportsCSV = `id,ident,type,name,latitude_deg,longitude_deg,elevation_ft,continent,iso_country,iso_region,municipality,scheduled_service,icao_code,iata_code,gps_code,local_code
2307,EFHK,large_airport,Helsinki Vantaa Airport,60.3172,24.963301,179,EU,FI,FI-18,Helsinki,yes,EFHK,HEL,EFHK,
3622,KJFK,large_airport,"John F Kennedy International Airport, New York",40.639447,-73.779317,13,NA,US,US-NY,New York,YES,KJFK,JFK,KJFK,JFK
2622,ESSA,large_airport,Stockholm-Arlanda Airport,59.651901,17.918600,,EU,SE,SE-AB,Stockholm,no,ESSA,ARN,ESSA,
9999,XXXX,closed,No Code Airport,1.0,2.0,,EU,FI,FI-18,Nowhere,no,XXXX,,XXXX,
9998,YYYY,small_airport,Bad Coordinates,north,2.0,,EU,FI,FI-18,Nowhere,no,YYYY,BAD,YYYY,
`

func mustAirports(t *testing.T) AirportTable {
	t.Helper()
	table, err := ParseAirports(testAirportsCSV)
	require.NoError(t, err)
	return table
}

func TestParseAirports(t *testing.T) {
	table := mustAirports(t)

	require.Len(t, table, 3)
	assert.NotContains(t, table, "")
	assert.NotContains(t, table, "BAD")

	hel := table["HEL"]
	assert.Equal(t, "2307", hel.ID)
	assert.Equal(t, "EFHK", hel.Ident)
	assert.Equal(t, "Helsinki Vantaa Airport", hel.Name)
	assert.Equal(t, Coordinates{Lat: 60.3172, Lon: 24.963301}, hel.Coordinates)
	require.NotNil(t, hel.ElevationFt)
	assert.Equal(t, 179.0, *hel.ElevationFt)
	assert.True(t, hel.ScheduledService)
	assert.Equal(t, "Helsinki, FI", hel.Locality())
	assert.Equal(t, "Helsinki Vantaa Airport (HEL)", hel.DisplayName())

	jfk := table["JFK"]
	assert.Equal(t, "John F Kennedy International Airport, New York", jfk.Name)
	assert.True(t, jfk.ScheduledService)
	assert.Equal(t, "JFK", jfk.LocalCode)

	arn := table["ARN"]
	assert.Nil(t, arn.ElevationFt, "empty elevation is absent, not zero")
	assert.False(t, arn.ScheduledService)
}

func TestParseAirports_LaterDuplicateWins(t *testing.T) {
	text := "iata_code,latitude_deg,longitude_deg,name\nHEL,1,2,Old\nHEL,3,4,New\n"
	table, err := ParseAirports(text)
	require.NoError(t, err)

	require.Len(t, table, 1)
	assert.Equal(t, "New", table["HEL"].Name)
	assert.Equal(t, Coordinates{Lat: 3, Lon: 4}, table["HEL"].Coordinates)
}

func TestParseAirports_MissingColumns(t *testing.T) {
	_, err := ParseAirports("iata_code,name\nHEL,Helsinki\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "latitude_deg")
	assert.Contains(t, err.Error(), "longitude_deg")

	_, err = ParseAirports("")
	require.Error(t, err)
}

func TestParseOptionalFloat(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{"integer", "179", f(179)},
		{"negative decimal", "-73.779317", f(-73.779317)},
		{"zero is data", "0", f(0)},
		{"leading number", "12ft", f(12)},
		{"leading dot", ".5m", f(0.5)},
		{"empty", "", nil},
		{"letters", "north", nil},
		{"nan", "NaN", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseOptionalFloat(tt.input))
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"yes", "YES", "1", "true", "True"} {
		assert.True(t, parseBool(v), v)
	}
	for _, v := range []string{"no", "0", "", "y", "false"} {
		assert.False(t, parseBool(v), v)
	}
}

func TestParseReplacements(t *testing.T) {
	table := ParseReplacements("old,new\nTXL,BER\nSXF, BER \n,XXX\nONLY\n")

	assert.Equal(t, ReplacementTable{"TXL": "BER", "SXF": "BER"}, table)
	assert.Empty(t, ParseReplacements(""))
	assert.Empty(t, ParseReplacements("old,new\n"))
}

func testFlight(code, dep, arr string, departure time.Time) Flight {
	return Flight{
		Airline:                 "Finnair",
		FlightCode:              code,
		DepartureAirport:        dep,
		ArrivalAirport:          arr,
		DepartureTimestampLocal: departure,
		ArrivalTimestampLocal:   departure.Add(3 * time.Hour),
	}
}

func TestBuildVisualizations_EndToEnd(t *testing.T) {
	parsed := ParseFlights(csvText(testFlightsHeader, testFinnairRow))
	require.Equal(t, 1, parsed.SuccessfulRows)

	result := BuildVisualizations(parsed.Flights, mustAirports(t), nil)

	require.Len(t, result.Visualizations, 1)
	assert.Equal(t, 1, result.TotalFlightsParsed)
	assert.Equal(t, []string{"HEL", "JFK"}, result.DistinctAirports.Sorted())
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.UnresolvedAirports)

	v := result.Visualizations[0]
	assert.Equal(t, "HEL", v.DepartureAirport.IATACode)
	assert.Equal(t, "JFK", v.ArrivalAirport.IATACode)
	assert.Equal(t, "AY123", v.FlightCode)
	assert.Equal(t, v.Flight.DepartureTimestampLocal, v.DepartureTimestamp)
}

func TestBuildVisualizations_UnresolvedAirport(t *testing.T) {
	flights := []Flight{testFlight("AY9", "HEL", "ZZZ", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))}
	result := BuildVisualizations(flights, mustAirports(t), ReplacementTable{"TXL": "BER"})

	assert.Empty(t, result.Visualizations)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "ZZZ")
	assert.Contains(t, result.Errors[0], "arrival")
	assert.Contains(t, result.Errors[0], "Finnair AY9")
	assert.True(t, result.UnresolvedAirports.Has("ZZZ"))
	assert.Equal(t, []string{"HEL", "ZZZ"}, result.DistinctAirports.Sorted())
}

func TestBuildVisualizations_BothSidesUnresolved(t *testing.T) {
	flights := []Flight{testFlight("AY9", "QQQ", "ZZZ", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))}
	result := BuildVisualizations(flights, mustAirports(t), nil)

	assert.Empty(t, result.Visualizations)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "departure")
	assert.Contains(t, result.Errors[1], "arrival")
	assert.Equal(t, []string{"QQQ", "ZZZ"}, result.UnresolvedAirports.Sorted())
}

// A flight visualizes if and only if both codes resolve, directly or through
// the replacement table.
func TestBuildVisualizations_ResolutionIff(t *testing.T) {
	airports := mustAirports(t)
	replacements := ReplacementTable{"OLD": "HEL", "DEAD": "GONE"}
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		dep, arr   string
		visualizes bool
	}{
		{"both direct", "HEL", "JFK", true},
		{"departure via replacement", "OLD", "JFK", true},
		{"arrival via replacement", "ARN", "OLD", true},
		{"replacement target missing", "DEAD", "JFK", false},
		{"departure unknown", "ZZZ", "JFK", false},
		{"arrival unknown", "HEL", "ZZZ", false},
		{"both unknown", "YYY", "ZZZ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildVisualizations([]Flight{testFlight("AY1", tt.dep, tt.arr, at)}, airports, replacements)
			if tt.visualizes {
				require.Len(t, result.Visualizations, 1)
				assert.Empty(t, result.Errors)
				assert.Empty(t, result.UnresolvedAirports)
			} else {
				assert.Empty(t, result.Visualizations)
				assert.NotEmpty(t, result.Errors)
				assert.NotEmpty(t, result.UnresolvedAirports)
			}
		})
	}
}

func TestBuildVisualizations_ReplacementResolvesToTarget(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	result := BuildVisualizations([]Flight{testFlight("AY1", "OLD", "JFK", at)}, mustAirports(t), ReplacementTable{"OLD": "HEL"})

	require.Len(t, result.Visualizations, 1)
	assert.Equal(t, "HEL", result.Visualizations[0].DepartureAirport.IATACode)
	assert.Equal(t, "OLD", result.Visualizations[0].Flight.DepartureAirport)
	assert.True(t, result.DistinctAirports.Has("OLD"))
}

func TestBuildVisualizations_PreservesOrder(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	flights := []Flight{
		testFlight("AY3", "HEL", "JFK", at.Add(2*time.Hour)),
		testFlight("AY1", "JFK", "ZZZ", at),
		testFlight("AY2", "ARN", "HEL", at.Add(time.Hour)),
	}
	result := BuildVisualizations(flights, mustAirports(t), nil)

	require.Len(t, result.Visualizations, 2)
	assert.Equal(t, "AY3", result.Visualizations[0].FlightCode)
	assert.Equal(t, "AY2", result.Visualizations[1].FlightCode)
}

func TestFilterByYearAndYears(t *testing.T) {
	airports := mustAirports(t)
	flights := []Flight{
		testFlight("AY1", "HEL", "JFK", time.Date(2019, 7, 28, 20, 20, 0, 0, time.UTC)),
		testFlight("AY2", "JFK", "HEL", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		testFlight("AY3", "HEL", "ARN", time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)),
	}
	vis := BuildVisualizations(flights, airports, nil).Visualizations

	year := 2024
	filtered := FilterByYear(vis, &year)
	require.Len(t, filtered, 2)
	assert.Equal(t, "AY2", filtered[0].FlightCode)
	assert.Equal(t, "AY3", filtered[1].FlightCode)

	assert.Len(t, FilterByYear(vis, nil), 3)

	assert.Equal(t, []YearCount{{Year: 2019, Flights: 1}, {Year: 2024, Flights: 2}}, Years(vis))
}

func TestRouteKey(t *testing.T) {
	assert.Equal(t, "HEL-JFK", RouteKey("HEL", "JFK"))
	assert.Equal(t, "HEL-JFK", RouteKey("JFK", "HEL"))
	assert.Equal(t, "HEL-HEL", RouteKey("HEL", "HEL"))
}

func TestCodeSet_MarshalJSON(t *testing.T) {
	s := CodeSet{}
	s.Add("JFK")
	s.Add("HEL")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["HEL","JFK"]`, string(data))

	var back CodeSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}
