package domain

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Flight is one validated row of an uploaded flights CSV.
type Flight struct {
	Airline                 string    `json:"airline"`
	FlightCode              string    `json:"flight_code"`
	DepartureAirport        string    `json:"departure_airport"`
	ArrivalAirport          string    `json:"arrival_airport"`
	DepartureTimestampLocal time.Time `json:"departure_timestamp_local"`
	ArrivalTimestampLocal   time.Time `json:"arrival_timestamp_local"`
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Airport is one entry of the reference table, keyed by IATA code.
type Airport struct {
	ID               string      `json:"id,omitempty"`
	Ident            string      `json:"ident,omitempty"`
	Type             string      `json:"type,omitempty"`
	Name             string      `json:"name,omitempty"`
	Coordinates      Coordinates `json:"coordinates"`
	ElevationFt      *float64    `json:"elevation_ft,omitempty"`
	Continent        string      `json:"continent,omitempty"`
	Country          string      `json:"iso_country,omitempty"`
	Region           string      `json:"iso_region,omitempty"`
	Municipality     string      `json:"municipality,omitempty"`
	ScheduledService bool        `json:"scheduled_service"`
	ICAOCode         string      `json:"icao_code,omitempty"`
	IATACode         string      `json:"iata_code"`
	GPSCode          string      `json:"gps_code,omitempty"`
	LocalCode        string      `json:"local_code,omitempty"`
}

// DisplayName is the airport name followed by its IATA code, e.g.
// "Helsinki Vantaa Airport (HEL)". Falls back to the code alone.
func (a Airport) DisplayName() string {
	if a.Name == "" {
		return a.IATACode
	}
	return a.Name + " (" + a.IATACode + ")"
}

// Locality joins municipality and country, skipping whichever is empty.
func (a Airport) Locality() string {
	parts := make([]string, 0, 2)
	if a.Municipality != "" {
		parts = append(parts, a.Municipality)
	}
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}

// AirportTable maps IATA code to airport. Read-only after load.
type AirportTable map[string]Airport

// ReplacementTable maps a retired IATA code to its current code.
type ReplacementTable map[string]string

// FlightVisualization joins a flight with both of its resolved airports.
type FlightVisualization struct {
	Flight           Flight  `json:"flight"`
	DepartureAirport Airport `json:"departure_airport"`
	ArrivalAirport   Airport `json:"arrival_airport"`
	// Denormalized for rendering.
	Airline            string    `json:"airline"`
	FlightCode         string    `json:"flight_code"`
	DepartureTimestamp time.Time `json:"departure_timestamp"`
	ArrivalTimestamp   time.Time `json:"arrival_timestamp"`
}

// ParseResult is the outcome of parsing one uploaded flights CSV.
type ParseResult struct {
	Flights        []Flight `json:"flights"`
	Errors         []string `json:"errors"`
	TotalRows      int      `json:"total_rows"`
	SuccessfulRows int      `json:"successful_rows"`
	FailedRows     int      `json:"failed_rows"`
}

// VisualizationResult is the outcome of joining parsed flights with airports.
type VisualizationResult struct {
	Visualizations     []FlightVisualization `json:"visualizations"`
	TotalFlightsParsed int                   `json:"total_flights_parsed"`
	DistinctAirports   CodeSet               `json:"distinct_airports"`
	Errors             []string              `json:"errors"`
	UnresolvedAirports CodeSet               `json:"unresolved_airports"`
}

// CodeSet is a set of airport codes. It marshals as a sorted JSON array.
type CodeSet map[string]struct{}

func (s CodeSet) Add(code string) { s[code] = struct{}{} }

func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the members in lexicographic order.
func (s CodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (s CodeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *CodeSet) UnmarshalJSON(b []byte) error {
	var codes []string
	if err := json.Unmarshal(b, &codes); err != nil {
		return err
	}
	*s = make(CodeSet, len(codes))
	for _, c := range codes {
		s.Add(c)
	}
	return nil
}

// RouteKey identifies an airport pair regardless of direction: the two codes
// sorted lexicographically and joined with "-".
func RouteKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}
