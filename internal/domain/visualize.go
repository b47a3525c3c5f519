package domain

import (
	"fmt"
	"sort"
)

// BuildVisualizations joins flights with the airport table. A code missing
// from the table is retried through replacements (which may be nil). A flight
// is visualized only when both airports resolve; each unresolved side adds
// one error and its code to UnresolvedAirports. Input order is preserved.
func BuildVisualizations(flights []Flight, airports AirportTable, replacements ReplacementTable) VisualizationResult {
	result := VisualizationResult{
		Visualizations:     make([]FlightVisualization, 0, len(flights)),
		TotalFlightsParsed: len(flights),
		DistinctAirports:   make(CodeSet),
		UnresolvedAirports: make(CodeSet),
	}

	for _, f := range flights {
		result.DistinctAirports.Add(f.DepartureAirport)
		result.DistinctAirports.Add(f.ArrivalAirport)

		dep, depOK := ResolveAirport(f.DepartureAirport, airports, replacements)
		if !depOK {
			result.UnresolvedAirports.Add(f.DepartureAirport)
			result.Errors = append(result.Errors, unresolvedMessage(f, "departure", f.DepartureAirport))
		}
		arr, arrOK := ResolveAirport(f.ArrivalAirport, airports, replacements)
		if !arrOK {
			result.UnresolvedAirports.Add(f.ArrivalAirport)
			result.Errors = append(result.Errors, unresolvedMessage(f, "arrival", f.ArrivalAirport))
		}
		if !depOK || !arrOK {
			continue
		}

		result.Visualizations = append(result.Visualizations, FlightVisualization{
			Flight:             f,
			DepartureAirport:   dep,
			ArrivalAirport:     arr,
			Airline:            f.Airline,
			FlightCode:         f.FlightCode,
			DepartureTimestamp: f.DepartureTimestampLocal,
			ArrivalTimestamp:   f.ArrivalTimestampLocal,
		})
	}
	return result
}

// ResolveAirport looks code up directly, then via its replacement if any.
func ResolveAirport(code string, airports AirportTable, replacements ReplacementTable) (Airport, bool) {
	if a, ok := airports[code]; ok {
		return a, true
	}
	if target, ok := replacements[code]; ok {
		if a, ok := airports[target]; ok {
			return a, true
		}
	}
	return Airport{}, false
}

func unresolvedMessage(f Flight, side, code string) string {
	return fmt.Sprintf("Flight %s %s: %s airport %q not found in airport data", f.Airline, f.FlightCode, side, code)
}

// FilterByYear keeps visualizations departing in the given calendar year.
// A nil year keeps everything. The returned slice is always a fresh copy.
func FilterByYear(vis []FlightVisualization, year *int) []FlightVisualization {
	out := make([]FlightVisualization, 0, len(vis))
	for _, v := range vis {
		if year == nil || v.DepartureTimestamp.Year() == *year {
			out = append(out, v)
		}
	}
	return out
}

// YearCount is the number of visualized flights departing in Year.
type YearCount struct {
	Year    int `json:"year"`
	Flights int `json:"flights"`
}

// Years lists the distinct departure years, ascending, with flight counts.
func Years(vis []FlightVisualization) []YearCount {
	counts := make(map[int]int)
	for _, v := range vis {
		counts[v.DepartureTimestamp.Year()]++
	}
	out := make([]YearCount, 0, len(counts))
	for y, n := range counts {
		out = append(out, YearCount{Year: y, Flights: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
