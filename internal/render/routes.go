package render

import "github.com/couchcryptid/flight-map-service/internal/domain"

// RouteGroup gathers every flight on one airport pair. First fixes the drawn
// direction; Outbound holds flights in that direction (First included) and
// Return the flights going the other way.
type RouteGroup struct {
	Key      string
	First    domain.FlightVisualization
	Outbound []domain.FlightVisualization
	Return   []domain.FlightVisualization
}

// GroupRoutes groups visualizations by direction-independent route key, in
// order of first appearance.
func GroupRoutes(vis []domain.FlightVisualization) []RouteGroup {
	index := make(map[string]int)
	var groups []RouteGroup

	for _, v := range vis {
		dep, arr := v.DepartureAirport.IATACode, v.ArrivalAirport.IATACode
		key := domain.RouteKey(dep, arr)

		i, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, RouteGroup{Key: key, First: v, Outbound: []domain.FlightVisualization{v}})
			continue
		}
		g := &groups[i]
		if dep == g.First.DepartureAirport.IATACode {
			g.Outbound = append(g.Outbound, v)
		} else {
			g.Return = append(g.Return, v)
		}
	}
	return groups
}

// Popup builds the shared popup content for the group.
func (g RouteGroup) Popup() *RoutePopup {
	dep, arr := g.First.DepartureAirport, g.First.ArrivalAirport
	return &RoutePopup{
		From:       dep.DisplayName(),
		To:         arr.DisplayName(),
		DistanceKm: GreatCircleDistanceKm(dep.Coordinates, arr.Coordinates),
		Outbound:   summarize(g.Outbound),
		Return:     summarize(g.Return),
	}
}

func summarize(vis []domain.FlightVisualization) []FlightSummary {
	if len(vis) == 0 {
		return nil
	}
	out := make([]FlightSummary, len(vis))
	for i, v := range vis {
		out[i] = FlightSummary{
			Airline:    v.Airline,
			FlightCode: v.FlightCode,
			Departure:  v.DepartureTimestamp,
			Arrival:    v.ArrivalTimestamp,
		}
	}
	return out
}
