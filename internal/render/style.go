package render

import "math"

// Zoom styling constants.
const (
	baseZoom     = 4.0
	baseWeight   = 2.0
	weightGrowth = 1.4
	minWeight    = 0.5
	maxWeight    = 8.0

	markerDiameter    = 16.0
	minMarkerDiameter = 10.0
	minMarkerZoom     = 2.0

	// expandedScale enlarges a hovered or selected marker.
	expandedScale = 1.5
)

// LineWeight grows route thickness by 1.4x per zoom level from weight 2 at
// zoom 4, clamped to [0.5, 8].
func LineWeight(zoom float64) float64 {
	w := baseWeight * math.Pow(weightGrowth, zoom-baseZoom)
	return math.Max(minWeight, math.Min(maxWeight, w))
}

// MarkerDiameter is 16px from zoom 4 up, shrinking linearly to 10px at zoom 2.
func MarkerDiameter(zoom float64) float64 {
	switch {
	case zoom >= baseZoom:
		return markerDiameter
	case zoom <= minMarkerZoom:
		return minMarkerDiameter
	default:
		frac := (zoom - minMarkerZoom) / (baseZoom - minMarkerZoom)
		return minMarkerDiameter + frac*(markerDiameter-minMarkerDiameter)
	}
}
