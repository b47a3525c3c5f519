package render

import (
	"math"

	"github.com/couchcryptid/flight-map-service/internal/domain"
)

// Bounds is a lat/lon box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Viewport is the visible map region.
type Viewport struct {
	Center domain.Coordinates `json:"center"`
	Zoom   float64            `json:"zoom"`
	Bounds *Bounds            `json:"bounds,omitempty"`
}

// DefaultViewport is the regional view shown when there is nothing to fit.
var DefaultViewport = Viewport{
	Center: domain.Coordinates{Lat: 50, Lon: 10},
	Zoom:   4,
}

const (
	tileSize   = 256.0
	fitPadding = 50.0 // pixels on each side
	fitMinZoom = 1.0
	fitMaxZoom = 4.0 // never auto-zoom in past this
)

// FitBounds computes the view that shows every point on a map of the given
// pixel size with padding. The zoom is an integer level in [1, 4]. With no
// points it returns DefaultViewport.
func FitBounds(points []domain.Coordinates, width, height int) Viewport {
	if len(points) == 0 {
		return DefaultViewport
	}

	b := Bounds{South: 90, West: 180, North: -90, East: -180}
	for _, p := range points {
		b.South = math.Min(b.South, p.Lat)
		b.North = math.Max(b.North, p.Lat)
		b.West = math.Min(b.West, p.Lon)
		b.East = math.Max(b.East, p.Lon)
	}

	center := domain.Coordinates{
		Lat: mercatorLat((mercatorY(b.South) + mercatorY(b.North)) / 2),
		Lon: (b.West + b.East) / 2,
	}
	return Viewport{Center: center, Zoom: boundsZoom(b, width, height), Bounds: &b}
}

// boundsZoom finds the largest integer zoom at which b fits inside the padded
// map, using Web Mercator world size 256*2^zoom pixels.
func boundsZoom(b Bounds, width, height int) float64 {
	w := float64(width) - 2*fitPadding
	h := float64(height) - 2*fitPadding
	if w <= 0 || h <= 0 {
		return fitMinZoom
	}

	dx := (b.East - b.West) / 360
	dy := math.Abs(mercatorY(b.North) - mercatorY(b.South))

	zoom := fitMaxZoom
	if dx > 0 {
		zoom = math.Min(zoom, math.Log2(w/(dx*tileSize)))
	}
	if dy > 0 {
		zoom = math.Min(zoom, math.Log2(h/(dy*tileSize)))
	}
	zoom = math.Floor(zoom)
	return math.Max(fitMinZoom, math.Min(fitMaxZoom, zoom))
}

// mercatorY maps latitude to [0, 1] world units, 0 at the top.
func mercatorY(lat float64) float64 {
	lat = math.Max(-85.0511, math.Min(85.0511, lat))
	rad := lat * math.Pi / 180
	return (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2
}

func mercatorLat(y float64) float64 {
	n := math.Pi * (1 - 2*y)
	return math.Atan(math.Sinh(n)) * 180 / math.Pi
}
