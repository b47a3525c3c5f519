package render

import (
	"sync"

	"github.com/couchcryptid/flight-map-service/internal/domain"
)

// Options configures a Renderer.
type Options struct {
	GeodesicPoints int // interpolation steps per route path
	PathCacheSize  int
	MapWidth       int
	MapHeight      int
}

// DefaultOptions matches the service configuration defaults.
func DefaultOptions() Options {
	return Options{GeodesicPoints: 100, PathCacheSize: 2048, MapWidth: 1280, MapHeight: 720}
}

// Renderer draws flight visualizations into its Scene: frequency-colored
// airport markers and deduplicated, gradient-colored great-circle routes.
type Renderer struct {
	scene *Scene
	paths *PathCache
	opts  Options

	mu   sync.RWMutex
	zoom float64
}

// NewRenderer creates a renderer with an empty scene.
func NewRenderer(opts Options) *Renderer {
	if opts.GeodesicPoints < SegmentCount {
		opts.GeodesicPoints = SegmentCount
	}
	return &Renderer{
		scene: NewScene(),
		paths: NewPathCache(opts.GeodesicPoints, opts.PathCacheSize),
		opts:  opts,
		zoom:  DefaultViewport.Zoom,
	}
}

// Scene exposes the scene the renderer draws into.
func (r *Renderer) Scene() *Scene { return r.scene }

// Zoom returns the current zoom level.
func (r *Renderer) Zoom() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.zoom
}

// SetZoom records a zoom change and restyles the drawn shapes in place.
func (r *Renderer) SetZoom(zoom float64) {
	r.mu.Lock()
	r.zoom = zoom
	r.mu.Unlock()

	r.scene.Restyle(LineWeight(zoom), MarkerDiameter(zoom))
	vp := r.scene.Viewport()
	vp.Zoom = zoom
	r.scene.SetViewport(vp)
}

// Clear empties the scene.
func (r *Renderer) Clear() { r.scene.Clear() }

// Render rebuilds the static scene: clears it, draws one marker per airport
// and one route per airport pair, then fits the view to the airports (or
// resets to the default view when vis is empty).
func (r *Renderer) Render(vis []domain.FlightVisualization) Viewport {
	r.scene.Clear()

	palette := NewPalette(vis)
	vp := r.fit(vis)
	r.mu.Lock()
	r.zoom = vp.Zoom
	r.mu.Unlock()

	for _, a := range airportsInOrder(vis) {
		r.scene.AddMarker(r.NewMarker(a, palette))
	}
	for _, g := range GroupRoutes(vis) {
		dep, arr := g.First.DepartureAirport, g.First.ArrivalAirport
		r.scene.AddRoute(Route{
			Key:      g.Key,
			From:     dep.IATACode,
			To:       arr.IATACode,
			Segments: r.RouteSegments(dep, arr, palette),
			Popup:    g.Popup(),
		})
	}

	r.scene.SetViewport(vp)
	return vp
}

func (r *Renderer) fit(vis []domain.FlightVisualization) Viewport {
	airports := airportsInOrder(vis)
	points := make([]domain.Coordinates, len(airports))
	for i, a := range airports {
		points[i] = a.Coordinates
	}
	return FitBounds(points, r.opts.MapWidth, r.opts.MapHeight)
}

// NewMarker styles an airport marker for the current zoom.
func (r *Renderer) NewMarker(a domain.Airport, palette Palette) Marker {
	return Marker{
		Code:     a.IATACode,
		Position: a.Coordinates,
		Color:    palette.ColorOf(a.IATACode),
		Diameter: MarkerDiameter(r.Zoom()),
		Popup: AirportPopup{
			Title:    a.DisplayName(),
			Locality: a.Locality(),
			Flights:  palette.Counts[a.IATACode],
		},
	}
}

// RouteSegments cuts the dep→arr great circle into colored segments. Segment
// i is colored by interpolating from dep's color to arr's color at
// i/(n-1); segment PopupSegment owns the popup.
func (r *Renderer) RouteSegments(dep, arr domain.Airport, palette Palette) []Segment {
	runs := r.paths.Segments(dep, arr)
	if len(runs) == 0 {
		return nil
	}
	from, to := palette.ColorOf(dep.IATACode), palette.ColorOf(arr.IATACode)
	weight := LineWeight(r.Zoom())
	owner := min(PopupSegment, len(runs)-1)

	segs := make([]Segment, len(runs))
	for i, pts := range runs {
		segs[i] = Segment{
			Index:     i,
			Points:    pts,
			Color:     Interpolate(from, to, GradientRatio(i, len(runs))),
			Weight:    weight,
			OwnsPopup: i == owner,
		}
	}
	return segs
}

// airportsInOrder lists each resolved airport once, in first-seen order
// (departure before arrival).
func airportsInOrder(vis []domain.FlightVisualization) []domain.Airport {
	seen := make(map[string]bool)
	var out []domain.Airport
	for _, v := range vis {
		for _, a := range []domain.Airport{v.DepartureAirport, v.ArrivalAirport} {
			if seen[a.IATACode] {
				continue
			}
			seen[a.IATACode] = true
			out = append(out, a)
		}
	}
	return out
}
