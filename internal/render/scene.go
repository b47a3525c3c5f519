package render

import (
	"sync"
	"time"

	"github.com/couchcryptid/flight-map-service/internal/domain"
)

// AirportPopup is the detail shown when a marker is opened.
type AirportPopup struct {
	Title    string `json:"title"`
	Locality string `json:"locality,omitempty"`
	Flights  int    `json:"flights"`
}

// FlightSummary is one line of a route popup.
type FlightSummary struct {
	Airline    string    `json:"airline"`
	FlightCode string    `json:"flight_code"`
	Departure  time.Time `json:"departure"`
	Arrival    time.Time `json:"arrival"`
}

// RoutePopup lists every flight on an airport pair, split by direction
// relative to the first flight seen on that pair.
type RoutePopup struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	DistanceKm float64         `json:"distance_km"`
	Outbound   []FlightSummary `json:"outbound"`
	Return     []FlightSummary `json:"return,omitempty"`
}

// Marker is a drawn airport.
type Marker struct {
	Code           string             `json:"code"`
	Position       domain.Coordinates `json:"position"`
	Color          Color              `json:"color"`
	Diameter       float64            `json:"diameter"`
	Popup          AirportPopup       `json:"popup"`
	Hovered        bool               `json:"hovered"`
	PopupOpen      bool               `json:"popup_open"`
	HighlightUntil time.Time          `json:"highlight_until,omitzero"`
}

// Expanded reports whether the marker is drawn enlarged. An open popup keeps
// it expanded regardless of hover.
func (m Marker) Expanded() bool { return m.Hovered || m.PopupOpen }

// DrawnDiameter is the diameter including the expanded state.
func (m Marker) DrawnDiameter() float64 {
	if m.Expanded() {
		return m.Diameter * expandedScale
	}
	return m.Diameter
}

// Highlighted reports whether a transient highlight is active at now.
func (m Marker) Highlighted(now time.Time) bool { return now.Before(m.HighlightUntil) }

// Segment is one colored run of a route's great-circle path.
type Segment struct {
	Index     int                  `json:"index"`
	Points    []domain.Coordinates `json:"points"`
	Color     Color                `json:"color"`
	Weight    float64              `json:"weight"`
	OwnsPopup bool                 `json:"owns_popup,omitempty"`
}

// Route is a drawn airport pair. All segments open the same popup.
type Route struct {
	Key      string      `json:"key"`
	From     string      `json:"from"`
	To       string      `json:"to"`
	Segments []Segment   `json:"segments"`
	Popup    *RoutePopup `json:"popup,omitempty"`
}

// MovingMarker tracks the aircraft position during playback.
type MovingMarker struct {
	Position domain.Coordinates `json:"position"`
	Color    Color              `json:"color"`
}

// Snapshot is a deep copy of the scene at one moment.
type Snapshot struct {
	Markers    []Marker      `json:"markers"`
	Routes     []Route       `json:"routes"`
	Moving     *MovingMarker `json:"moving,omitempty"`
	OpenMarker string        `json:"open_marker,omitempty"`
	Viewport   Viewport      `json:"viewport"`
}

// Scene is the registry of what is currently drawn and selected. It is owned
// by one Renderer; the mutex only guards readers such as HTTP handlers that
// snapshot the scene while playback draws into it.
type Scene struct {
	mu         sync.RWMutex
	markers    map[string]*Marker
	order      []string
	routes     []*Route
	moving     *MovingMarker
	openMarker string
	viewport   Viewport
}

// NewScene returns an empty scene showing the default view.
func NewScene() *Scene {
	return &Scene{
		markers:  make(map[string]*Marker),
		viewport: DefaultViewport,
	}
}

// Clear removes every marker, route and the moving marker, and closes any
// open popup. The viewport is left alone.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = make(map[string]*Marker)
	s.order = nil
	s.routes = nil
	s.moving = nil
	s.openMarker = ""
}

// AddMarker draws m, replacing any marker with the same code in place.
func (s *Scene) AddMarker(m Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markers[m.Code]; !ok {
		s.order = append(s.order, m.Code)
	}
	s.markers[m.Code] = &m
}

// HasMarker reports whether an airport is drawn.
func (s *Scene) HasMarker(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.markers[code]
	return ok
}

// AddRoute draws r and returns its handle for AddSegment.
func (s *Scene) AddRoute(r Route) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	segs := make([]Segment, len(r.Segments))
	copy(segs, r.Segments)
	r.Segments = segs
	s.routes = append(s.routes, &r)
	return len(s.routes) - 1
}

// AddSegment appends one segment to a previously added route. Unknown
// handles are ignored.
func (s *Scene) AddSegment(route int, seg Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if route < 0 || route >= len(s.routes) {
		return
	}
	s.routes[route].Segments = append(s.routes[route].Segments, seg)
}

// SetMovingMarker places or moves the playback marker.
func (s *Scene) SetMovingMarker(m MovingMarker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moving = &m
}

// ClearMovingMarker removes the playback marker if present.
func (s *Scene) ClearMovingMarker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moving = nil
}

// SetOpenMarker opens code's popup, closing and collapsing any other open
// marker first. Returns false if code is not drawn.
func (s *Scene) SetOpenMarker(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[code]
	if !ok {
		return false
	}
	if prev, ok := s.markers[s.openMarker]; ok && prev != m {
		prev.PopupOpen = false
	}
	m.PopupOpen = true
	s.openMarker = code
	return true
}

// ClearOpenMarker closes the open popup, if any.
func (s *Scene) ClearOpenMarker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.markers[s.openMarker]; ok {
		m.PopupOpen = false
	}
	s.openMarker = ""
}

// OpenMarker returns the code of the marker whose popup is open.
func (s *Scene) OpenMarker() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openMarker
}

// SetHover records pointer hover over a marker.
func (s *Scene) SetHover(code string, hovered bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[code]
	if !ok {
		return false
	}
	m.Hovered = hovered
	return true
}

// Highlight flashes an already drawn marker until the given instant.
func (s *Scene) Highlight(code string, until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.markers[code]; ok {
		m.HighlightUntil = until
	}
}

// Restyle applies zoom-dependent sizes to every drawn shape in place.
func (s *Scene) Restyle(weight, diameter float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.markers {
		m.Diameter = diameter
	}
	for _, r := range s.routes {
		for i := range r.Segments {
			r.Segments[i].Weight = weight
		}
	}
}

// SetViewport records the current map view.
func (s *Scene) SetViewport(v Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = v
}

// Viewport returns the current map view.
func (s *Scene) Viewport() Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// Snapshot deep-copies the scene. Markers keep draw order.
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Markers:    make([]Marker, 0, len(s.order)),
		Routes:     make([]Route, 0, len(s.routes)),
		OpenMarker: s.openMarker,
		Viewport:   s.viewport,
	}
	for _, code := range s.order {
		snap.Markers = append(snap.Markers, *s.markers[code])
	}
	for _, r := range s.routes {
		cp := *r
		cp.Segments = make([]Segment, len(r.Segments))
		copy(cp.Segments, r.Segments)
		snap.Routes = append(snap.Routes, cp)
	}
	if s.moving != nil {
		mv := *s.moving
		snap.Moving = &mv
	}
	return snap
}
