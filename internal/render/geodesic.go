package render

import (
	"fmt"

	"github.com/bluele/gcache"
	"github.com/golang/geo/s2"

	"github.com/couchcryptid/flight-map-service/internal/domain"
)

// SegmentCount is the number of runs a route path is cut into.
const SegmentCount = 10

// PopupSegment is the index of the segment that owns a route's popup.
const PopupSegment = 4

const earthRadiusKm = 6371.0

// GreatCirclePath returns steps+1 points along the great circle from one
// coordinate to another. Longitudes are unwrapped so consecutive points never
// jump across the antimeridian.
func GreatCirclePath(from, to domain.Coordinates, steps int) []domain.Coordinates {
	if steps < 1 {
		steps = 1
	}
	a := s2.PointFromLatLng(s2.LatLngFromDegrees(from.Lat, from.Lon))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(to.Lat, to.Lon))

	path := make([]domain.Coordinates, steps+1)
	path[0] = from
	for i := 1; i <= steps; i++ {
		ll := s2.LatLngFromPoint(s2.Interpolate(float64(i)/float64(steps), a, b))
		lon := ll.Lng.Degrees()
		prev := path[i-1].Lon
		for lon-prev > 180 {
			lon -= 360
		}
		for lon-prev < -180 {
			lon += 360
		}
		path[i] = domain.Coordinates{Lat: ll.Lat.Degrees(), Lon: lon}
	}
	path[steps].Lat = to.Lat
	return path
}

// GreatCircleDistanceKm is the great-circle distance between two coordinates.
func GreatCircleDistanceKm(from, to domain.Coordinates) float64 {
	a := s2.LatLngFromDegrees(from.Lat, from.Lon)
	b := s2.LatLngFromDegrees(to.Lat, to.Lon)
	return a.Distance(b).Radians() * earthRadiusKm
}

// SplitPath cuts path into at most count runs of floor(len/count) points,
// folding the remainder into the last run. Consecutive runs share their joint
// point so the drawn line has no gaps. Runs with fewer than two points are
// dropped.
func SplitPath(path []domain.Coordinates, count int) [][]domain.Coordinates {
	n := len(path)
	if n < 2 || count < 1 {
		return nil
	}
	per := n / count
	if per < 1 {
		per = 1
	}

	runs := make([][]domain.Coordinates, 0, count)
	for i := 0; i < count; i++ {
		start := i * per
		if start >= n-1 {
			break
		}
		end := (i + 1) * per
		if i == count-1 || end > n-1 {
			end = n - 1
		}
		run := make([]domain.Coordinates, end-start+1)
		copy(run, path[start:end+1])
		if len(run) < 2 {
			continue
		}
		runs = append(runs, run)
	}
	return runs
}

// PathCache memoizes split great-circle paths per directed airport pair.
type PathCache struct {
	steps int
	cache gcache.Cache
}

// NewPathCache creates an LRU cache of up to size split paths, each generated
// with the given number of interpolation steps.
func NewPathCache(steps, size int) *PathCache {
	if size < 1 {
		size = 1
	}
	return &PathCache{
		steps: steps,
		cache: gcache.New(size).LRU().Build(),
	}
}

// Segments returns the split great-circle path from dep to arr. Airports with
// identical coordinates produce no segments. Callers must not modify the
// returned runs.
func (c *PathCache) Segments(dep, arr domain.Airport) [][]domain.Coordinates {
	if dep.Coordinates == arr.Coordinates {
		return nil
	}
	key := fmt.Sprintf("%s>%s|%.6f,%.6f>%.6f,%.6f", dep.IATACode, arr.IATACode,
		dep.Coordinates.Lat, dep.Coordinates.Lon, arr.Coordinates.Lat, arr.Coordinates.Lon)
	if cached, err := c.cache.Get(key); err == nil {
		if runs, ok := cached.([][]domain.Coordinates); ok {
			return runs
		}
	}
	runs := SplitPath(GreatCirclePath(dep.Coordinates, arr.Coordinates, c.steps), SegmentCount)
	_ = c.cache.Set(key, runs)
	return runs
}

// Len reports how many paths are cached.
func (c *PathCache) Len() int {
	return c.cache.Len(false)
}
