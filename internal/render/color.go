package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/couchcryptid/flight-map-service/internal/domain"
)

// Color is a "#rrggbb" hex string.
type Color string

// Frequency band colors, from least to most visited.
const (
	ColorBlue    Color = "#2b83ba"
	ColorCyan    Color = "#17becf"
	ColorGreen   Color = "#4daf4a"
	ColorOrange  Color = "#ff7f00"
	ColorRed     Color = "#e41a1c"
	ColorDefault Color = "#888888"
)

// ColorForRatio buckets a count/max ratio into one of five bands. Each upper
// bound is inclusive: 0.15 is blue, 0.151 is cyan.
func ColorForRatio(ratio float64) Color {
	switch {
	case ratio <= 0.15:
		return ColorBlue
	case ratio <= 0.30:
		return ColorCyan
	case ratio <= 0.50:
		return ColorGreen
	case ratio <= 0.75:
		return ColorOrange
	default:
		return ColorRed
	}
}

// Palette holds per-airport flight counts and the color derived from each.
type Palette struct {
	Counts map[string]int
	Max    int
	Colors map[string]Color
}

// NewPalette counts, per resolved airport code, how many flights touch it as
// either endpoint and assigns each airport its band color.
func NewPalette(vis []domain.FlightVisualization) Palette {
	p := Palette{
		Counts: make(map[string]int),
		Colors: make(map[string]Color),
	}
	for _, v := range vis {
		p.Counts[v.DepartureAirport.IATACode]++
		p.Counts[v.ArrivalAirport.IATACode]++
	}
	for _, n := range p.Counts {
		if n > p.Max {
			p.Max = n
		}
	}
	for code, n := range p.Counts {
		if p.Max == 0 {
			p.Colors[code] = ColorDefault
			continue
		}
		p.Colors[code] = ColorForRatio(float64(n) / float64(p.Max))
	}
	return p
}

// ColorOf returns the airport's band color, or ColorDefault if unknown.
func (p Palette) ColorOf(code string) Color {
	if c, ok := p.Colors[code]; ok {
		return c
	}
	return ColorDefault
}

type rgb struct{ r, g, b float64 }

func parseColor(c Color) (rgb, error) {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return rgb{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return rgb{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return rgb{r: float64(v >> 16 & 0xff), g: float64(v >> 8 & 0xff), b: float64(v & 0xff)}, nil
}

// Interpolate blends from a to b in RGB space; t is clamped to [0, 1].
// Unparseable inputs yield ColorDefault.
func Interpolate(a, b Color, t float64) Color {
	ca, errA := parseColor(a)
	cb, errB := parseColor(b)
	if errA != nil || errB != nil {
		return ColorDefault
	}
	t = math.Max(0, math.Min(1, t))
	lerp := func(x, y float64) uint8 { return uint8(math.Round(x + (y-x)*t)) }
	return Color(fmt.Sprintf("#%02x%02x%02x", lerp(ca.r, cb.r), lerp(ca.g, cb.g), lerp(ca.b, cb.b)))
}

// GradientRatio is the interpolation ratio for segment i of n.
func GradientRatio(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}
