// Command validate runs a flights CSV through the same parse, resolve and
// render steps the service uses and prints a pass/fail report. It is meant
// for checking a file before uploading it, and for exporting the static map
// as GeoJSON.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -flights data/sample_flights.csv \
//	  -airports data/airports.csv \
//	  -replacements data/iata_replacements.csv \
//	  -geojson /tmp/scene.geojson
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/flight-map-service/internal/domain"
	"github.com/couchcryptid/flight-map-service/internal/reference"
	"github.com/couchcryptid/flight-map-service/internal/render"
)

type options struct {
	flights      string
	airports     string
	replacements string
	geojson      string
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var opts options
	flag.StringVar(&opts.flights, "flights", "", "flights CSV to validate")
	flag.StringVar(&opts.airports, "airports", "data/airports.csv", "airports reference CSV")
	flag.StringVar(&opts.replacements, "replacements", "data/iata_replacements.csv", "IATA replacement CSV (optional)")
	flag.StringVar(&opts.geojson, "geojson", "", "write the rendered scene as GeoJSON to this path")
	flag.Parse()

	if opts.flights == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(os.Stdout, opts))
}

func run(w io.Writer, opts options) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fmt.Fprintln(w, "=== Flight Data Validation ===")
	fmt.Fprintln(w)

	airports, err := reference.LoadAirports(opts.airports, logger)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}
	replacements, err := reference.LoadReplacements(opts.replacements, logger)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}
	content, err := os.ReadFile(opts.flights)
	if err != nil {
		fmt.Fprintf(w, "FATAL: read flights: %v\n", err)
		return 1
	}

	parsed := domain.ParseFlights(string(content))
	result := domain.BuildVisualizations(parsed.Flights, airports, replacements)
	renderer := render.NewRenderer(render.DefaultOptions())
	renderer.Render(result.Visualizations)
	snap := renderer.Scene().Snapshot()

	phases := []*phase{
		validateParse(parsed),
		validateResolution(result),
		validateRoutes(snap, result.Visualizations),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rows: %d total, %d ok, %d failed\n", parsed.TotalRows, parsed.SuccessfulRows, parsed.FailedRows)
	fmt.Fprintf(w, "Flights: %d visualized, %d airports, %d unresolved, %d routes\n",
		len(result.Visualizations), len(result.DistinctAirports), len(result.UnresolvedAirports), len(snap.Routes))
	for _, y := range domain.Years(result.Visualizations) {
		fmt.Fprintf(w, "  %d: %d flights\n", y.Year, y.Flights)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if opts.geojson != "" {
		if err := writeGeoJSON(opts.geojson, snap); err != nil {
			fmt.Fprintf(w, "\nFATAL: %v\n", err)
			return 1
		}
		fmt.Fprintf(w, "\nWrote GeoJSON: %s\n", opts.geojson)
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func validateParse(parsed domain.ParseResult) *phase {
	p := &phase{name: "Parse flights CSV"}
	p.errors = append(p.errors, parsed.Errors...)
	if parsed.TotalRows == 0 && len(parsed.Errors) == 0 {
		p.errorf("no data rows")
	}
	return p
}

func validateResolution(result domain.VisualizationResult) *phase {
	p := &phase{name: "Resolve airports"}
	p.errors = append(p.errors, result.Errors...)
	return p
}

// validateRoutes checks that every drawn route has its full set of colored
// segments, except routes whose two airports share coordinates.
func validateRoutes(snap render.Snapshot, vis []domain.FlightVisualization) *phase {
	p := &phase{name: "Render routes"}
	groups := render.GroupRoutes(vis)
	if len(snap.Routes) != len(groups) {
		p.errorf("drew %d routes for %d airport pairs", len(snap.Routes), len(groups))
		return p
	}
	for i, r := range snap.Routes {
		first := groups[i].First
		if first.DepartureAirport.Coordinates == first.ArrivalAirport.Coordinates {
			continue
		}
		if len(r.Segments) != render.SegmentCount {
			p.errorf("route %s: %d segments, want %d", r.Key, len(r.Segments), render.SegmentCount)
		}
	}
	return p
}

func writeGeoJSON(path string, snap render.Snapshot) error {
	b, err := snap.FeatureCollection().MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil { //nolint:gosec // export meant to be shared
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
