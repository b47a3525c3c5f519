// Command genmock generates a mock flights CSV from the airports reference
// file. Flights hop between airports with scheduled service, depart at
// random times inside a date window and take a duration derived from the
// great-circle distance. A fraction of rows can be written in the dotted
// DD.MM.YYYY layout or deliberately broken to exercise error reporting.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -airports data/airports.csv \
//	  -out data/mock/flights.csv \
//	  -n 200 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/flight-map-service/internal/domain"
	"github.com/couchcryptid/flight-map-service/internal/reference"
	"github.com/couchcryptid/flight-map-service/internal/render"
)

const (
	cruiseKmh   = 820.0
	taxiMinutes = 30
)

var airlines = []struct{ name, prefix string }{
	{"Finnair", "AY"},
	{"SAS", "SK"},
	{"Lufthansa", "LH"},
	{"British Airways", "BA"},
	{"Delta", "DL"},
}

type genOptions struct {
	count       int
	seed        uint64
	start       time.Time
	days        int
	dottedRate  float64
	invalidRate float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	airportsPath := flag.String("airports", "data/airports.csv", "airports reference CSV")
	out := flag.String("out", "", "output path for the generated flights CSV")
	count := flag.Int("n", 100, "number of flights")
	seed := flag.Uint64("seed", 1, "random seed")
	start := flag.String("start", "2024-01-01", "first departure date (YYYY-MM-DD)")
	days := flag.Int("days", 730, "length of the departure window in days")
	dotted := flag.Float64("dotted-rate", 0.1, "fraction of rows using DD.MM.YYYY timestamps")
	invalid := flag.Float64("invalid-rate", 0, "fraction of rows with a missing field or bad timestamp")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	startDate, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	airports, err := reference.LoadAirports(*airportsPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	pool := scheduledAirports(airports)
	if len(pool) < 2 {
		return fmt.Errorf("need at least 2 airports with scheduled service, found %d", len(pool))
	}

	rows := generate(pool, genOptions{
		count:       *count,
		seed:        *seed,
		start:       startDate,
		days:        *days,
		dottedRate:  *dotted,
		invalidRate: *invalid,
	})

	if err := writeCSV(*out, rows); err != nil {
		return fmt.Errorf("writing flights: %w", err)
	}
	log.Printf("wrote %d flights across %d airports: %s", len(rows)-1, len(pool), *out)
	return nil
}

// scheduledAirports returns airports with scheduled service, sorted by code
// so a seed always yields the same file.
func scheduledAirports(table domain.AirportTable) []domain.Airport {
	var out []domain.Airport
	for _, a := range table {
		if a.ScheduledService {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IATACode < out[j].IATACode })
	return out
}

// generate returns the CSV rows, header first.
func generate(pool []domain.Airport, opts genOptions) [][]string {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	window := time.Duration(max(opts.days, 1)) * 24 * time.Hour

	rows := make([][]string, 0, opts.count+1)
	rows = append(rows, append([]string(nil), domain.RequiredFlightColumns...))

	for range opts.count {
		dep := pool[rng.IntN(len(pool))]
		arr := pool[rng.IntN(len(pool)-1)]
		if arr.IATACode == dep.IATACode {
			arr = pool[len(pool)-1]
		}
		airline := airlines[rng.IntN(len(airlines))]

		departure := opts.start.Add(time.Duration(rng.Int64N(int64(window)))).Truncate(5 * time.Minute)
		arrival := departure.Add(flightDuration(dep, arr))

		layout := "2006-01-02 15:04:05"
		if rng.Float64() < opts.dottedRate {
			layout = "02.01.2006 15:04"
		}
		row := []string{
			airline.name,
			fmt.Sprintf("%s%d", airline.prefix, 1+rng.IntN(2999)),
			dep.IATACode,
			arr.IATACode,
			departure.Format(layout),
			arrival.Format(layout),
		}
		if rng.Float64() < opts.invalidRate {
			breakRow(rng, row)
		}
		rows = append(rows, row)
	}
	return rows
}

func flightDuration(dep, arr domain.Airport) time.Duration {
	km := render.GreatCircleDistanceKm(dep.Coordinates, arr.Coordinates)
	minutes := km/cruiseKmh*60 + taxiMinutes
	return (time.Duration(minutes) * time.Minute).Round(5 * time.Minute)
}

// breakRow blanks one required field or garbles a timestamp.
func breakRow(rng *rand.Rand, row []string) {
	if rng.IntN(2) == 0 {
		row[rng.IntN(4)] = ""
		return
	}
	row[4] = "not-a-time"
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
