package domain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingColumns is returned when a reference file lacks required columns.
var ErrMissingColumns = errors.New("missing required columns")

var requiredAirportColumns = []string{"iata_code", "latitude_deg", "longitude_deg"}

// leadingFloatRe matches the numeric prefix of a value such as "123ft" or "-4.5e2x".
var leadingFloatRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAirports builds the IATA lookup table from the reference CSV. Rows with
// a blank IATA code or unparseable coordinates are skipped; later rows
// overwrite earlier ones with the same code. An error is returned only for an
// empty file or a header lacking iata_code, latitude_deg or longitude_deg.
func ParseAirports(text string) (AirportTable, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, errors.New("airports reference is empty")
	}

	header := headerIndex(lines[0])
	var missing []string
	for _, col := range requiredAirportColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("airports reference: %w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	table := make(AirportTable, len(lines)-1)
	for _, line := range lines[1:] {
		airport, ok := parseAirportRow(TokenizeLine(line), header)
		if !ok {
			continue
		}
		table[airport.IATACode] = airport
	}
	return table, nil
}

func parseAirportRow(values []string, header map[string]int) (Airport, bool) {
	get := func(col string) string { return field(values, header, col) }

	iata := get("iata_code")
	if iata == "" {
		return Airport{}, false
	}
	lat := parseOptionalFloat(get("latitude_deg"))
	lon := parseOptionalFloat(get("longitude_deg"))
	if lat == nil || lon == nil {
		return Airport{}, false
	}

	return Airport{
		ID:               get("id"),
		Ident:            get("ident"),
		Type:             get("type"),
		Name:             get("name"),
		Coordinates:      Coordinates{Lat: *lat, Lon: *lon},
		ElevationFt:      parseOptionalFloat(get("elevation_ft")),
		Continent:        get("continent"),
		Country:          get("iso_country"),
		Region:           get("iso_region"),
		Municipality:     get("municipality"),
		ScheduledService: parseBool(get("scheduled_service")),
		ICAOCode:         get("icao_code"),
		IATACode:         iata,
		GPSCode:          get("gps_code"),
		LocalCode:        get("local_code"),
	}, true
}

// parseOptionalFloat reads the leading number of s. Returns nil when s is
// empty or has no numeric prefix, so "no data" stays distinct from zero.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	prefix := leadingFloatRe.FindString(s)
	if prefix == "" {
		return nil
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseBool accepts yes, 1 and true (case-insensitive).
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "1", "true":
		return true
	default:
		return false
	}
}

// ParseReplacements reads a two-column (old code, new code) CSV. The first
// line is a header and is skipped. Rows missing either code are ignored.
func ParseReplacements(text string) ReplacementTable {
	lines := splitLines(text)
	table := make(ReplacementTable)
	if len(lines) < 2 {
		return table
	}
	for _, line := range lines[1:] {
		values := TokenizeLine(line)
		if len(values) < 2 || values[0] == "" || values[1] == "" {
			continue
		}
		table[values[0]] = values[1]
	}
	return table
}
