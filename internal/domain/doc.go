// Package domain models uploaded flight history and the airport reference data
// it is joined against.
//
// # Data Sources
//
// Flights arrive as a user-supplied CSV file, read fully into memory before
// parsing. Airports come from a bundled reference CSV in the OurAirports
// layout, loaded once at startup. An optional two-column replacement file maps
// retired IATA codes to their current ones.
//
// # Flight CSV Conventions
//
// Header (case-insensitive, order-independent, extra columns ignored):
//
//	airline, flight_code, departure_airport, arrival_airport,
//	departure_timestamp_local, arrival_timestamp_local
//
// Field splitting:
//
//	Commas separate fields. A double quote toggles a quoted region in which
//	commas are literal. Quotes cannot be escaped inside a field. Every field
//	is trimmed of surrounding whitespace.
//
// Timestamp format:
//
//	"2019-07-28 20:20:00"  ISO-like local wall time.
//	"28.07.2019 20:20:00"  day.month.year, rewritten to the ISO layout.
//	Anything else falls back to the standard library's named layouts (RFC 3339,
//	RFC 1123, RFC 850, RFC 822, ANSIC, Unix date) and a few ISO-like ones
//	("2006-01-02T15:04:05", "2006/01/02 15:04:05", date only). Fractional
//	seconds are accepted after any seconds field. Local times
//	carry no zone; they are interpreted as UTC wall clock so that ordering
//	and year bucketing are stable across hosts.
//
// Row numbering:
//
//	Blank lines are dropped first. The header is row 1, so the first data row
//	reported in an error is row 2.
//
// # Airport Reference Conventions
//
// Required columns are iata_code, latitude_deg and longitude_deg. Rows with a
// blank IATA code or unparseable coordinates are skipped silently: the file is
// curated data with no user-facing correction path. Numeric columns use a
// permissive parse that reads the leading number ("12ft" -> 12) and keeps
// "absent" distinct from zero. Boolean columns treat yes, 1 and true
// (case-insensitive) as true. When an IATA code repeats, the later row wins.
//
// # Error Accounting
//
// Parsing never returns a Go error for bad data. Problems become messages in
// [ParseResult.Errors] or [VisualizationResult.Errors], and every flight that
// does not become a [FlightVisualization] is accounted for either as a failed
// row or as an unresolved airport.
package domain
