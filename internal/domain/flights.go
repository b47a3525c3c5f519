package domain

import (
	"fmt"
	"strings"
)

// Flight CSV column names.
const (
	ColAirline                 = "airline"
	ColFlightCode              = "flight_code"
	ColDepartureAirport        = "departure_airport"
	ColArrivalAirport          = "arrival_airport"
	ColDepartureTimestampLocal = "departure_timestamp_local"
	ColArrivalTimestampLocal   = "arrival_timestamp_local"
)

// RequiredFlightColumns lists the flight CSV columns in reporting order.
var RequiredFlightColumns = []string{
	ColAirline,
	ColFlightCode,
	ColDepartureAirport,
	ColArrivalAirport,
	ColDepartureTimestampLocal,
	ColArrivalTimestampLocal,
}

// maxValueInError bounds how much of an offending value is echoed back.
const maxValueInError = 30

// ParseFlights parses an uploaded flights CSV. It never fails as a whole:
// structural problems and bad rows are reported in the result's Errors, and
// one bad row never stops the remaining rows from being parsed.
func ParseFlights(text string) ParseResult {
	lines := splitLines(text)
	if len(lines) == 0 {
		return ParseResult{Errors: []string{"CSV file is empty"}}
	}

	header := headerIndex(lines[0])
	rows := lines[1:]
	result := ParseResult{TotalRows: len(rows)}

	var missing []string
	for _, col := range RequiredFlightColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		result.Errors = []string{"Missing required columns: " + strings.Join(missing, ", ")}
		result.FailedRows = len(rows)
		return result
	}

	for i, line := range rows {
		rowNum := i + 2 // header is row 1
		flight, errMsg := parseFlightRow(rowNum, line, header)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			result.FailedRows++
			continue
		}
		result.Flights = append(result.Flights, flight)
		result.SuccessfulRows++
	}
	return result
}

// parseFlightRow returns either a flight or a non-empty error message. A panic
// while handling the row is converted into an error message.
func parseFlightRow(rowNum int, line string, header map[string]int) (flight Flight, errMsg string) {
	defer func() {
		if r := recover(); r != nil {
			flight = Flight{}
			errMsg = fmt.Sprintf("Row %d: unexpected error: %v", rowNum, r)
		}
	}()

	values := TokenizeLine(line)
	get := func(col string) string { return field(values, header, col) }

	var missing []string
	for _, col := range RequiredFlightColumns {
		if get(col) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Flight{}, fmt.Sprintf("Row %d: Missing required fields: %s", rowNum, strings.Join(missing, ", "))
	}

	depRaw, arrRaw := get(ColDepartureTimestampLocal), get(ColArrivalTimestampLocal)
	dep, depOK := NormalizeTimestamp(depRaw)
	arr, arrOK := NormalizeTimestamp(arrRaw)
	if !depOK || !arrOK {
		var bad []string
		if !depOK {
			bad = append(bad, fmt.Sprintf("%s %q", ColDepartureTimestampLocal, truncate(depRaw, maxValueInError)))
		}
		if !arrOK {
			bad = append(bad, fmt.Sprintf("%s %q", ColArrivalTimestampLocal, truncate(arrRaw, maxValueInError)))
		}
		return Flight{}, fmt.Sprintf("Row %d: Invalid timestamp: %s", rowNum, strings.Join(bad, ", "))
	}

	return Flight{
		Airline:                 get(ColAirline),
		FlightCode:              get(ColFlightCode),
		DepartureAirport:        get(ColDepartureAirport),
		ArrivalAirport:          get(ColArrivalAirport),
		DepartureTimestampLocal: dep,
		ArrivalTimestampLocal:   arr,
	}, ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
