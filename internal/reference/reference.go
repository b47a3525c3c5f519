// Package reference loads the airport and IATA replacement tables the
// service resolves uploaded flights against.
package reference

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/flight-map-service/internal/domain"
)

// LoadAirports reads the airports CSV at path. A missing file yields an empty
// table so the service can start without reference data; any other read or
// header problem is an error.
func LoadAirports(path string, logger *slog.Logger) (domain.AirportTable, error) {
	text, ok, err := readOptional(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Warn("airports file not found, every airport will be unresolved", "path", path)
		return domain.AirportTable{}, nil
	}
	table, err := domain.ParseAirports(text)
	if err != nil {
		return nil, fmt.Errorf("load airports %s: %w", path, err)
	}
	logger.Info("airports loaded", "path", path, "count", len(table))
	return table, nil
}

// LoadReplacements reads the IATA replacement CSV at path. A missing file
// yields an empty table.
func LoadReplacements(path string, logger *slog.Logger) (domain.ReplacementTable, error) {
	if path == "" {
		return domain.ReplacementTable{}, nil
	}
	text, ok, err := readOptional(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Info("replacements file not found, continuing without replacements", "path", path)
		return domain.ReplacementTable{}, nil
	}
	table := domain.ParseReplacements(text)
	logger.Info("replacements loaded", "path", path, "count", len(table))
	return table, nil
}

func readOptional(path string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), true, nil
}
