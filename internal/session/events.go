package session

import (
	"context"
	"time"

	"github.com/couchcryptid/flight-map-service/internal/domain"
	"github.com/couchcryptid/flight-map-service/internal/playback"
	"github.com/couchcryptid/flight-map-service/internal/render"
)

// EventType names a session event.
type EventType string

const (
	EventUploadComplete   EventType = "upload_complete"
	EventFilterChanged    EventType = "filter_changed"
	EventPlaybackStart    EventType = "playback_start"
	EventPlaybackStop     EventType = "playback_stop"
	EventPlaybackFinished EventType = "playback_finished"
)

// Event is what the session tells the outside world. Exactly one of the
// payload fields is set, matching Type.
type Event struct {
	Type       EventType        `json:"type"`
	SessionID  string           `json:"session_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Upload     *UploadSummary   `json:"upload,omitempty"`
	Filter     *FilterSummary   `json:"filter,omitempty"`
	Playback   *playback.Status `json:"playback,omitempty"`
}

// EventSink receives session events. Publish failures are logged and
// counted; they never fail the operation that raised the event.
type EventSink interface {
	Publish(ctx context.Context, e Event) error
}

// UploadSummary reports one processed upload. Errors holds at most the
// configured preview limit; ErrorCount is the full number.
type UploadSummary struct {
	SessionID          string             `json:"session_id"`
	Filename           string             `json:"filename"`
	TotalRows          int                `json:"total_rows"`
	SuccessfulRows     int                `json:"successful_rows"`
	FailedRows         int                `json:"failed_rows"`
	FlightsVisualized  int                `json:"flights_visualized"`
	DistinctAirports   domain.CodeSet     `json:"distinct_airports"`
	UnresolvedAirports domain.CodeSet     `json:"unresolved_airports"`
	ErrorCount         int                `json:"error_count"`
	Errors             []string           `json:"errors"`
	Years              []domain.YearCount `json:"years"`
	Viewport           render.Viewport    `json:"viewport"`
}

// FilterSummary reports the visible subset after a year filter change.
type FilterSummary struct {
	Year           *int                         `json:"year"`
	Flights        int                          `json:"flights"`
	Visualizations []domain.FlightVisualization `json:"visualizations"`
	Viewport       render.Viewport              `json:"viewport"`
}
