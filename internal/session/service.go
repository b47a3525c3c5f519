// Package session holds the one in-memory map session: the reference
// tables, the current upload, the year filter, the renderer and the playback
// engine. Every user action goes through Service, which also raises the
// session events.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	geojson "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/flight-map-service/internal/domain"
	"github.com/couchcryptid/flight-map-service/internal/observability"
	"github.com/couchcryptid/flight-map-service/internal/playback"
	"github.com/couchcryptid/flight-map-service/internal/render"
)

var (
	// ErrNotCSV is returned for uploads whose name lacks a .csv extension.
	ErrNotCSV = errors.New("only .csv files are accepted")
	// ErrNoUpload is returned by actions that need flight data before any upload.
	ErrNoUpload = errors.New("no flight data uploaded")
	// ErrPlaybackActive is returned when playback is started twice.
	ErrPlaybackActive = playback.ErrPlaybackActive
)

// readFailureMessage is the only error reported when the upload body cannot be read.
const readFailureMessage = "Failed to read the uploaded file"

// Reference is the static lookup data loaded at startup.
type Reference struct {
	Airports     domain.AirportTable
	Replacements domain.ReplacementTable
}

// Options tunes a Service.
type Options struct {
	ErrorPreviewLimit int
	Clock             clockwork.Clock // nil means the real clock
}

// Service is safe for concurrent use.
type Service struct {
	ref      Reference
	renderer *render.Renderer
	player   *playback.Engine
	sink     EventSink
	metrics  *observability.Metrics
	logger   *slog.Logger
	clock    clockwork.Clock
	preview  int

	mu       sync.Mutex
	id       string
	uploaded bool
	result   domain.VisualizationResult
	year     *int
	visible  []domain.FlightVisualization
	playDone chan struct{}
}

// New creates a session. sink may be nil to disable event publishing.
func New(ref Reference, renderer *render.Renderer, player *playback.Engine, sink EventSink,
	logger *slog.Logger, metrics *observability.Metrics, opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		ref:      ref,
		renderer: renderer,
		player:   player,
		sink:     sink,
		metrics:  metrics,
		logger:   logger,
		clock:    clock,
		preview:  opts.ErrorPreviewLimit,
	}
}

// Upload reads a flights CSV fully, parses it, resolves airports and redraws
// the static map. The new data replaces the previous upload entirely and
// resets the year filter; a running playback is stopped first.
// Data problems are reported in the summary, not as an error.
func (s *Service) Upload(ctx context.Context, filename string, body io.Reader) (UploadSummary, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		s.metrics.Uploads.WithLabelValues("rejected").Inc()
		return UploadSummary{}, fmt.Errorf("%w: %q", ErrNotCSV, filename)
	}

	content, err := io.ReadAll(body)
	if err != nil {
		s.metrics.Uploads.WithLabelValues("rejected").Inc()
		s.logger.Error("read upload", "filename", filename, "error", err)
		return UploadSummary{
			Filename:   filename,
			ErrorCount: 1,
			Errors:     []string{readFailureMessage},
		}, nil
	}

	parsed := domain.ParseFlights(string(content))
	result := domain.BuildVisualizations(parsed.Flights, s.ref.Airports, s.ref.Replacements)

	s.mu.Lock()
	s.stopAndWaitLocked()
	s.id = uuid.NewString()
	s.uploaded = true
	s.result = result
	s.year = nil
	s.visible = result.Visualizations
	vp := s.renderLocked()
	id := s.id
	s.mu.Unlock()

	errs := append(append([]string{}, parsed.Errors...), result.Errors...)
	summary := UploadSummary{
		SessionID:          id,
		Filename:           filename,
		TotalRows:          parsed.TotalRows,
		SuccessfulRows:     parsed.SuccessfulRows,
		FailedRows:         parsed.FailedRows,
		FlightsVisualized:  len(result.Visualizations),
		DistinctAirports:   result.DistinctAirports,
		UnresolvedAirports: result.UnresolvedAirports,
		ErrorCount:         len(errs),
		Errors:             s.cap(errs),
		Years:              domain.Years(result.Visualizations),
		Viewport:           vp,
	}

	s.metrics.Uploads.WithLabelValues("accepted").Inc()
	s.metrics.RowsParsed.WithLabelValues("ok").Add(float64(parsed.SuccessfulRows))
	s.metrics.RowsParsed.WithLabelValues("failed").Add(float64(parsed.FailedRows))
	s.metrics.FlightsVisualized.Add(float64(summary.FlightsVisualized))
	s.metrics.UnresolvedAirports.Add(float64(len(result.UnresolvedAirports)))

	s.logger.Info("upload processed",
		"session_id", id,
		"filename", filename,
		"rows", parsed.TotalRows,
		"failed_rows", parsed.FailedRows,
		"flights", summary.FlightsVisualized,
		"unresolved", len(result.UnresolvedAirports),
		"errors", summary.ErrorCount,
	)
	s.publish(ctx, Event{Type: EventUploadComplete, SessionID: id, Upload: &summary})
	return summary, nil
}

// SetYear shows only flights departing in year, or all flights when year is
// nil, and redraws the static map.
func (s *Service) SetYear(ctx context.Context, year *int) (FilterSummary, error) {
	s.mu.Lock()
	if !s.uploaded {
		s.mu.Unlock()
		return FilterSummary{}, ErrNoUpload
	}
	s.stopAndWaitLocked()
	s.year = year
	s.visible = domain.FilterByYear(s.result.Visualizations, year)
	vp := s.renderLocked()
	summary := FilterSummary{Year: year, Flights: len(s.visible), Visualizations: s.visible, Viewport: vp}
	id := s.id
	s.mu.Unlock()

	s.logger.Info("filter changed", "session_id", id, "year", yearAttr(year), "flights", summary.Flights)
	s.publish(ctx, Event{Type: EventFilterChanged, SessionID: id, Filter: &summary})
	return summary, nil
}

// Years lists the departure years of the current upload.
func (s *Service) Years() []domain.YearCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Years(s.result.Visualizations)
}

// StartPlayback replays the visible flights in the background. The request
// context only bounds event publishing; the playback itself runs until it
// completes or StopPlayback is called.
func (s *Service) StartPlayback(ctx context.Context) error {
	s.mu.Lock()
	if !s.uploaded {
		s.mu.Unlock()
		return ErrNoUpload
	}
	if s.playingLocked() {
		s.mu.Unlock()
		return ErrPlaybackActive
	}
	outcome, err := s.player.Start(context.Background(), s.visible)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	done := make(chan struct{})
	s.playDone = done
	id := s.id
	flights := len(s.visible)
	s.metrics.PlaybackRunning.Set(1)
	s.mu.Unlock()

	go s.awaitPlayback(id, outcome, done)

	s.logger.Info("playback started", "session_id", id, "flights", flights)
	status := s.player.Status()
	s.publish(ctx, Event{Type: EventPlaybackStart, SessionID: id, Playback: &status})
	return nil
}

func (s *Service) awaitPlayback(id string, outcome <-chan playback.Outcome, done chan struct{}) {
	defer close(done)

	o := <-outcome
	s.metrics.PlaybackRunning.Set(0)
	s.metrics.PlaybackRuns.WithLabelValues(string(o)).Inc()
	status := s.player.Status()
	s.publish(context.Background(), Event{Type: EventPlaybackFinished, SessionID: id, Playback: &status})
}

// StopPlayback cancels a running playback and waits until the static map has
// been restored. Returns false if nothing was playing.
func (s *Service) StopPlayback(ctx context.Context) (bool, error) {
	s.mu.Lock()
	done := s.playDone
	id := s.id
	s.mu.Unlock()

	if done == nil || !s.player.Stop() {
		return false, nil
	}
	s.logger.Info("playback stop requested", "session_id", id)
	status := s.player.Status()
	s.publish(ctx, Event{Type: EventPlaybackStop, SessionID: id, Playback: &status})

	select {
	case <-done:
		return true, nil
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// PlaybackStatus reports the engine's progress.
func (s *Service) PlaybackStatus() playback.Status { return s.player.Status() }

// SetZoom restyles the drawn shapes for zoom.
func (s *Service) SetZoom(zoom float64) { s.renderer.SetZoom(zoom) }

// OpenMarker opens code's popup, closing any other. Returns false for an
// unknown marker.
func (s *Service) OpenMarker(code string) bool { return s.renderer.Scene().SetOpenMarker(code) }

// CloseMarker closes the open popup, if any.
func (s *Service) CloseMarker() { s.renderer.Scene().ClearOpenMarker() }

// Hover sets code's hover state. Returns false for an unknown marker.
func (s *Service) Hover(code string, hovered bool) bool {
	return s.renderer.Scene().SetHover(code, hovered)
}

// Snapshot copies what is drawn right now.
func (s *Service) Snapshot() render.Snapshot { return s.renderer.Scene().Snapshot() }

// GeoJSON exports what is drawn right now.
func (s *Service) GeoJSON() *geojson.FeatureCollection { return s.Snapshot().FeatureCollection() }

// CheckReadiness reports ready once airport reference data is loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if len(s.ref.Airports) == 0 {
		return errors.New("airport reference data not loaded")
	}
	return nil
}

// Close stops any running playback and waits for it to unwind.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopAndWaitLocked()
	return ctx.Err()
}

func (s *Service) playingLocked() bool {
	if s.playDone == nil {
		return false
	}
	select {
	case <-s.playDone:
		return false
	default:
		return true
	}
}

// stopAndWaitLocked always waits for the loop to unwind, so its static
// redraw of the old flights cannot land on top of a newer render.
func (s *Service) stopAndWaitLocked() {
	if !s.playingLocked() {
		return
	}
	s.player.Stop()
	<-s.playDone
}

func (s *Service) renderLocked() render.Viewport {
	start := s.clock.Now()
	vp := s.renderer.Render(s.visible)
	s.metrics.RenderDuration.Observe(s.clock.Since(start).Seconds())
	return vp
}

func (s *Service) cap(errs []string) []string {
	if s.preview > 0 && len(errs) > s.preview {
		return errs[:s.preview]
	}
	return errs
}

func (s *Service) publish(ctx context.Context, e Event) {
	if s.sink == nil {
		return
	}
	e.OccurredAt = s.clock.Now().UTC()
	if err := s.sink.Publish(ctx, e); err != nil {
		s.metrics.EventsPublished.WithLabelValues(string(e.Type), "error").Inc()
		s.logger.Warn("publish session event", "type", e.Type, "session_id", e.SessionID, "error", err)
		return
	}
	s.metrics.EventsPublished.WithLabelValues(string(e.Type), "success").Inc()
}

func yearAttr(year *int) any {
	if year == nil {
		return "all"
	}
	return *year
}
