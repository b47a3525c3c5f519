// Package playback replays visualized flights on the map one at a time, in
// departure order, drawing each route segment by segment.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/flight-map-service/internal/domain"
	"github.com/couchcryptid/flight-map-service/internal/render"
)

// ErrPlaybackActive is returned when Play is called during a playback.
var ErrPlaybackActive = errors.New("playback already active")

// State is the engine's lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
)

// Outcome is how a playback ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
)

// Options configures pacing.
type Options struct {
	SegmentDelay      time.Duration
	HighlightDuration time.Duration
	Clock             clockwork.Clock // nil means the real clock
}

// Status reports progress of the current or last playback.
type Status struct {
	State        State   `json:"state"`
	LastOutcome  Outcome `json:"last_outcome,omitempty"`
	FlightsShown int     `json:"flights_shown"`
	FlightsTotal int     `json:"flights_total"`
}

// Engine drives playback into a renderer's scene. One playback runs at a
// time; Stop is the only way another goroutine talks to a running Play.
type Engine struct {
	renderer *render.Renderer
	opts     Options
	clock    clockwork.Clock
	logger   *slog.Logger

	abort atomic.Bool

	mu      sync.Mutex
	state   State
	outcome Outcome
	shown   int
	total   int
	wake    chan struct{}
}

// New creates an idle engine drawing into renderer.
func New(renderer *render.Renderer, opts Options, logger *slog.Logger) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		renderer: renderer,
		opts:     opts,
		clock:    clock,
		logger:   logger,
		state:    StateIdle,
	}
}

// Status returns a copy of the engine's progress.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{State: e.state, LastOutcome: e.outcome, FlightsShown: e.shown, FlightsTotal: e.total}
}

// Stop requests cancellation of the running playback. The loop notices at its
// next check point. Returns false if nothing was playing.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePlaying {
		return false
	}
	if !e.abort.Swap(true) {
		close(e.wake)
	}
	return true
}

// Play clears the scene and replays vis in ascending departure order. Colors
// are computed once for the whole sequence. It blocks until every flight has
// been drawn (OutcomeCompleted, animated scene left in place) or until Stop or
// ctx cancels it (OutcomeCancelled, static scene redrawn from vis).
func (e *Engine) Play(ctx context.Context, vis []domain.FlightVisualization) (Outcome, error) {
	wake, err := e.begin(len(vis))
	if err != nil {
		return "", err
	}
	return e.finish(e.run(ctx, vis, wake), vis), nil
}

// Start is Play in the background. The engine is already playing when Start
// returns; the outcome is delivered on the channel once playback ends.
func (e *Engine) Start(ctx context.Context, vis []domain.FlightVisualization) (<-chan Outcome, error) {
	wake, err := e.begin(len(vis))
	if err != nil {
		return nil, err
	}
	done := make(chan Outcome, 1)
	go func() {
		done <- e.finish(e.run(ctx, vis, wake), vis)
	}()
	return done, nil
}

func (e *Engine) begin(total int) (<-chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePlaying {
		return nil, ErrPlaybackActive
	}
	e.state = StatePlaying
	e.outcome = ""
	e.shown = 0
	e.total = total
	e.abort.Store(false)
	e.wake = make(chan struct{})
	return e.wake, nil
}

// finish returns the engine to idle. A Stop accepted after the loop's last
// check point still restores the static scene.
func (e *Engine) finish(outcome Outcome, vis []domain.FlightVisualization) Outcome {
	e.mu.Lock()
	if outcome == OutcomeCompleted && e.abort.Load() {
		e.mu.Unlock()
		outcome = e.cancel(vis)
		e.mu.Lock()
	}
	total := e.total
	e.state = StateIdle
	e.outcome = outcome
	shown := e.shown
	e.mu.Unlock()

	e.logger.Info("playback finished", "outcome", outcome, "flights_shown", shown, "flights_total", total)
	return outcome
}

func (e *Engine) run(ctx context.Context, vis []domain.FlightVisualization, wake <-chan struct{}) Outcome {
	ordered := make([]domain.FlightVisualization, len(vis))
	copy(ordered, vis)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DepartureTimestamp.Before(ordered[j].DepartureTimestamp)
	})

	e.renderer.Clear()
	palette := render.NewPalette(ordered)

	for _, v := range ordered {
		if e.aborted(ctx) {
			return e.cancel(vis)
		}
		e.showAirport(v.DepartureAirport, palette)
		e.showAirport(v.ArrivalAirport, palette)
		if !e.animateRoute(ctx, v, palette, wake) {
			return e.cancel(vis)
		}
		e.mu.Lock()
		e.shown++
		e.mu.Unlock()
	}
	if e.aborted(ctx) {
		return e.cancel(vis)
	}
	return OutcomeCompleted
}

// showAirport adds the airport's marker, or flashes it if already drawn.
func (e *Engine) showAirport(a domain.Airport, palette render.Palette) {
	scene := e.renderer.Scene()
	if scene.HasMarker(a.IATACode) {
		scene.Highlight(a.IATACode, e.clock.Now().Add(e.opts.HighlightDuration))
		return
	}
	scene.AddMarker(e.renderer.NewMarker(a, palette))
}

// animateRoute draws one flight's segments in path order with the moving
// marker at each segment's trailing point. Returns false if aborted.
func (e *Engine) animateRoute(ctx context.Context, v domain.FlightVisualization, palette render.Palette, wake <-chan struct{}) bool {
	scene := e.renderer.Scene()
	dep, arr := v.DepartureAirport, v.ArrivalAirport
	group := render.RouteGroup{
		Key:      domain.RouteKey(dep.IATACode, arr.IATACode),
		First:    v,
		Outbound: []domain.FlightVisualization{v},
	}
	handle := scene.AddRoute(render.Route{
		Key:   group.Key,
		From:  dep.IATACode,
		To:    arr.IATACode,
		Popup: group.Popup(),
	})

	for _, seg := range e.renderer.RouteSegments(dep, arr, palette) {
		if e.aborted(ctx) {
			scene.ClearMovingMarker()
			return false
		}
		scene.AddSegment(handle, seg)
		scene.SetMovingMarker(render.MovingMarker{
			Position: seg.Points[len(seg.Points)-1],
			Color:    seg.Color,
		})
		e.wait(ctx, wake)
	}
	scene.ClearMovingMarker()
	return !e.aborted(ctx)
}

// wait pauses for the segment delay, returning early on Stop or ctx.
func (e *Engine) wait(ctx context.Context, wake <-chan struct{}) {
	if e.opts.SegmentDelay <= 0 {
		return
	}
	select {
	case <-e.clock.After(e.opts.SegmentDelay):
	case <-wake:
	case <-ctx.Done():
	}
}

func (e *Engine) aborted(ctx context.Context) bool {
	return e.abort.Load() || ctx.Err() != nil
}

// cancel leaves the map in the static, fully resolved state.
func (e *Engine) cancel(vis []domain.FlightVisualization) Outcome {
	e.renderer.Scene().ClearMovingMarker()
	e.renderer.Render(vis)
	return OutcomeCancelled
}
