package playback

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-map-service/internal/domain"
	"github.com/couchcryptid/flight-map-service/internal/render"
)

var (
	hel = domain.Airport{IATACode: "HEL", Name: "Helsinki Vantaa Airport", Country: "FI", Coordinates: domain.Coordinates{Lat: 60.3172, Lon: 24.963301}}
	arn = domain.Airport{IATACode: "ARN", Name: "Stockholm-Arlanda Airport", Country: "SE", Coordinates: domain.Coordinates{Lat: 59.651901, Lon: 17.9186}}
	jfk = domain.Airport{IATACode: "JFK", Name: "John F Kennedy International Airport", Country: "US", Coordinates: domain.Coordinates{Lat: 40.639447, Lon: -73.779317}}
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func flight(code string, dep, arr domain.Airport, offset time.Duration) domain.FlightVisualization {
	return domain.FlightVisualization{
		Flight: domain.Flight{
			Airline:                 "Finnair",
			FlightCode:              code,
			DepartureAirport:        dep.IATACode,
			ArrivalAirport:          arr.IATACode,
			DepartureTimestampLocal: base.Add(offset),
			ArrivalTimestampLocal:   base.Add(offset + 2*time.Hour),
		},
		DepartureAirport:   dep,
		ArrivalAirport:     arr,
		Airline:            "Finnair",
		FlightCode:         code,
		DepartureTimestamp: base.Add(offset),
		ArrivalTimestamp:   base.Add(offset + 2*time.Hour),
	}
}

// Deliberately out of departure order.
func sample() []domain.FlightVisualization {
	return []domain.FlightVisualization{
		flight("AY3", hel, jfk, 2*time.Hour),
		flight("AY1", hel, arn, 0),
		flight("AY2", arn, hel, time.Hour),
	}
}

func newEngine(delay time.Duration) (*Engine, *render.Renderer, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(base)
	r := render.NewRenderer(render.DefaultOptions())
	e := New(r, Options{SegmentDelay: delay, HighlightDuration: 800 * time.Millisecond, Clock: clock}, discardLogger())
	return e, r, clock
}

type result struct {
	outcome Outcome
	err     error
}

func playAsync(ctx context.Context, e *Engine, v []domain.FlightVisualization) <-chan result {
	done := make(chan result, 1)
	go func() {
		o, err := e.Play(ctx, v)
		done <- result{o, err}
	}()
	return done
}

func TestPlay_CompletesInDepartureOrder(t *testing.T) {
	e, r, clock := newEngine(0)

	outcome, err := e.Play(context.Background(), sample())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)

	snap := r.Scene().Snapshot()
	require.Len(t, snap.Markers, 3)
	assert.Equal(t, "HEL", snap.Markers[0].Code)
	assert.Equal(t, "ARN", snap.Markers[1].Code)
	assert.Equal(t, "JFK", snap.Markers[2].Code)
	assert.Nil(t, snap.Moving)

	// One route per flight, including both directions of HEL-ARN.
	require.Len(t, snap.Routes, 3)
	assert.Equal(t, "AY1", snap.Routes[0].Popup.Outbound[0].FlightCode)
	assert.Equal(t, "AY2", snap.Routes[1].Popup.Outbound[0].FlightCode)
	assert.Equal(t, "AY3", snap.Routes[2].Popup.Outbound[0].FlightCode)
	for _, route := range snap.Routes {
		assert.Len(t, route.Segments, render.SegmentCount)
	}

	// ARN and HEL were already drawn when AY2 and AY3 came round.
	until := clock.Now().Add(800 * time.Millisecond)
	assert.Equal(t, until, snap.Markers[0].HighlightUntil)
	assert.Equal(t, until, snap.Markers[1].HighlightUntil)
	assert.True(t, snap.Markers[2].HighlightUntil.IsZero())

	st := e.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, OutcomeCompleted, st.LastOutcome)
	assert.Equal(t, 3, st.FlightsShown)
	assert.Equal(t, 3, st.FlightsTotal)
}

func TestPlay_ColorsUseWholeSequence(t *testing.T) {
	e, r, _ := newEngine(0)
	_, err := e.Play(context.Background(), sample())
	require.NoError(t, err)

	snap := r.Scene().Snapshot()
	// HEL touches all 3 flights from the first moment it is drawn.
	assert.Equal(t, render.ColorRed, snap.Markers[0].Color)
	assert.Equal(t, 3, snap.Markers[0].Popup.Flights)
}

func TestPlay_AnimatesSegmentBySegment(t *testing.T) {
	e, r, clock := newEngine(40 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := playAsync(ctx, e, sample())

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	snap := r.Scene().Snapshot()
	require.Len(t, snap.Routes, 1)
	require.Len(t, snap.Routes[0].Segments, 1)
	require.NotNil(t, snap.Moving)
	seg := snap.Routes[0].Segments[0]
	assert.Equal(t, seg.Points[len(seg.Points)-1], snap.Moving.Position)
	assert.Equal(t, StatePlaying, e.Status().State)

	clock.Advance(40 * time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	snap = r.Scene().Snapshot()
	require.Len(t, snap.Routes[0].Segments, 2)
	seg = snap.Routes[0].Segments[1]
	assert.Equal(t, seg.Points[len(seg.Points)-1], snap.Moving.Position)

	require.True(t, e.Stop())
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, OutcomeCancelled, res.outcome)
}

func TestPlay_StopRestoresStaticScene(t *testing.T) {
	e, r, clock := newEngine(40 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v := sample()
	done := playAsync(ctx, e, v)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	for range 12 {
		clock.Advance(40 * time.Millisecond)
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
	}

	require.True(t, e.Stop())
	res := <-done
	assert.Equal(t, OutcomeCancelled, res.outcome)

	static := render.NewRenderer(render.DefaultOptions())
	static.Render(v)
	if diff := cmp.Diff(static.Scene().Snapshot(), r.Scene().Snapshot()); diff != "" {
		t.Errorf("scene after stop differs from static render (-want +got):\n%s", diff)
	}

	st := e.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, OutcomeCancelled, st.LastOutcome)
	assert.Equal(t, 1, st.FlightsShown)
}

func TestPlay_StopDuringLastSegmentRestoresStaticScene(t *testing.T) {
	e, r, clock := newEngine(40 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v := []domain.FlightVisualization{flight("AY1", hel, arn, 0)}
	done := playAsync(ctx, e, v)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	for range render.SegmentCount - 1 {
		clock.Advance(40 * time.Millisecond)
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
	}
	require.Len(t, r.Scene().Snapshot().Routes[0].Segments, render.SegmentCount)

	require.True(t, e.Stop())
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, OutcomeCancelled, res.outcome)

	static := render.NewRenderer(render.DefaultOptions())
	static.Render(v)
	if diff := cmp.Diff(static.Scene().Snapshot(), r.Scene().Snapshot()); diff != "" {
		t.Errorf("scene after stop differs from static render (-want +got):\n%s", diff)
	}
	assert.Equal(t, OutcomeCancelled, e.Status().LastOutcome)
}

func TestPlay_ContextCancelStops(t *testing.T) {
	e, r, clock := newEngine(time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := playAsync(ctx, e, sample())
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	cancel()
	res := <-done
	assert.Equal(t, OutcomeCancelled, res.outcome)
	assert.Nil(t, r.Scene().Snapshot().Moving)
}

func TestPlay_RejectsConcurrentStart(t *testing.T) {
	e, _, clock := newEngine(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := playAsync(ctx, e, sample())
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	_, err := e.Play(ctx, sample())
	require.ErrorIs(t, err, ErrPlaybackActive)

	e.Stop()
	<-done
}

func TestStop_Idle(t *testing.T) {
	e, _, _ := newEngine(0)
	assert.False(t, e.Stop())
	assert.Equal(t, StateIdle, e.Status().State)
}

func TestPlay_EmptyCompletes(t *testing.T) {
	e, r, _ := newEngine(time.Second)
	outcome, err := e.Play(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	assert.Empty(t, r.Scene().Snapshot().Markers)
}

func TestPlay_CanRestartAfterStop(t *testing.T) {
	e, _, clock := newEngine(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := playAsync(ctx, e, sample())
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	e.Stop()
	<-done

	e.opts.SegmentDelay = 0
	outcome, err := e.Play(ctx, sample())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
}
