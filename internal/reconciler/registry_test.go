package reconciler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/sbcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubConfig struct {
	filter []string
	health time.Duration
}

func (c stubConfig) GetDisplayAddress() string        { return "127.0.0.1:4444" }
func (c stubConfig) GetConnectTimeout() time.Duration { return time.Second }
func (c stubConfig) GetUpdateDelay() time.Duration    { return 10 * time.Millisecond }
func (c stubConfig) GetSourceFilter() []string        { return c.filter }
func (c stubConfig) GetHealthInterval() time.Duration { return c.health }
func (c stubConfig) GetLookupEndpoint() string        { return "" }
func (c stubConfig) GetLookupTimeout() time.Duration  { return time.Second }

type fakeMonitor struct {
	events chan domain.MediaEvent

	mu   sync.Mutex
	dead map[string]bool
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{
		events: make(chan domain.MediaEvent, 32),
		dead:   make(map[string]bool),
	}
}

func (m *fakeMonitor) Start(ctx context.Context) error  { <-ctx.Done(); return nil }
func (m *fakeMonitor) Stop(ctx context.Context) error   { return nil }
func (m *fakeMonitor) Events() <-chan domain.MediaEvent { return m.events }

func (m *fakeMonitor) Alive(source string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.dead[source]
}

func (m *fakeMonitor) kill(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dead[source] = true
}

// recordingDisplay logs every call as a short string
type recordingDisplay struct {
	mu    sync.Mutex
	calls []string
}

func (d *recordingDisplay) UpdatePhase(phase domain.Phase, source string) {
	d.record(fmt.Sprintf("phase %s %s", source, phase))
}

func (d *recordingDisplay) UpdateSong(song domain.Song, source string) {
	d.record(fmt.Sprintf("song %s %s", source, song.Title))
}

func (d *recordingDisplay) Teardown() {
	d.record("teardown")
}

func (d *recordingDisplay) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *recordingDisplay) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func statusEvent(source, title string) domain.MediaEvent {
	return domain.MediaEvent{
		Kind:   domain.EventStatus,
		Source: source,
		Status: domain.MediaStatus{PlayerState: domain.PlayerPlaying, Title: title, ContentID: title},
	}
}

func newTestRegistry(cfg stubConfig) (*Registry, *fakeMonitor, *recordingDisplay) {
	mon := newFakeMonitor()
	display := &recordingDisplay{}
	return NewRegistry(zap.NewNop(), cfg, mon, display, nil), mon, display
}

func TestRegistry_DispatchLoop(t *testing.T) {
	reg, mon, display := newTestRegistry(stubConfig{})

	require.NoError(t, reg.Start(context.Background()))
	mon.events <- statusEvent("cast1", "Song")

	assert.Eventually(t, func() bool {
		return len(display.Calls()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"song cast1 Song", "phase cast1 PLAYING"}, display.Calls())
	assert.Equal(t, []string{"cast1"}, reg.Sources())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, reg.Stop(ctx))
	assert.Empty(t, reg.Sources())
}

func TestRegistry_Filter(t *testing.T) {
	reg, _, display := newTestRegistry(stubConfig{filter: []string{"Living Room"}})
	ctx := context.Background()

	reg.Dispatch(ctx, statusEvent("Kitchen", "Ignored"))
	reg.Dispatch(ctx, statusEvent("Kitchen", "Ignored again"))
	reg.Dispatch(ctx, statusEvent("Living Room", "Shown"))

	require.NoError(t, reg.Stop(ctx))
	assert.Equal(t, []string{"song Living Room Shown", "phase Living Room PLAYING"}, display.Calls())
	assert.Len(t, reg.ignored, 1)
}

func TestRegistry_RemovedSourceTearsDown(t *testing.T) {
	reg, _, display := newTestRegistry(stubConfig{})
	ctx := context.Background()

	reg.Dispatch(ctx, statusEvent("cast1", "Song"))
	reg.Dispatch(ctx, domain.MediaEvent{Kind: domain.EventRemoved, Source: "cast1"})

	assert.Equal(t, []string{"song cast1 Song", "phase cast1 PLAYING", "teardown"}, display.Calls())
	assert.Empty(t, reg.Sources())

	// Unknown sources are ignored
	reg.Dispatch(ctx, domain.MediaEvent{Kind: domain.EventRemoved, Source: "cast2"})
	assert.Len(t, display.Calls(), 3)
}

func TestRegistry_ReturningSourceStartsWithEmptyMemo(t *testing.T) {
	reg, _, display := newTestRegistry(stubConfig{})
	ctx := context.Background()

	reg.Dispatch(ctx, statusEvent("cast1", "Song"))
	reg.Remove("cast1", "test")
	reg.Dispatch(ctx, statusEvent("cast1", "Song"))
	require.NoError(t, reg.Stop(ctx))

	assert.Equal(t, []string{
		"song cast1 Song", "phase cast1 PLAYING",
		"teardown",
		"song cast1 Song", "phase cast1 PLAYING",
	}, display.Calls())
}

func TestRegistry_CheckHealth(t *testing.T) {
	reg, mon, display := newTestRegistry(stubConfig{})
	ctx := context.Background()

	reg.Dispatch(ctx, statusEvent("cast1", "One"))
	reg.Dispatch(ctx, statusEvent("cast2", "Two"))

	reg.CheckHealth()
	assert.ElementsMatch(t, []string{"cast1", "cast2"}, reg.Sources())

	mon.kill("cast2")
	reg.CheckHealth()
	assert.Equal(t, []string{"cast1"}, reg.Sources())
	assert.Contains(t, display.Calls(), "teardown")

	require.NoError(t, reg.Stop(ctx))
}

func TestRegistry_HealthTicker(t *testing.T) {
	reg, mon, display := newTestRegistry(stubConfig{health: 10 * time.Millisecond})

	require.NoError(t, reg.Start(context.Background()))
	mon.events <- statusEvent("cast1", "Song")

	assert.Eventually(t, func() bool { return len(reg.Sources()) == 1 }, time.Second, 5*time.Millisecond)
	mon.kill("cast1")
	assert.Eventually(t, func() bool { return len(reg.Sources()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, display.Calls(), "teardown")

	require.NoError(t, reg.Stop(context.Background()))
}

func TestRegistry_PerSourceOrdering(t *testing.T) {
	reg, _, display := newTestRegistry(stubConfig{})
	ctx := context.Background()

	var want []string
	for i := 0; i < 50; i++ {
		title := fmt.Sprintf("Track %d", i)
		reg.Dispatch(ctx, statusEvent("cast1", title))
		want = append(want, "song cast1 "+title, "phase cast1 PLAYING")
	}
	require.NoError(t, reg.Stop(ctx))

	assert.Equal(t, want, display.Calls())
}

// stallingDisplay blocks every song update of one source until released
type stallingDisplay struct {
	recordingDisplay
	stalled string
	release chan struct{}
}

func (d *stallingDisplay) UpdateSong(song domain.Song, source string) {
	if source == d.stalled {
		<-d.release
	}
	d.recordingDisplay.UpdateSong(song, source)
}

func TestRegistry_SlowSourceDoesNotStallDispatch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	display := &stallingDisplay{stalled: "slow", release: make(chan struct{})}
	reg := NewRegistry(zap.New(core), stubConfig{}, newFakeMonitor(), display, nil)
	ctx := context.Background()

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i := 0; i < 2*backlogWarning; i++ {
			reg.Dispatch(ctx, statusEvent("slow", fmt.Sprintf("Track %d", i)))
		}
		reg.Dispatch(ctx, statusEvent("fast", "Fast"))
	}()

	select {
	case <-dispatched:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked behind a stalled source")
	}

	assert.Eventually(t, func() bool {
		calls := display.Calls()
		return len(calls) == 2 && calls[0] == "song fast Fast"
	}, time.Second, 5*time.Millisecond)
	assert.NotZero(t, logs.FilterMessage("Media source is falling behind").Len())

	close(display.release)
	require.NoError(t, reg.Stop(ctx))

	// Every queued event of the slow source was still handled, in order
	var slow []string
	for _, call := range display.Calls() {
		if strings.HasPrefix(call, "song slow") {
			slow = append(slow, call)
		}
	}
	require.Len(t, slow, 2*backlogWarning)
	assert.Equal(t, "song slow Track 0", slow[0])
	assert.Equal(t, fmt.Sprintf("song slow Track %d", 2*backlogWarning-1), slow[len(slow)-1])
}

func TestRegistry_ClosedEventsEndLoop(t *testing.T) {
	reg, mon, _ := newTestRegistry(stubConfig{})

	require.NoError(t, reg.Start(context.Background()))
	close(mon.events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, reg.Stop(ctx))
}

func TestRegistry_StopWithoutStart(t *testing.T) {
	reg, _, _ := newTestRegistry(stubConfig{})
	assert.NoError(t, reg.Stop(context.Background()))
}
