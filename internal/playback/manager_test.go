package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"subplay/internal/embedded"
	"subplay/internal/remote"
	"subplay/internal/services"
	"subplay/internal/subtitle"
)

type fakePosition struct {
	mu sync.Mutex
	ms uint64
	ok bool
}

func (p *fakePosition) Set(ms uint64, ok bool) {
	p.mu.Lock()
	p.ms, p.ok = ms, ok
	p.mu.Unlock()
}

func (p *fakePosition) CurrentPositionMs() (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ms, p.ok
}

func (p *fakePosition) DurationMs() uint64 { return 0 }

type fakeLoader struct {
	mu         sync.Mutex
	autoCalls  int
	queries    []string
	autoResult remote.Result
	autoErr    error
	load       func(ctx context.Context, track subtitle.Track) (remote.Result, error)
}

func (f *fakeLoader) AutoLoad(_ context.Context, query string) (remote.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoCalls++
	f.queries = append(f.queries, query)
	return f.autoResult, f.autoErr
}

func (f *fakeLoader) Load(ctx context.Context, track subtitle.Track) (remote.Result, error) {
	if f.load != nil {
		return f.load(ctx, track)
	}
	return remote.Result{Track: track, Items: helloWorld(), Attempts: 1}, nil
}

func (f *fakeLoader) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.autoCalls
}

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

type fakeHost struct {
	mu        sync.Mutex
	tracks    []embedded.HostTrack
	activated []subtitle.EmbeddedTrack
}

func (h *fakeHost) TextTracks() []embedded.HostTrack { return h.tracks }

func (h *fakeHost) ActivateTextTrack(track subtitle.EmbeddedTrack) error {
	h.mu.Lock()
	h.activated = append(h.activated, track)
	h.mu.Unlock()
	return nil
}

func helloWorld() []subtitle.Item {
	return []subtitle.Item{
		{StartMs: 0, EndMs: 2000, Text: "Hello"},
		{StartMs: 2000, EndMs: 4000, Text: "World"},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func waitCue(t *testing.T, ch <-chan Cue, text string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case cue, ok := <-ch:
			if !ok {
				t.Fatal("cue channel closed")
			}
			if text == "" && !cue.Active {
				return
			}
			if cue.Active && cue.Item.Text == text {
				return
			}
		case <-deadline:
			t.Fatalf("cue %q not published", text)
		}
	}
}

func loadReady(t *testing.T, m *Manager) {
	t.Helper()
	if err := m.SelectTrack(subtitle.Track{Name: "movie.srt"}); err != nil {
		t.Fatalf("SelectTrack returned error: %v", err)
	}
	waitFor(t, func() bool { return m.State() == StateReady })
}

func TestDelayScenarioPublishesExpectedCues(t *testing.T) {
	pos := &fakePosition{}
	m := New(&fakeLoader{}, WithSyncInterval(2*time.Millisecond))
	defer m.Close()
	m.Open(Media{Key: "movie.mkv", Position: pos}, nil)
	loadReady(t, m)
	m.SetDelay(-500)

	if item, ok := m.CueAt(2200); !ok || item.Text != "World" {
		t.Fatalf("CueAt(2200) = %+v, %v", item, ok)
	}
	if item, ok := m.CueAt(1400); !ok || item.Text != "Hello" {
		t.Fatalf("CueAt(1400) = %+v, %v", item, ok)
	}
	if item, ok := m.CueAt(4200); ok {
		t.Fatalf("CueAt(4200) = %+v, want none", item)
	}

	cues := m.Subscribe()
	pos.Set(2200, true)
	m.Enable()
	waitCue(t, cues, "World")
	pos.Set(1400, true)
	waitCue(t, cues, "Hello")
	pos.Set(4200, true)
	waitCue(t, cues, "")
}

func TestRepeatedTicksPublishOnce(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []Cue
	)
	pos := &fakePosition{ms: 1000, ok: true}
	m := New(&fakeLoader{},
		WithSyncInterval(2*time.Millisecond),
		WithCueHandler(func(c Cue) {
			mu.Lock()
			seen = append(seen, c)
			mu.Unlock()
		}),
	)
	defer m.Close()
	m.Open(Media{Key: "movie.mkv", Position: pos}, nil)
	loadReady(t, m)
	m.Enable()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	})
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0].Item.Text != "Hello" {
		t.Fatalf("expected exactly one Hello notification, got %+v", seen)
	}
}

func TestDelayShiftsBoundaryExactly(t *testing.T) {
	m := New(&fakeLoader{})
	defer m.Close()
	m.Open(Media{Key: "movie.mkv"}, nil)
	loadReady(t, m)

	cases := []struct {
		delay int64
		last  uint64
	}{
		{0, 2000},
		{300, 2300},
		{-300, 1700},
	}
	for _, tc := range cases {
		m.SetDelay(tc.delay)
		if item, ok := m.CueAt(tc.last); !ok || item.Text != "Hello" {
			t.Fatalf("delay %d: CueAt(%d) = %+v, want Hello", tc.delay, tc.last, item)
		}
		if item, ok := m.CueAt(tc.last + 1); !ok || item.Text != "World" {
			t.Fatalf("delay %d: CueAt(%d) = %+v, want World", tc.delay, tc.last+1, item)
		}
	}

	m.SetDelay(5000)
	if item, ok := m.CueAt(100); !ok || item.Text != "Hello" {
		t.Fatalf("lookup position should clamp at zero, got %+v", item)
	}
}

func TestSelectTrackLastRequestWins(t *testing.T) {
	release := make(chan struct{})
	loader := &fakeLoader{load: func(_ context.Context, track subtitle.Track) (remote.Result, error) {
		if track.Name == "first" {
			<-release
		}
		return remote.Result{Track: track, Items: []subtitle.Item{{StartMs: 0, EndMs: 1000, Text: track.Name}}}, nil
	}}
	rec := &stateRecorder{}
	m := New(loader, WithStateHandler(rec.record))
	defer m.Close()
	m.Open(Media{Key: "movie.mkv"}, nil)

	if err := m.SelectTrack(subtitle.Track{Name: "first"}); err != nil {
		t.Fatalf("SelectTrack first: %v", err)
	}
	if err := m.SelectTrack(subtitle.Track{Name: "second"}); err != nil {
		t.Fatalf("SelectTrack second: %v", err)
	}
	waitFor(t, func() bool { return m.State() == StateReady })
	close(release)
	m.wg.Wait()

	snap := m.Snapshot()
	if snap.Track == nil || snap.Track.Name != "second" {
		t.Fatalf("expected second track, got %+v", snap.Track)
	}
	if item, ok := m.CueAt(500); !ok || item.Text != "second" {
		t.Fatalf("expected cues of second load, got %+v", item)
	}
	states := rec.snapshot()
	if len(states) != 2 || states[0] != StateLoading || states[1] != StateReady {
		t.Fatalf("unexpected transitions %v", states)
	}
}

func TestAutoSearchRunsOncePerSession(t *testing.T) {
	loader := &fakeLoader{autoErr: services.Wrap(services.ErrAllCandidatesFailed, "remote", "load", "3 candidates", nil)}
	rec := &stateRecorder{}
	session := NewMemorySession()
	pos := &fakePosition{ms: 500, ok: true}
	m := New(loader, WithStateHandler(rec.record), WithSyncInterval(2*time.Millisecond))
	defer m.Close()
	media := Media{Key: "/media/Some.Movie.2020.1080p.mkv", Position: pos}
	m.Open(media, session)

	m.Enable()
	waitFor(t, func() bool { return len(rec.snapshot()) == 3 })
	states := rec.snapshot()
	if states[0] != StateLoading || states[1] != StateFailed || states[2] != StateIdle {
		t.Fatalf("unexpected transitions %v", states)
	}

	m.Disable()
	m.Enable()
	m.Open(media, session)
	time.Sleep(20 * time.Millisecond)

	if calls := loader.calls(); calls != 1 {
		t.Fatalf("expected one automatic search, got %d", calls)
	}
	if loader.queries[0] != "Some Movie" {
		t.Fatalf("unexpected query %q", loader.queries[0])
	}
	if !session.AutoSearched() {
		t.Fatal("session should record the automatic search")
	}
	if m.Current().Active {
		t.Fatal("failed load must not publish a cue")
	}
	if m.State() != StateIdle {
		t.Fatalf("expected idle, got %s", m.State())
	}
}

func TestFailureKeepsLastErrorSilently(t *testing.T) {
	loader := &fakeLoader{autoErr: errors.New("boom")}
	m := New(loader)
	defer m.Close()
	m.Open(Media{Key: "Movie.mkv"}, nil)
	m.Enable()
	waitFor(t, func() bool { return m.Snapshot().LastError != "" })
	snap := m.Snapshot()
	if snap.State != StateIdle || snap.Track != nil || snap.Cues != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestAutoLoadSuccess(t *testing.T) {
	loader := &fakeLoader{autoResult: remote.Result{
		Track:    subtitle.Track{ID: "7", Name: "movie.chs.srt"},
		Items:    helloWorld(),
		Attempts: 2,
	}}
	pos := &fakePosition{ms: 2500, ok: true}
	m := New(loader, WithSyncInterval(2*time.Millisecond))
	defer m.Close()
	cues := m.Subscribe()
	m.Open(Media{Key: "movie.mkv", Query: "Movie", Position: pos}, nil)
	m.Enable()
	waitCue(t, cues, "World")

	snap := m.Snapshot()
	if snap.State != StateReady || snap.Cues != 2 || snap.Attempts != 2 || snap.Track.ID != "7" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if loader.queries[0] != "Movie" {
		t.Fatalf("explicit query should win, got %q", loader.queries[0])
	}
}

func TestEnablePrefersEmbeddedTrack(t *testing.T) {
	host := &fakeHost{tracks: []embedded.HostTrack{
		{Index: 2, Language: "eng", MIMEType: "application/x-subrip"},
		{Index: 3, Label: "简体中文", MIMEType: "text/x-ssa"},
		{Index: 4, Language: "chi", MIMEType: "image/x-pgs"},
	}}
	loader := &fakeLoader{}
	session := NewMemorySession()
	m := New(loader, WithPreferEmbedded(true))
	defer m.Close()
	m.Open(Media{Key: "movie.mkv", Tracks: host, Activator: host}, session)
	m.Enable()
	waitFor(t, func() bool { return m.State() == StateReady })

	snap := m.Snapshot()
	if snap.Embedded == nil || snap.Embedded.TrackIndex != 3 {
		t.Fatalf("expected embedded track 3, got %+v", snap.Embedded)
	}
	if loader.calls() != 0 || session.AutoSearched() {
		t.Fatal("remote search should be skipped when an embedded track is used")
	}
	host.mu.Lock()
	defer host.mu.Unlock()
	if len(host.activated) != 1 || host.activated[0].Format != subtitle.FormatASS {
		t.Fatalf("unexpected activations %+v", host.activated)
	}
}

func TestEmbeddedPreferenceFallsBackToRemote(t *testing.T) {
	host := &fakeHost{tracks: []embedded.HostTrack{{Index: 1, MIMEType: "image/x-pgs"}}}
	loader := &fakeLoader{autoResult: remote.Result{Track: subtitle.Track{Name: "remote.srt"}, Items: helloWorld()}}
	m := New(loader, WithPreferEmbedded(true))
	defer m.Close()
	m.Open(Media{Key: "movie.mkv", Tracks: host, Activator: host}, nil)
	m.Enable()
	waitFor(t, func() bool { return m.State() == StateReady })
	if loader.calls() != 1 || m.Snapshot().Embedded != nil {
		t.Fatalf("expected remote fallback, snapshot %+v", m.Snapshot())
	}
}

// gatedHost blocks in TextTracks or ActivateTextTrack until released so a
// test can interleave commands with an in-flight automatic load.
type gatedHost struct {
	fakeHost
	gateTracks  bool
	entered     chan struct{}
	release     chan struct{}
	deactivated int
}

func newGatedHost(gateTracks bool, tracks ...embedded.HostTrack) *gatedHost {
	return &gatedHost{
		fakeHost:   fakeHost{tracks: tracks},
		gateTracks: gateTracks,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (h *gatedHost) TextTracks() []embedded.HostTrack {
	if h.gateTracks {
		close(h.entered)
		<-h.release
	}
	return h.fakeHost.TextTracks()
}

func (h *gatedHost) ActivateTextTrack(track subtitle.EmbeddedTrack) error {
	if !h.gateTracks {
		close(h.entered)
		<-h.release
	}
	return h.fakeHost.ActivateTextTrack(track)
}

func (h *gatedHost) DeactivateTextTrack() error {
	h.mu.Lock()
	h.deactivated++
	h.mu.Unlock()
	return nil
}

func (h *gatedHost) counts() (activated, deactivated int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.activated), h.deactivated
}

func TestClearBeforeEmbeddedActivationSkipsHost(t *testing.T) {
	host := newGatedHost(true, embedded.HostTrack{Index: 2, Label: "简体", MIMEType: "application/x-subrip"})
	m := New(nil, WithPreferEmbedded(true))
	m.Open(Media{Key: "movie.mkv", Tracks: host, Activator: host}, nil)
	m.Enable()
	<-host.entered
	m.Clear()
	close(host.release)
	m.Close()

	if activated, _ := host.counts(); activated != 0 {
		t.Fatalf("host activated %d tracks after clear", activated)
	}
	snap := m.Snapshot()
	if snap.State != StateIdle || snap.Embedded != nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSupersededEmbeddedActivationIsReleased(t *testing.T) {
	host := newGatedHost(false, embedded.HostTrack{Index: 2, Label: "简体", MIMEType: "application/x-subrip"})
	m := New(nil, WithPreferEmbedded(true))
	m.Open(Media{Key: "movie.mkv", Tracks: host, Activator: host}, nil)
	m.Enable()
	<-host.entered
	m.Clear()
	close(host.release)
	m.Close()

	activated, deactivated := host.counts()
	if activated != 1 || deactivated != 1 {
		t.Fatalf("expected activation to be undone, activated=%d deactivated=%d", activated, deactivated)
	}
	if snap := m.Snapshot(); snap.Embedded != nil {
		t.Fatalf("manager should hold no embedded track, got %+v", snap.Embedded)
	}
}

func TestClearReleasesActiveEmbeddedTrack(t *testing.T) {
	host := newGatedHost(true, embedded.HostTrack{Index: 2, Label: "简体", MIMEType: "application/x-subrip"})
	close(host.release)
	m := New(nil, WithPreferEmbedded(true))
	defer m.Close()
	m.Open(Media{Key: "movie.mkv", Tracks: host, Activator: host}, nil)
	m.Enable()
	waitFor(t, func() bool { return m.State() == StateReady })

	m.Clear()
	if activated, deactivated := host.counts(); activated != 1 || deactivated != 1 {
		t.Fatalf("activated=%d deactivated=%d", activated, deactivated)
	}
}

func TestAutoSearchRunsOncePerMediaAcrossClear(t *testing.T) {
	loader := &fakeLoader{autoErr: services.ErrNoResults}
	session := NewMemorySession()
	m := New(loader)
	m.Open(Media{Key: "Movie.2019.1080p.mkv"}, session)
	m.Enable()
	m.Clear()
	m.Disable()
	m.Enable()
	if state := m.State(); state != StateIdle {
		t.Fatalf("second enable must not start a search, state %s", state)
	}
	m.Close()

	if calls := loader.calls(); calls > 1 {
		t.Fatalf("automatic search ran %d times", calls)
	}
	if !session.AutoSearched() {
		t.Fatal("auto search flag should be persisted once the search is chosen")
	}
}

func TestClearDropsTrack(t *testing.T) {
	pos := &fakePosition{ms: 100, ok: true}
	m := New(&fakeLoader{}, WithSyncInterval(2*time.Millisecond))
	defer m.Close()
	cues := m.Subscribe()
	m.Open(Media{Key: "movie.mkv", Position: pos}, nil)
	loadReady(t, m)
	m.Enable()
	waitCue(t, cues, "Hello")

	m.Clear()
	waitCue(t, cues, "")
	snap := m.Snapshot()
	if snap.State != StateIdle || snap.Track != nil || snap.Cues != 0 {
		t.Fatalf("unexpected snapshot after clear %+v", snap)
	}
	if _, ok := m.CueAt(100); ok {
		t.Fatal("expected no cue after clear")
	}
}

func TestDisableKeepsItems(t *testing.T) {
	pos := &fakePosition{ms: 100, ok: true}
	m := New(&fakeLoader{}, WithSyncInterval(2*time.Millisecond))
	defer m.Close()
	cues := m.Subscribe()
	m.Open(Media{Key: "movie.mkv", Position: pos}, nil)
	loadReady(t, m)
	m.Enable()
	waitCue(t, cues, "Hello")

	m.Disable()
	if m.Current().Active {
		t.Fatal("disable must clear the published cue immediately")
	}
	if m.Snapshot().Cues != 2 {
		t.Fatal("disable must keep loaded cues")
	}
	m.Enable()
	waitCue(t, cues, "Hello")
}

func TestUnavailablePositionPublishesNothing(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	pos := &fakePosition{ms: 100, ok: false}
	m := New(&fakeLoader{},
		WithSyncInterval(2*time.Millisecond),
		WithCueHandler(func(Cue) {
			mu.Lock()
			calls++
			mu.Unlock()
		}),
	)
	defer m.Close()
	m.Open(Media{Key: "movie.mkv", Position: pos}, nil)
	loadReady(t, m)
	m.Enable()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 || m.Current().Active {
		t.Fatalf("expected no cue while position is unavailable, got %d notifications", calls)
	}
}

func TestOpenRestoresDelayAndResetsTrack(t *testing.T) {
	m := New(&fakeLoader{})
	defer m.Close()
	m.Open(Media{Key: "one.mkv"}, nil)
	loadReady(t, m)

	next := NewMemorySession()
	_ = next.SaveDelay(250)
	m.Open(Media{Key: "two.mkv"}, next)

	snap := m.Snapshot()
	if snap.MediaKey != "two.mkv" || snap.DelayMs != 250 || snap.Track != nil || snap.State != StateIdle {
		t.Fatalf("unexpected snapshot after open %+v", snap)
	}
}

func TestNudgeDelayPersists(t *testing.T) {
	session := NewMemorySession()
	m := New(nil, WithDelayStep(250))
	defer m.Close()
	m.Open(Media{Key: "movie.mkv"}, session)

	if got := m.NudgeDelay(2); got != 500 {
		t.Fatalf("NudgeDelay(2) = %d", got)
	}
	if got := m.NudgeDelay(-3); got != -250 {
		t.Fatalf("NudgeDelay(-3) = %d", got)
	}
	if session.Delay() != -250 || m.Delay() != -250 {
		t.Fatalf("delay not persisted: session=%d manager=%d", session.Delay(), m.Delay())
	}
}

func TestSelectTrackWithoutLoader(t *testing.T) {
	m := New(nil)
	defer m.Close()
	m.Open(Media{Key: "movie.mkv"}, nil)
	if err := m.SelectTrack(subtitle.Track{Name: "x.srt"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	pos := &fakePosition{ms: 100, ok: true}
	m := New(&fakeLoader{}, WithSyncInterval(2*time.Millisecond))
	cues := m.Subscribe()
	m.Open(Media{Key: "movie.mkv", Position: pos}, nil)
	loadReady(t, m)
	m.Enable()
	waitCue(t, cues, "Hello")

	m.Close()
	m.Close()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-cues:
			if !ok {
				if err := m.SelectTrack(subtitle.Track{Name: "late.srt"}); !errors.Is(err, ErrClosed) {
					t.Fatalf("expected ErrClosed, got %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed")
		}
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{StateIdle: "idle", StateLoading: "loading", StateReady: "ready", StateFailed: "failed", State(9): "unknown"} {
		if state.String() != want {
			t.Fatalf("State(%d).String() = %q, want %q", state, state.String(), want)
		}
	}
}
