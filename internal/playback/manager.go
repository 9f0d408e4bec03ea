package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"subplay/internal/embedded"
	"subplay/internal/logging"
	"subplay/internal/remote"
	"subplay/internal/services"
	"subplay/internal/subtitle"
)

const (
	defaultSyncInterval = 100 * time.Millisecond
	defaultDelayStepMs  = 500
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("playback manager closed")

// Manager owns the subtitle state for one player. All methods are safe for
// concurrent use. Handlers run synchronously and must not call back into the
// Manager.
type Manager struct {
	loader         Loader
	logger         *slog.Logger
	syncInterval   time.Duration
	delayStepMs    int64
	preferEmbedded bool
	cueHandler     func(Cue)
	stateHandler   func(State)

	// notifyMu serializes handler delivery; it is always taken before mu.
	notifyMu sync.Mutex
	mu       sync.Mutex
	wg       sync.WaitGroup

	closed      bool
	media       Media
	session     Session
	mediaCtx    context.Context
	mediaCancel context.CancelFunc

	enabled  bool
	delayMs  int64
	state    State
	timeline *subtitle.Timeline
	selected *subtitle.Track
	embedded *subtitle.EmbeddedTrack
	attempts int
	lastErr  error

	// searchClaimed marks the automatic search as used for the current media.
	searchClaimed bool
	loadSeq       uint64
	loadCancel    context.CancelFunc
	syncCancel    context.CancelFunc

	cueGen      uint64
	current     Cue
	pending     []State
	subscribers []chan Cue
}

// Option configures a Manager.
type Option func(*Manager)

// WithCueHandler registers fn to receive every change of the active cue.
func WithCueHandler(fn func(Cue)) Option {
	return func(m *Manager) { m.cueHandler = fn }
}

// WithStateHandler registers fn to receive every state transition in order.
func WithStateHandler(fn func(State)) Option {
	return func(m *Manager) { m.stateHandler = fn }
}

// WithSyncInterval sets the synchronization tick interval.
func WithSyncInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.syncInterval = d
		}
	}
}

// WithDelayStep sets the step used by NudgeDelay.
func WithDelayStep(ms int64) Option {
	return func(m *Manager) {
		if ms > 0 {
			m.delayStepMs = ms
		}
	}
}

// WithPreferEmbedded makes Enable activate a host text track, when the host
// exposes one, instead of searching remotely.
func WithPreferEmbedded(prefer bool) Option {
	return func(m *Manager) { m.preferEmbedded = prefer }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logging.NewComponentLogger(logger, "playback") }
}

// New constructs a Manager. loader may be nil when only embedded tracks are used.
func New(loader Loader, opts ...Option) *Manager {
	m := &Manager{
		loader:       loader,
		logger:       logging.NewComponentLogger(nil, "playback"),
		syncInterval: defaultSyncInterval,
		delayStepMs:  defaultDelayStepMs,
		session:      NewMemorySession(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.mediaCtx, m.mediaCancel = context.WithCancel(context.Background())
	return m
}

// Open attaches the Manager to a new media item. Any in-flight load and the
// sync loop of the previous item stop, loaded cues are dropped and the delay
// is restored from session. The enabled flag carries over; when set, the
// automatic load runs for the new item.
func (m *Manager) Open(media Media, session Session) {
	if session == nil {
		session = NewMemorySession()
	}
	delay := session.Delay()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.mediaCancel()
	m.loadSeq++
	m.loadCancel = nil
	m.syncCancel = nil
	m.dropTrackLocked()
	m.lastErr = nil
	m.setStateLocked(StateIdle)

	m.media = media
	m.session = session
	m.delayMs = delay
	m.searchClaimed = false
	m.mediaCtx, m.mediaCancel = context.WithCancel(context.Background())
	if m.enabled {
		m.startSyncLocked()
		m.autoLoadLocked()
	}
	gen := m.bumpLocked()
	m.mu.Unlock()

	m.logger.Debug("media opened", logging.String(logging.FieldMediaKey, media.Key), logging.Int64("delay_ms", delay))
	m.flushStates()
	m.publish(gen, Cue{})
}

// Enable turns cue publication on. When nothing is loaded yet and the
// automatic search has not been used for the current media, one automatic
// load starts; otherwise only visibility changes.
func (m *Manager) Enable() {
	m.mu.Lock()
	if m.closed || m.enabled {
		m.mu.Unlock()
		return
	}
	m.enabled = true
	m.startSyncLocked()
	m.autoLoadLocked()
	m.mu.Unlock()

	m.logger.Debug("subtitles enabled")
	m.flushStates()
}

// Disable stops cue publication immediately. Loaded cues are kept.
func (m *Manager) Disable() {
	m.mu.Lock()
	if m.closed || !m.enabled {
		m.mu.Unlock()
		return
	}
	m.enabled = false
	m.stopSyncLocked()
	gen := m.bumpLocked()
	m.mu.Unlock()

	m.logger.Debug("subtitles disabled")
	m.publish(gen, Cue{})
}

// SelectTrack cancels any in-flight load and loads track. The cue sequence is
// replaced only if this is still the most recent load when it completes.
func (m *Manager) SelectTrack(track subtitle.Track) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.loader == nil {
		m.mu.Unlock()
		return services.Wrap(services.ErrConfiguration, "playback", "select track", "no subtitle loader configured", nil)
	}
	loader := m.loader
	m.startLoadLocked("select", func(ctx context.Context) (loadOutcome, error) {
		result, err := loader.Load(ctx, track)
		return loadOutcome{result: result}, err
	})
	m.mu.Unlock()

	m.flushStates()
	return nil
}

// SelectEmbedded asks the host to render one of its own text tracks. Loaded
// cues are dropped since the host delivers embedded cues itself.
func (m *Manager) SelectEmbedded(track subtitle.EmbeddedTrack) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	activator := m.media.Activator
	if activator == nil {
		m.mu.Unlock()
		return services.Wrap(services.ErrValidation, "playback", "select embedded", "host exposes no track activator", nil)
	}
	m.cancelLoadLocked()
	seq := m.loadSeq
	m.mu.Unlock()

	if err := activator.ActivateTextTrack(track); err != nil {
		return services.Wrap(services.ErrValidation, "playback", "select embedded", "activate text track", err)
	}

	m.mu.Lock()
	if m.closed || seq != m.loadSeq {
		m.mu.Unlock()
		m.releaseEmbedded(activator, track)
		return nil
	}
	m.dropTrackLocked()
	m.embedded = &track
	m.lastErr = nil
	m.setStateLocked(StateReady)
	gen := m.bumpLocked()
	m.mu.Unlock()

	m.flushStates()
	m.publish(gen, Cue{})
	return nil
}

// SetDelay sets the delay in milliseconds. A positive delay shows subtitles
// later. It takes effect on the next tick.
func (m *Manager) SetDelay(ms int64) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.delayMs = ms
	session := m.session
	m.mu.Unlock()

	m.saveDelay(session, ms)
}

// NudgeDelay moves the delay by steps times the configured step and returns
// the new delay.
func (m *Manager) NudgeDelay(steps int) int64 {
	m.mu.Lock()
	if m.closed {
		delay := m.delayMs
		m.mu.Unlock()
		return delay
	}
	m.delayMs += int64(steps) * m.delayStepMs
	delay, session := m.delayMs, m.session
	m.mu.Unlock()

	m.saveDelay(session, delay)
	return delay
}

// Clear cancels any in-flight load and returns to Idle with nothing loaded.
// An embedded track activated by the Manager is released on hosts that
// implement TrackDeactivator.
func (m *Manager) Clear() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.cancelLoadLocked()
	dropped, activator := m.embedded, m.media.Activator
	m.dropTrackLocked()
	m.lastErr = nil
	m.setStateLocked(StateIdle)
	gen := m.bumpLocked()
	m.mu.Unlock()

	if dropped != nil {
		m.releaseEmbedded(activator, *dropped)
	}
	m.flushStates()
	m.publish(gen, Cue{})
}

// Close stops every background activity and waits for it to exit.
// Subscriber channels are closed afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.enabled = false
	m.mediaCancel()
	m.loadSeq++
	m.loadCancel = nil
	m.syncCancel = nil
	m.cueGen++
	m.mu.Unlock()

	m.wg.Wait()

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.mu.Lock()
	wasActive := m.current.Active
	m.current = Cue{}
	subs := m.subscribers
	m.subscribers = nil
	m.mu.Unlock()

	if wasActive && m.cueHandler != nil {
		m.cueHandler(Cue{})
	}
	for _, ch := range subs {
		if wasActive {
			offer(ch, Cue{})
		}
		close(ch)
	}
}

// Subscribe returns a channel receiving the current cue and every later
// change. A slow reader only sees the most recent value. The channel is
// closed by Close.
func (m *Manager) Subscribe() <-chan Cue {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	ch := make(chan Cue, 1)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch
	}
	m.subscribers = append(m.subscribers, ch)
	current := m.current
	m.mu.Unlock()

	ch <- current
	return ch
}

// State returns the current load state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the last published cue.
func (m *Manager) Current() Cue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Delay returns the current delay in milliseconds.
func (m *Manager) Delay() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delayMs
}

// CueAt returns the cue the sync loop would publish at positionMs with the
// current delay, regardless of the enabled flag.
func (m *Manager) CueAt(positionMs uint64) (subtitle.Item, bool) {
	m.mu.Lock()
	timeline, delay := m.timeline, m.delayMs
	m.mu.Unlock()
	return timeline.At(adjustedPosition(positionMs, delay))
}

// Snapshot returns a copy of the Manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		MediaKey:  m.media.Key,
		State:     m.state,
		StateName: m.state.String(),
		Enabled:   m.enabled,
		DelayMs:   m.delayMs,
		Cues:      m.timeline.Len(),
		Attempts:  m.attempts,
	}
	if m.selected != nil {
		track := *m.selected
		snap.Track = &track
	}
	if m.embedded != nil {
		track := *m.embedded
		snap.Embedded = &track
	}
	if m.lastErr != nil {
		snap.LastError = m.lastErr.Error()
	}
	return snap
}

type loadOutcome struct {
	result    remote.Result
	embedded  *subtitle.EmbeddedTrack
	activator TrackActivator
}

type loadFunc func(ctx context.Context) (loadOutcome, error)

// autoLoadLocked starts the automatic load for the current media when nothing
// is loaded or loading. Embedded tracks are tried first when preferred; the
// remote search runs at most once per media item, counted from the moment it
// is chosen.
func (m *Manager) autoLoadLocked() {
	if m.state == StateLoading || m.timeline.Len() > 0 || m.selected != nil || m.embedded != nil {
		return
	}
	media, session, loader := m.media, m.session, m.loader
	useEmbedded := m.preferEmbedded && media.Tracks != nil && media.Activator != nil
	searchable := loader != nil && !m.searchClaimed && !session.AutoSearched()
	if !useEmbedded && !searchable {
		return
	}
	// Without an embedded candidate the search is decided here.
	claimed := searchable && !useEmbedded
	if claimed {
		m.searchClaimed = true
	}
	logger := m.logger
	m.startLoadLocked("auto", func(ctx context.Context) (loadOutcome, error) {
		if useEmbedded {
			if !m.loadCurrent(ctx) {
				return loadOutcome{}, ctx.Err()
			}
			if track, ok := embedded.Select(embedded.FromHost(media.Tracks.TextTracks())); ok {
				if !m.loadCurrent(ctx) {
					return loadOutcome{}, ctx.Err()
				}
				err := media.Activator.ActivateTextTrack(track)
				if err == nil {
					return loadOutcome{embedded: &track, activator: media.Activator}, nil
				}
				logging.WarnWithContext(logging.WithContext(ctx, logger), "embedded track activation failed", "embedded_activation_failed",
					logging.Int("track_index", int(track.TrackIndex)),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the host player track list"),
				)
			}
		}
		if !searchable {
			return loadOutcome{}, nil
		}
		if !claimed && !m.claimAutoSearch(ctx) {
			return loadOutcome{}, ctx.Err()
		}
		if err := session.MarkAutoSearched(); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, logger), "failed to persist auto search flag", "session_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "automatic search may repeat for this media"),
			)
		}
		if err := ctx.Err(); err != nil {
			return loadOutcome{}, err
		}
		query := media.Query
		if query == "" {
			query = remote.QueryFromFilename(media.Key)
		}
		if query == "" {
			return loadOutcome{}, services.Wrap(services.ErrValidation, "playback", "auto load", "no search query for media", nil)
		}
		result, err := loader.AutoLoad(ctx, query)
		return loadOutcome{result: result}, err
	})
}

// loadCurrent reports whether the load owning ctx has not been superseded.
// Loads are cancelled under mu, so the answer holds until mu is released.
func (m *Manager) loadCurrent(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && ctx.Err() == nil
}

// claimAutoSearch marks the automatic search as used if the load owning ctx
// is still current and nothing claimed it first.
func (m *Manager) claimAutoSearch(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || ctx.Err() != nil || m.searchClaimed {
		return false
	}
	m.searchClaimed = true
	return true
}

// releaseEmbedded asks the host to stop rendering track.
func (m *Manager) releaseEmbedded(activator TrackActivator, track subtitle.EmbeddedTrack) {
	deactivator, ok := activator.(TrackDeactivator)
	if !ok {
		return
	}
	if err := deactivator.DeactivateTextTrack(); err != nil {
		logging.WarnWithContext(m.logger, "embedded track release failed", "embedded_release_failed",
			logging.Int("track_index", int(track.TrackIndex)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "host may keep rendering the previous track"),
		)
	}
}

func (m *Manager) startLoadLocked(kind string, run loadFunc) {
	m.cancelLoadLocked()
	seq := m.loadSeq
	ctx, cancel := context.WithCancel(services.WithMediaKey(m.mediaCtx, m.media.Key))
	m.loadCancel = cancel
	m.setStateLocked(StateLoading)
	m.wg.Add(1)
	go m.runLoad(ctx, cancel, seq, kind, run)
}

func (m *Manager) runLoad(ctx context.Context, cancel context.CancelFunc, seq uint64, kind string, run loadFunc) {
	defer m.wg.Done()
	defer cancel()

	logger := logging.WithContext(ctx, m.logger)
	started := time.Now()
	outcome, err := run(ctx)

	m.mu.Lock()
	if m.closed || seq != m.loadSeq {
		m.mu.Unlock()
		logger.Debug("load superseded", logging.String("load", kind))
		if outcome.embedded != nil {
			m.releaseEmbedded(outcome.activator, *outcome.embedded)
		}
		return
	}
	m.loadCancel = nil
	m.dropTrackLocked()
	switch {
	case err != nil:
		m.lastErr = err
		m.setStateLocked(StateFailed)
		m.setStateLocked(StateIdle)
	case outcome.embedded != nil:
		m.lastErr = nil
		m.embedded = outcome.embedded
		m.setStateLocked(StateReady)
	case len(outcome.result.Items) > 0:
		m.lastErr = nil
		track := outcome.result.Track
		m.timeline = subtitle.NewTimeline(outcome.result.Items)
		m.selected = &track
		m.attempts = outcome.result.Attempts
		m.setStateLocked(StateReady)
	default:
		m.setStateLocked(StateIdle)
	}
	gen := m.bumpLocked()
	enabled := m.enabled
	m.mu.Unlock()

	m.flushStates()
	switch {
	case err != nil:
		logging.WarnWithContext(logger, "subtitle load failed", "subtitle_load_failed",
			logging.String("load", kind),
			logging.String("reason", services.Classify(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "try another track or check remote credentials"),
			logging.String(logging.FieldImpact, "playback continues without subtitles"),
		)
	case outcome.embedded != nil:
		logger.Info("embedded track activated",
			logging.String("load", kind),
			logging.Int("track_index", int(outcome.embedded.TrackIndex)),
			logging.String("label", outcome.embedded.Label),
		)
	case len(outcome.result.Items) > 0:
		logger.Info("subtitles loaded",
			logging.String("load", kind),
			logging.String("track", outcome.result.Track.Name),
			logging.Int("cues", len(outcome.result.Items)),
			logging.Int("attempts", outcome.result.Attempts),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
	if enabled {
		m.tick()
		return
	}
	m.publish(gen, Cue{})
}

func (m *Manager) cancelLoadLocked() {
	if m.loadCancel != nil {
		m.loadCancel()
		m.loadCancel = nil
	}
	m.loadSeq++
}

func (m *Manager) dropTrackLocked() {
	m.timeline = nil
	m.selected = nil
	m.embedded = nil
	m.attempts = 0
}

func (m *Manager) setStateLocked(state State) {
	if m.state == state {
		return
	}
	m.state = state
	m.pending = append(m.pending, state)
}

// bumpLocked invalidates cue computations that started before the call.
func (m *Manager) bumpLocked() uint64 {
	m.cueGen++
	return m.cueGen
}

func (m *Manager) flushStates() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	if m.stateHandler == nil {
		return
	}
	for _, state := range pending {
		m.stateHandler(state)
	}
}

// publish records cue as current and notifies listeners when it changed and
// gen is still the latest generation.
func (m *Manager) publish(gen uint64, cue Cue) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.mu.Lock()
	if m.closed || gen != m.cueGen || cue == m.current {
		m.mu.Unlock()
		return
	}
	m.current = cue
	subs := append([]chan Cue(nil), m.subscribers...)
	m.mu.Unlock()

	if m.cueHandler != nil {
		m.cueHandler(cue)
	}
	for _, ch := range subs {
		offer(ch, cue)
	}
}

func (m *Manager) saveDelay(session Session, ms int64) {
	if session == nil {
		return
	}
	if err := session.SaveDelay(ms); err != nil {
		logging.WarnWithContext(m.logger, "failed to persist delay", "session_write_failed",
			logging.Int64("delay_ms", ms),
			logging.Error(err),
			logging.String(logging.FieldImpact, "delay resets on next open"),
		)
	}
}

// offer delivers cue, replacing an unread older value.
func offer(ch chan Cue, cue Cue) {
	select {
	case ch <- cue:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- cue:
	default:
	}
}
