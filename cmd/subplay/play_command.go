package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"subplay/internal/config"
	"subplay/internal/cuefeed"
	"subplay/internal/embedded"
	"subplay/internal/logging"
	"subplay/internal/playback"
	"subplay/internal/remote"
	"subplay/internal/session"
	"subplay/internal/subtitle"
)

const (
	playTailMs       = 250
	playPollInterval = 50 * time.Millisecond
)

type playOptions struct {
	query      string
	media      string
	delayMs    int64
	delaySet   bool
	startMs    uint64
	durationMs uint64
	serve      bool
	bind       string
}

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play [subtitle-file]",
		Short: "Simulate playback and print cues as they become active",
		Long: "Runs the subtitle manager against a wall-clock position source. Pass a " +
			"subtitle file to load it directly, or --query to use the one-shot automatic " +
			"remote search for the media key. Cues are printed as they change and can be " +
			"streamed to renderers over WebSocket with --serve.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = strings.TrimSpace(args[0])
			}
			if file == "" && strings.TrimSpace(opts.query) == "" {
				return fmt.Errorf("provide a subtitle file or --query. Example: subplay play movie.srt")
			}
			if file != "" {
				if _, err := os.Stat(file); err != nil {
					if os.IsNotExist(err) {
						return fmt.Errorf("subtitle file %q not found", file)
					}
					return fmt.Errorf("stat subtitle file: %w", err)
				}
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			loader, err := ctx.loader()
			if err != nil {
				return err
			}
			opts.delaySet = cmd.Flags().Changed("delay")
			return runPlay(cmd, cfg, logger, loader, file, opts)
		},
	}

	cmd.Flags().StringVar(&opts.query, "query", "", "Title to search remotely when no subtitle file is given")
	cmd.Flags().StringVar(&opts.media, "media", "", "Media file or key used for session state (defaults to the subtitle file name or query)")
	cmd.Flags().Int64Var(&opts.delayMs, "delay", 0, "Subtitle delay in milliseconds (positive shows subtitles later)")
	cmd.Flags().Uint64Var(&opts.startMs, "start", 0, "Start position in milliseconds")
	cmd.Flags().Uint64Var(&opts.durationMs, "duration", 0, "Stop after this position in milliseconds (defaults to the last cue)")
	cmd.Flags().BoolVar(&opts.serve, "serve", false, "Stream cues over WebSocket while playing")
	cmd.Flags().StringVar(&opts.bind, "bind", "", "Cue feed bind address (defaults to feed.bind)")
	return cmd
}

func runPlay(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, loader *remote.Client, file string, opts playOptions) error {
	runCtx := cmd.Context()
	logger = logging.NewComponentLogger(logger, "play")

	key := mediaKey(file, opts)
	recorder := &recordingLoader{Loader: loader}
	printer := &cuePrinter{out: cmd.OutOrStdout(), live: isTerminal(cmd.OutOrStdout())}

	store, sess := openPlaySession(runCtx, cfg, logger, key)
	if store != nil {
		defer store.Close()
	}
	if file == "" && sess.AutoSearched() {
		return fmt.Errorf("automatic search already used for %q; run `subplay session reset %s` or pass a subtitle file", key, key)
	}

	var hub *cuefeed.Hub
	if opts.serve {
		hub = cuefeed.NewHub(logger)
		bind := strings.TrimSpace(opts.bind)
		if bind == "" {
			bind = cfg.Feed.Bind
		}
		server, err := cuefeed.Listen(bind, hub)
		if err != nil {
			return err
		}
		serveCtx, stopServe := context.WithCancel(context.Background())
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := server.Serve(serveCtx); err != nil {
				logging.WarnWithContext(logger, "cue feed stopped", "cue_feed_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "renderers stop receiving cues"),
				)
			}
		}()
		defer func() {
			stopServe()
			<-served
		}()
		fmt.Fprintf(cmd.ErrOrStderr(), "Cue feed: %s\n", server.URL())
	}

	states := make(chan playback.State, 16)
	mgr := playback.New(recorder,
		playback.WithLogger(logger),
		playback.WithSyncInterval(cfg.SyncInterval()),
		playback.WithDelayStep(int64(cfg.Playback.DelayStepMillis)),
		playback.WithPreferEmbedded(cfg.Subtitles.PreferEmbedded),
		playback.WithCueHandler(func(cue playback.Cue) {
			printer.show(cue)
			if hub != nil {
				hub.Publish(cue)
			}
		}),
		playback.WithStateHandler(func(state playback.State) {
			select {
			case states <- state:
			default:
			}
		}),
	)
	defer mgr.Close()

	clock := playback.NewClock(opts.durationMs)
	clock.Seek(opts.startMs)
	media := playback.Media{Key: key, Query: strings.TrimSpace(opts.query), Position: clock}
	if file == "" {
		attachEmbeddedTracks(runCtx, cfg, logger, &media, opts.media, cmd.ErrOrStderr())
	}
	mgr.Open(media, sess)
	if opts.delaySet {
		mgr.SetDelay(opts.delayMs)
	}

	if file != "" {
		track := subtitle.Track{Name: filepath.Base(file), URL: file}
		if err := mgr.SelectTrack(track); err != nil {
			return err
		}
	} else {
		mgr.Enable()
	}
	if err := waitForLoad(runCtx, states); err != nil {
		if errors.Is(err, errLoadFailed) {
			snap := mgr.Snapshot()
			return fmt.Errorf("load subtitles for %q: %s", key, valueOrDash(snap.LastError))
		}
		return err
	}

	snap := mgr.Snapshot()
	if snap.Embedded != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Host renders embedded track %d (%s, %s)\n",
			snap.Embedded.TrackIndex, valueOrDash(snap.Embedded.Language), snap.Embedded.Format)
		return nil
	}
	if snap.Track != nil && store != nil {
		if err := store.RecordTrack(runCtx, key, *snap.Track); err != nil {
			logging.WarnWithContext(logger, "failed to record selected track", "session_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "session list will not show the track"),
			)
		}
	}
	if clock.DurationMs() == 0 {
		clock.SetDuration(recorder.lastEndMs() + playTailMs)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Playing %d cues from %s (delay %s)\n",
		snap.Cues, valueOrDash(trackName(snap.Track)), formatDelay(snap.DelayMs))

	clock.Play()
	if file != "" {
		mgr.Enable()
	}

	ticker := time.NewTicker(playPollInterval)
	defer ticker.Stop()
	interrupted := false
	for !interrupted && !clock.Finished() {
		select {
		case <-runCtx.Done():
			interrupted = true
		case <-ticker.C:
		}
	}
	position, _ := clock.CurrentPositionMs()
	mgr.Close()
	printer.finish()
	fmt.Fprintf(cmd.ErrOrStderr(), "Stopped at %s\n", formatClock(position))
	return nil
}

func mediaKey(file string, opts playOptions) string {
	if media := strings.TrimSpace(opts.media); media != "" {
		return filepath.Base(media)
	}
	if file != "" {
		return filepath.Base(file)
	}
	return strings.TrimSpace(opts.query)
}

// openPlaySession falls back to an in-memory session when the store is
// unavailable.
func openPlaySession(ctx context.Context, cfg *config.Config, logger *slog.Logger, key string) (*session.Store, playback.Session) {
	store, err := session.Open(cfg.Paths.SessionDB)
	if err == nil {
		sess, sessErr := store.Session(ctx, key)
		if sessErr == nil {
			return store, sess
		}
		store.Close()
		err = sessErr
	}
	logging.WarnWithContext(logger, "session store unavailable", "session_store_unavailable",
		logging.String(logging.FieldMediaKey, key),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check paths.session_db"),
		logging.String(logging.FieldImpact, "delay and search state are not persisted"),
	)
	return nil, playback.NewMemorySession()
}

// attachEmbeddedTracks exposes the text tracks of mediaPath to the manager
// when embedded tracks are preferred.
func attachEmbeddedTracks(ctx context.Context, cfg *config.Config, logger *slog.Logger, media *playback.Media, mediaPath string, out io.Writer) {
	mediaPath = strings.TrimSpace(mediaPath)
	if !cfg.Subtitles.PreferEmbedded || mediaPath == "" {
		return
	}
	if info, err := os.Stat(mediaPath); err != nil || info.IsDir() {
		return
	}
	tracks, err := embedded.ProbeTracks(ctx, cfg.Subtitles.FFprobeBinary, mediaPath)
	if err != nil {
		logging.WarnWithContext(logger, "embedded track probe failed", "embedded_probe_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check subtitles.ffprobe_binary"),
			logging.String(logging.FieldImpact, "falling back to remote search"),
		)
		return
	}
	host := &probedTracks{tracks: tracks, out: out}
	media.Tracks = host
	media.Activator = host
}

type probedTracks struct {
	tracks []embedded.HostTrack
	out    io.Writer
}

func (p *probedTracks) TextTracks() []embedded.HostTrack {
	return p.tracks
}

func (p *probedTracks) ActivateTextTrack(track subtitle.EmbeddedTrack) error {
	fmt.Fprintf(p.out, "Activated embedded track %d (%s)\n", track.TrackIndex, valueOrDash(track.Label))
	return nil
}

var errLoadFailed = errors.New("subtitle load failed")

func waitForLoad(ctx context.Context, states <-chan playback.State) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state := <-states:
			switch state {
			case playback.StateReady:
				return nil
			case playback.StateFailed:
				return errLoadFailed
			}
		}
	}
}

// recordingLoader remembers where the last loaded cue ends so the clock can
// stop after it.
type recordingLoader struct {
	playback.Loader

	mu    sync.Mutex
	endMs uint64
}

func (l *recordingLoader) AutoLoad(ctx context.Context, query string) (remote.Result, error) {
	result, err := l.Loader.AutoLoad(ctx, query)
	l.record(result, err)
	return result, err
}

func (l *recordingLoader) Load(ctx context.Context, track subtitle.Track) (remote.Result, error) {
	result, err := l.Loader.Load(ctx, track)
	l.record(result, err)
	return result, err
}

func (l *recordingLoader) record(result remote.Result, err error) {
	if err != nil {
		return
	}
	var end uint64
	for _, item := range result.Items {
		end = max(end, item.EndMs)
	}
	l.mu.Lock()
	l.endMs = end
	l.mu.Unlock()
}

func (l *recordingLoader) lastEndMs() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.endMs
}

// cuePrinter renders cue changes. On a terminal the active cue replaces the
// current line; otherwise each active cue is printed on its own line.
type cuePrinter struct {
	mu      sync.Mutex
	out     io.Writer
	live    bool
	pending bool
}

func (p *cuePrinter) show(cue playback.Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live {
		fmt.Fprint(p.out, "\r\x1b[K")
		p.pending = cue.Active
		if cue.Active {
			fmt.Fprintf(p.out, "%s  %s", formatClock(cue.Item.StartMs), singleLine(cue.Item.Text))
		}
		return
	}
	if cue.Active {
		fmt.Fprintf(p.out, "%s --> %s  %s\n", formatClock(cue.Item.StartMs), formatClock(cue.Item.EndMs), singleLine(cue.Item.Text))
	}
}

func (p *cuePrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live && p.pending {
		fmt.Fprintln(p.out)
		p.pending = false
	}
}

func trackName(track *subtitle.Track) string {
	if track == nil {
		return ""
	}
	return track.Name
}
