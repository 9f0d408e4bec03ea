package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"subplay/internal/config"
	"subplay/internal/language"
	"subplay/internal/logging"
	"subplay/internal/services"
	"subplay/internal/subtitle"
	"subplay/internal/subtitle/assrt"
	"subplay/internal/subtitle/parser"
)

const defaultMaxCandidates = 5

// API is the subset of the remote service the pipeline needs.
type API interface {
	Search(ctx context.Context, query string, opts assrt.SearchOptions) ([]assrt.Subtitle, error)
	Detail(ctx context.Context, id string) (assrt.Detail, error)
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

// Candidate is a ranked search result.
type Candidate struct {
	Track    subtitle.Track
	Declared []subtitle.Format
	Priority int
	Uploaded time.Time
}

// Result is a successfully loaded subtitle.
type Result struct {
	Track    subtitle.Track
	FileName string
	Items    []subtitle.Item
	Format   subtitle.Format
	Encoding string
	Attempts int
	Cached   bool
}

// Client runs the search and load pipeline.
type Client struct {
	api           API
	cache         *assrt.Cache
	logger        *slog.Logger
	resultLimit   int
	maxCandidates int
	charset       string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.NewComponentLogger(logger, "remote") }
}

// WithCache stores downloaded payloads in cache.
func WithCache(cache *assrt.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithResultLimit caps the search page size.
func WithResultLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.resultLimit = n
		}
	}
}

// WithMaxCandidates caps how many ranked candidates a load tries.
func WithMaxCandidates(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxCandidates = n
		}
	}
}

// WithCharset sets the legacy charset used for non UTF-8 payloads.
func WithCharset(charset string) Option {
	return func(c *Client) { c.charset = strings.TrimSpace(charset) }
}

// New constructs a Client around api.
func New(api API, opts ...Option) *Client {
	c := &Client{
		api:           api,
		logger:        logging.NewComponentLogger(nil, "remote"),
		resultLimit:   assrt.MaxResults,
		maxCandidates: defaultMaxCandidates,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// NewFromConfig wires the assrt client, the payload cache and the pipeline
// from application configuration.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "remote", "init", "config is nil", nil)
	}
	if !cfg.Remote.Enabled {
		return nil, services.Wrap(services.ErrConfiguration, "remote", "init", "remote search disabled (set remote.enabled = true)", nil)
	}
	api, err := assrt.New(assrt.Config{
		Token:          cfg.Remote.Token,
		BaseURL:        cfg.Remote.BaseURL,
		UserAgent:      cfg.Remote.UserAgent,
		ConnectTimeout: cfg.ConnectTimeout(),
		ReadTimeout:    cfg.ReadTimeout(),
		RequestTimeout: cfg.RequestTimeout(),
		MinInterval:    cfg.MinInterval(),
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithLogger(logger),
		WithResultLimit(cfg.Remote.ResultLimit),
		WithMaxCandidates(cfg.Remote.MaxCandidates),
		WithCharset(cfg.Subtitles.Charset),
	}
	if cfg.Remote.CacheEnabled && cfg.Paths.CacheDir != "" {
		cache, err := assrt.NewCache(cfg.Paths.CacheDir, logger)
		if err != nil {
			logging.WarnWithContext(logging.NewComponentLogger(logger, "remote"), "subtitle cache unavailable", "subtitle_cache_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.cache_dir permissions"),
				logging.String(logging.FieldImpact, "downloads will not be cached"),
			)
		} else {
			opts = append(opts, WithCache(cache))
		}
	}
	return New(api, opts...), nil
}

// NewLocal returns a Client that only loads local files. Remote operations
// fail with ErrConfiguration.
func NewLocal(cfg *config.Config, logger *slog.Logger) *Client {
	opts := []Option{WithLogger(logger)}
	if cfg != nil {
		opts = append(opts, WithCharset(cfg.Subtitles.Charset))
	}
	return New(nil, opts...)
}

func (c *Client) requireAPI(operation string) error {
	if c.api == nil {
		return services.Wrap(services.ErrConfiguration, "remote", operation, "remote search disabled (set remote.enabled = true)", nil)
	}
	return nil
}

// Search returns ranked candidates for query. Results with no recognized
// subtitle format are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	if err := c.requireAPI("search"); err != nil {
		return nil, err
	}
	subs, err := c.api.Search(ctx, query, assrt.SearchOptions{Count: c.resultLimit})
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, 0, len(subs))
	for _, sub := range subs {
		declared := subtitle.DeclaredFormats(sub.Subtype)
		if len(declared) == 0 {
			c.logger.Debug("candidate dropped: unsupported subtype",
				logging.String("id", sub.ID),
				logging.String("subtype", sub.Subtype),
			)
			continue
		}
		label := candidateLabel(sub)
		track := subtitle.Track{
			ID:       sub.ID,
			Name:     sub.Name(),
			Language: label,
		}
		if len(declared) == 1 {
			track.Format = declared[0]
		}
		if !sub.Uploaded.IsZero() {
			track.Upload = sub.Uploaded.Format(time.DateTime)
		}
		candidates = append(candidates, Candidate{
			Track:    track,
			Declared: declared,
			Priority: language.Priority(label, ""),
			Uploaded: sub.Uploaded,
		})
	}
	if len(candidates) == 0 {
		return nil, services.Wrap(services.ErrNoResults, "remote", "search", fmt.Sprintf("no usable subtitles for %q", query), nil)
	}
	rankCandidates(candidates)
	if len(candidates) > c.maxCandidates {
		candidates = candidates[:c.maxCandidates]
	}
	return candidates, nil
}

// rankCandidates orders by language priority, then newest upload first. The
// recency pass runs first so the stable priority pass keeps it as tie-break.
func rankCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Uploaded.After(candidates[b].Uploaded)
	})
	language.Rank(candidates, func(c Candidate) (string, string) {
		return c.Track.Language, ""
	})
}

func candidateLabel(sub assrt.Subtitle) string {
	if sub.LangDesc != "" {
		return sub.LangDesc
	}
	if len(sub.Languages) > 0 {
		return strings.Join(sub.Languages, " ")
	}
	return sub.Name()
}

// AutoLoad searches for query and loads the best candidate.
func (c *Client) AutoLoad(ctx context.Context, query string) (Result, error) {
	candidates, err := c.Search(ctx, query)
	if err != nil {
		return Result{}, err
	}
	return c.LoadBest(ctx, candidates)
}

// LoadBest tries candidates in order until one downloads and parses.
func (c *Client) LoadBest(ctx context.Context, candidates []Candidate) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, services.Wrap(services.ErrNoResults, "remote", "load", "no candidates", nil)
	}
	var failures []error
	for i, candidate := range candidates {
		attemptCtx := services.WithRequestID(ctx, uuid.NewString())
		logger := logging.WithContext(attemptCtx, c.logger).With(
			logging.String("candidate_id", candidate.Track.ID),
			logging.Int("rank", i+1),
		)
		result, err := c.loadCandidate(attemptCtx, candidate)
		if err == nil {
			result.Attempts = i + 1
			logger.Info("remote subtitle loaded",
				logging.String("file", result.FileName),
				logging.String("format", result.Format.String()),
				logging.Int("cues", len(result.Items)),
				logging.Bool("cached", result.Cached),
			)
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		if !services.IsRetriable(err) {
			logging.WarnWithContext(logger, "remote load aborted", "remote_load_aborted",
				logging.Error(err),
				logging.String("reason", services.Classify(err)),
				logging.String(logging.FieldErrorHint, "back off before searching again or check remote.token"),
			)
			return Result{}, err
		}
		logger.Warn("candidate failed, trying next",
			logging.Error(err),
			logging.String("reason", services.Classify(err)),
			logging.String(logging.FieldEventType, "remote_candidate_failed"),
			logging.String(logging.FieldErrorHint, "next ranked candidate will be tried"),
		)
		failures = append(failures, fmt.Errorf("candidate %s: %w", candidate.Track.ID, err))
	}
	return Result{}, services.Wrap(services.ErrAllCandidatesFailed, "remote", "load",
		fmt.Sprintf("%d candidates failed", len(candidates)), errors.Join(failures...))
}

func (c *Client) loadCandidate(ctx context.Context, candidate Candidate) (Result, error) {
	if err := c.requireAPI("load"); err != nil {
		return Result{}, err
	}
	detail, err := c.api.Detail(ctx, candidate.Track.ID)
	if err != nil {
		return Result{}, err
	}
	file, fromManifest, err := pickFile(detail)
	if err != nil {
		return Result{}, err
	}
	declared := candidate.Declared
	if fromManifest {
		if format, ok := subtitle.FormatFromExtension(file.Name); ok {
			declared = []subtitle.Format{format}
		}
	}

	data, cached := c.cached(candidate.Track.ID, file.Name)
	if !cached {
		data, err = c.api.Download(ctx, file.URL)
		if err != nil {
			return Result{}, err
		}
	}
	doc, err := parser.ParseBytes(data, parser.Options{
		Declared: declared,
		FileName: file.Name,
		Charset:  c.charset,
		Logger:   logging.WithContext(ctx, c.logger),
	})
	if err != nil {
		return Result{}, err
	}
	if !cached {
		c.store(candidate, file.Name, doc.Format, data)
	}
	track := candidate.Track
	track.URL = ""
	track.Format = doc.Format
	return Result{
		Track:    track,
		FileName: file.Name,
		Items:    doc.Items,
		Format:   doc.Format,
		Encoding: doc.Encoding,
		Cached:   cached,
	}, nil
}

var archiveExtensions = map[string]struct{}{".rar": {}, ".zip": {}, ".7z": {}, ".tar": {}, ".gz": {}}

// pickFile selects the download for a detail response: the first manifest
// entry with a supported subtitle extension, otherwise the top-level file.
func pickFile(detail assrt.Detail) (assrt.File, bool, error) {
	if len(detail.Files) > 0 {
		for _, f := range detail.Files {
			if _, ok := subtitle.FormatFromExtension(f.Name); ok {
				return f, true, nil
			}
		}
		return assrt.File{}, false, services.Wrap(services.ErrFormatUnrecognized, "remote", "select file",
			fmt.Sprintf("archive %q has no supported subtitle entry", detail.FileName), nil)
	}
	if detail.URL == "" {
		return assrt.File{}, false, services.Wrap(services.ErrNotFound, "remote", "select file", "detail has no download url", nil)
	}
	if _, archive := archiveExtensions[strings.ToLower(path.Ext(detail.FileName))]; archive {
		return assrt.File{}, false, services.Wrap(services.ErrFormatUnrecognized, "remote", "select file",
			fmt.Sprintf("archive %q has no manifest", detail.FileName), nil)
	}
	return assrt.File{Name: detail.FileName, URL: detail.URL}, false, nil
}

func (c *Client) cached(id, fileName string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	result, ok, err := c.cache.Load(id, fileName)
	if err != nil {
		c.logger.Debug("subtitle cache read failed", logging.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return result.Data, true
}

func (c *Client) store(candidate Candidate, fileName string, format subtitle.Format, data []byte) {
	if c.cache == nil {
		return
	}
	_, err := c.cache.Store(assrt.CacheEntry{
		ID:       candidate.Track.ID,
		FileName: fileName,
		Language: candidate.Track.Language,
		Format:   format.String(),
	}, data)
	if err != nil {
		c.logger.Warn("subtitle cache write failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "subtitle_cache_write_failed"),
			logging.String(logging.FieldErrorHint, "check paths.cache_dir permissions"),
		)
	}
}

// Load resolves an explicit track. Remote tracks get a fresh detail call,
// http(s) URLs are fetched directly, anything else is read from disk.
func (c *Client) Load(ctx context.Context, track subtitle.Track) (Result, error) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	if track.Remote() {
		candidate := Candidate{Track: track}
		if track.Format.Known() {
			candidate.Declared = []subtitle.Format{track.Format}
		}
		result, err := c.loadCandidate(ctx, candidate)
		if err != nil {
			return Result{}, err
		}
		result.Attempts = 1
		return result, nil
	}

	location := strings.TrimSpace(track.URL)
	if location == "" {
		location = strings.TrimSpace(track.Name)
	}
	if location == "" {
		return Result{}, services.Wrap(services.ErrValidation, "remote", "load", "track has no location", nil)
	}

	var (
		data     []byte
		fileName string
		err      error
	)
	if u, parseErr := url.Parse(location); parseErr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if err := c.requireAPI("download"); err != nil {
			return Result{}, err
		}
		fileName = path.Base(u.Path)
		data, err = c.api.Download(ctx, location)
	} else {
		fileName = filepath.Base(location)
		data, err = readLocal(location)
	}
	if err != nil {
		return Result{}, err
	}
	opts := parser.Options{FileName: fileName, Charset: c.charset, Logger: logging.WithContext(ctx, c.logger)}
	if track.Format.Known() {
		opts.Format = track.Format
	}
	doc, err := parser.ParseBytes(data, opts)
	if err != nil {
		return Result{}, err
	}
	loaded := track
	loaded.URL = ""
	loaded.Format = doc.Format
	if loaded.Name == "" {
		loaded.Name = fileName
	}
	return Result{
		Track:    loaded,
		FileName: fileName,
		Items:    doc.Items,
		Format:   doc.Format,
		Encoding: doc.Encoding,
		Attempts: 1,
	}, nil
}

func readLocal(location string) ([]byte, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "remote", "read", location, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "remote", "read", location+" is a directory", nil)
	}
	if info.Size() > assrt.MaxDownloadBytes {
		return nil, services.Wrap(services.ErrValidation, "remote", "read", fmt.Sprintf("%s exceeds %d bytes", location, assrt.MaxDownloadBytes), nil)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "remote", "read", location, err)
	}
	return data, nil
}
