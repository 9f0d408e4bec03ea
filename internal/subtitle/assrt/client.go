package assrt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"subplay/internal/logging"
	"subplay/internal/services"
)

const (
	defaultBaseURL        = "https://api.assrt.net/v1"
	defaultUserAgent      = "subplay/dev"
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 20 * time.Second
	defaultRequestTimeout = 45 * time.Second

	// MaxResults is the largest page the search endpoint accepts.
	MaxResults = 15
	// MaxDownloadBytes caps a single subtitle payload.
	MaxDownloadBytes = 4 << 20

	maxAPIBodyBytes = 1 << 20
	uploadLayout    = "2006-01-02 15:04:05"
)

// Config describes the client configuration. Zero timeouts fall back to
// defaults; they are never disabled. MinInterval spaces API requests
// (DefaultMinInterval in production); zero disables spacing.
type Config struct {
	Token          string
	BaseURL        string
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RequestTimeout time.Duration
	MinInterval    time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client wraps the remote search/detail API.
type Client struct {
	token     string
	userAgent string
	baseURL   *url.URL
	http      *http.Client
	window    *window
	logger    *slog.Logger
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "assrt", "init", "api token is required", nil)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "assrt", "init", "parse base url", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = newHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout, cfg.RequestTimeout)
	}
	interval := cfg.MinInterval
	if interval < 0 {
		interval = 0
	}
	return &Client{
		token:     token,
		userAgent: userAgent,
		baseURL:   baseURL,
		http:      client,
		window:    newWindow(interval),
		logger:    logging.NewComponentLogger(cfg.Logger, "assrt"),
	}, nil
}

func newHTTPClient(connect, read, request time.Duration) *http.Client {
	if connect <= 0 {
		connect = defaultConnectTimeout
	}
	if read <= 0 {
		read = defaultReadTimeout
	}
	if request <= 0 {
		request = defaultRequestTimeout
	}
	dialer := &net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: read,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   2,
	}
	return &http.Client{Timeout: request, Transport: transport}
}

// SearchOptions controls paging.
type SearchOptions struct {
	Count  int
	Offset int
}

// Subtitle is a search result.
type Subtitle struct {
	ID         string
	NativeName string
	VideoName  string
	Subtype    string
	Uploaded   time.Time
	LangDesc   string
	// Languages lists the language flags set on the result (e.g. langchs).
	Languages []string
}

// Name returns the best display name for the result.
func (s Subtitle) Name() string {
	if s.NativeName != "" {
		return s.NativeName
	}
	if s.VideoName != "" {
		return s.VideoName
	}
	return s.ID
}

// File is one entry of an archive manifest.
type File struct {
	Name string
	URL  string
	Size string
}

// Detail carries the freshly generated download locations for a subtitle.
type Detail struct {
	ID       string
	FileName string
	URL      string
	Files    []File
	Subtype  string
	LangDesc string
}

// Search queries subtitles by free-text title. A well-formed empty response
// returns an empty slice and no error.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]Subtitle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "assrt", "search", "query is empty", nil)
	}
	count := opts.Count
	if count <= 0 || count > MaxResults {
		count = MaxResults
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("cnt", strconv.Itoa(count))
	if opts.Offset > 0 {
		params.Set("pos", strconv.Itoa(opts.Offset))
	}

	var payload envelope
	if err := c.getJSON(ctx, "search", "sub/search", params, &payload); err != nil {
		return nil, err
	}
	subs := make([]Subtitle, 0, len(payload.Sub.Subs))
	for _, entry := range payload.Sub.Subs {
		id := entry.ID.String()
		if id == "" {
			continue
		}
		subs = append(subs, Subtitle{
			ID:         id,
			NativeName: strings.TrimSpace(entry.NativeName),
			VideoName:  strings.TrimSpace(entry.VideoName),
			Subtype:    strings.TrimSpace(entry.Subtype),
			Uploaded:   parseUploadTime(entry.UploadTime),
			LangDesc:   entry.Lang.desc(),
			Languages:  entry.Lang.flags(),
		})
	}
	c.logger.Debug("remote search complete",
		logging.String("query", query),
		logging.Int("results", len(subs)),
	)
	return subs, nil
}

// Detail requests download metadata for id. Every call yields new URLs; they
// expire quickly and must not be reused.
func (c *Client) Detail(ctx context.Context, id string) (Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Detail{}, services.Wrap(services.ErrValidation, "assrt", "detail", "subtitle id is empty", nil)
	}
	params := url.Values{}
	params.Set("id", id)

	var payload envelope
	if err := c.getJSON(ctx, "detail", "sub/detail", params, &payload); err != nil {
		return Detail{}, err
	}
	if len(payload.Sub.Subs) == 0 {
		return Detail{}, services.Wrap(services.ErrNotFound, "assrt", "detail", "no detail for id "+id, nil)
	}
	entry := payload.Sub.Subs[0]
	detail := Detail{
		ID:       id,
		FileName: strings.TrimSpace(entry.FileName),
		URL:      strings.TrimSpace(entry.URL),
		Subtype:  strings.TrimSpace(entry.Subtype),
		LangDesc: entry.Lang.desc(),
	}
	for _, f := range entry.FileList {
		if strings.TrimSpace(f.URL) == "" {
			continue
		}
		detail.Files = append(detail.Files, File{Name: strings.TrimSpace(f.Name), URL: strings.TrimSpace(f.URL), Size: string(f.Size)})
	}
	return detail, nil
}

// Download fetches a subtitle payload. Empty or oversized bodies are errors.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := c.baseURL.Parse(strings.TrimSpace(rawURL))
	if err != nil || target.Host == "" {
		return nil, services.Wrap(services.ErrValidation, "assrt", "download", "invalid download url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "assrt", "download", "build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError("download", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, httpError("download", resp, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, transportError("download", err)
	}
	if len(data) > MaxDownloadBytes {
		return nil, services.Wrap(services.ErrValidation, "assrt", "download", fmt.Sprintf("payload exceeds %d bytes", MaxDownloadBytes), nil)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrValidation, "assrt", "download", "empty payload", nil)
	}
	return data, nil
}

// Quota returns the remaining request budget of the configured token. It is
// used as a credential check that does not consume search quota.
func (c *Client) Quota(ctx context.Context) (int, error) {
	var payload envelope
	if err := c.getJSON(ctx, "quota", "user/quota", url.Values{}, &payload); err != nil {
		return 0, err
	}
	quota, err := payload.User.Quota.Int64()
	if err != nil {
		return 0, services.Wrap(services.ErrNetwork, "assrt", "quota", "decode quota", err)
	}
	return int(quota), nil
}

func (c *Client) getJSON(ctx context.Context, operation, path string, params url.Values, out *envelope) error {
	if err := c.window.acquire(ctx); err != nil {
		return fmt.Errorf("assrt: %s: wait for request window: %w", operation, err)
	}
	endpoint := c.baseURL.JoinPath(path)
	params.Set("token", c.token)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "assrt", operation, "build request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return httpError(operation, resp, strings.TrimSpace(string(body)))
	}
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxAPIBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return services.Wrap(services.ErrNetwork, "assrt", operation, "decode response", err)
	}
	return statusError(operation, out.Status, strings.TrimSpace(out.ErrMsg))
}

func parseUploadTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if parsed, err := time.ParseInLocation(uploadLayout, value, time.UTC); err == nil {
		return parsed
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC()
	}
	return time.Time{}
}

type envelope struct {
	Status int    `json:"status"`
	ErrMsg string `json:"errmsg"`
	Sub    struct {
		Subs []apiSub `json:"subs"`
	} `json:"sub"`
	User struct {
		Quota json.Number `json:"quota"`
	} `json:"user"`
}

type apiSub struct {
	ID         json.Number `json:"id"`
	NativeName string      `json:"native_name"`
	VideoName  string      `json:"videoname"`
	Subtype    string      `json:"subtype"`
	UploadTime string      `json:"upload_time"`
	Lang       *apiLang    `json:"lang"`
	URL        string      `json:"url"`
	FileName   string      `json:"filename"`
	FileList   []apiFile   `json:"filelist"`
}

type apiLang struct {
	Desc     string          `json:"desc"`
	LangList map[string]bool `json:"langlist"`
}

func (l *apiLang) desc() string {
	if l == nil {
		return ""
	}
	return strings.TrimSpace(l.Desc)
}

func (l *apiLang) flags() []string {
	if l == nil || len(l.LangList) == 0 {
		return nil
	}
	out := make([]string, 0, len(l.LangList))
	for flag, set := range l.LangList {
		if set {
			out = append(out, strings.ToLower(flag))
		}
	}
	sort.Strings(out)
	return out
}

type apiFile struct {
	URL  string     `json:"url"`
	Name string     `json:"f"`
	Size flexString `json:"s"`
}

// flexString accepts either a JSON string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(data)
	return nil
}
