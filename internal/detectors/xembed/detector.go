// Package xembed caches X (Twitter) oEmbed payloads for Hugo x shortcodes.
package xembed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"auxmark.dev/pkg/auxmark/internal/adapter"
	"auxmark.dev/pkg/auxmark/internal/detectors/fetch"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

// Name is the registry key of the detector.
const Name = "tweet_downloader"

// DefaultEndpoint is the public X oEmbed endpoint.
const DefaultEndpoint = "https://publish.x.com/oembed"

var (
	shortcodePattern = regexp.MustCompile(`\{\{<\s*x\s+user="([^"]+)"\s+id="([^"]+)"\s*>\}\}`)
	digitsPattern    = regexp.MustCompile(`^\d+$`)
	statusPattern    = regexp.MustCompile(`status/(\d+)`)
)

// Embed is the probe metadata of a matched shortcode.
type Embed struct {
	User    string
	TweetID string
}

// Detector implements the tweet_downloader module.
type Detector struct {
	cfg      Config
	siteRoot string
	dataDir  string
	endpoint string
	fs       adapter.SourceFSAdapter
	client   *fetch.Client
	now      func() time.Time

	langOnce sync.Once
	lang     string
}

// Option customizes a Detector.
type Option func(*Detector)

// WithEndpoint overrides the oEmbed endpoint.
func WithEndpoint(endpoint string) Option {
	return func(d *Detector) { d.endpoint = endpoint }
}

// WithClient overrides the HTTP client.
func WithClient(client *fetch.Client) Option {
	return func(d *Detector) { d.client = client }
}

// WithClock overrides the clock used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// New creates the detector for the site rooted at siteRoot.
func New(siteRoot m.Path, cfg Config, fsAdapter adapter.SourceFSAdapter, opts ...Option) *Detector {
	dataDir := cfg.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(string(siteRoot), dataDir)
	}

	d := &Detector{
		cfg:      cfg,
		siteRoot: string(siteRoot),
		dataDir:  dataDir,
		endpoint: DefaultEndpoint,
		fs:       fsAdapter,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.client == nil {
		d.client = fetch.NewClient(cfg.fetchOptions())
	}

	return d
}

// Name implements domain.Detector.
func (d *Detector) Name() string {
	return Name
}

// Aliases returns the short names accepted by --module.
func (d *Detector) Aliases() []string {
	return []string{"tweet", "x"}
}

// Pattern is the line prefilter.
func (d *Detector) Pattern() *regexp.Regexp {
	return shortcodePattern
}

// Probe tags lines carrying an x shortcode with a numeric id.
func (d *Detector) Probe(_ m.Path, _ int, line string) (m.Action, m.Metadata) {
	match := shortcodePattern.FindStringSubmatch(line)
	if match == nil {
		return m.ActionIgnore, nil
	}

	id := ExtractTweetID(match[2])
	if id == "" {
		return m.ActionIgnore, nil
	}

	return m.ActionTagPreprocessOnly, &Embed{User: match[1], TweetID: id}
}

// Preprocess ensures a fresh cached payload exists for the tweet.
func (d *Detector) Preprocess(ctx context.Context, job *m.Job) (bool, error) {
	embed, ok := job.Metadata.(*Embed)
	if !ok || embed.TweetID == "" {
		return false, fmt.Errorf("%s: missing tweet id in job metadata", job)
	}

	jsonPath := d.fs.JoinPath(d.dataDir, embed.TweetID+".json")

	fresh, err := d.isFresh(jsonPath)
	if err != nil {
		return false, err
	}

	if fresh {
		slog.Debug("Tweet cache is fresh", "tweet_id", embed.TweetID, "path", jsonPath)
		return true, nil
	}

	if job.DryRun {
		slog.Info("Would fetch tweet", "tweet_id", embed.TweetID, "path", jsonPath)
		return true, nil
	}

	payload, err := d.fetch(ctx, embed.TweetID)
	if err != nil {
		return false, err
	}

	if err := d.save(embed.TweetID, payload); err != nil {
		return false, err
	}

	slog.Info("Cached tweet", "tweet_id", embed.TweetID, "path", jsonPath)

	return true, nil
}

// Postprocess leaves the line alone; the shortcode reads the cache.
func (d *Detector) Postprocess(line string, _ m.Metadata) string {
	return line
}

func (d *Detector) isFresh(path m.Path) (bool, error) {
	info, err := d.fs.FileInfo(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("stat cache %s: %w", path, err)
	}

	return d.now().Sub(info.ModTime()) < d.cfg.cacheMaxAge(), nil
}

// OEmbedURL builds the request URL for a tweet.
func (d *Detector) OEmbedURL(tweetID string) string {
	params := url.Values{}
	params.Set("url", "https://x.com/i/status/"+tweetID)

	if d.cfg.Defang {
		params.Set("omit_script", "true")
	}

	if lang := d.language(); lang != "" {
		params.Set("lang", lang)
	}

	return d.endpoint + "?" + params.Encode()
}

func (d *Detector) language() string {
	d.langOnce.Do(func() {
		switch d.cfg.Lang {
		case LangAuto:
			d.lang = DetectHugoLanguage(d.siteRoot)
		case "none":
		default:
			d.lang = d.cfg.Lang
		}
	})

	return d.lang
}

func (d *Detector) fetch(ctx context.Context, tweetID string) (map[string]any, error) {
	resp, err := d.client.Get(ctx, d.OEmbedURL(tweetID))
	if err != nil {
		return nil, fmt.Errorf("fetch tweet %s: %w", tweetID, err)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode oEmbed for tweet %s: %w", tweetID, err)
	}

	return payload, nil
}

func (d *Detector) save(tweetID string, payload map[string]any) error {
	if err := d.fs.MkdirAll(m.Path(d.dataDir)); err != nil {
		return fmt.Errorf("create %s: %w", d.dataDir, err)
	}

	var data bytes.Buffer

	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode tweet %s: %w", tweetID, err)
	}

	if err := d.fs.WriteFileAtomic(d.fs.JoinPath(d.dataDir, tweetID+".json"), data.Bytes()); err != nil {
		return err
	}

	markup, ok := payload["html"].(string)
	if !ok {
		return nil
	}

	if d.cfg.Defang {
		var err error

		markup, err = Sanitize(markup)
		if err != nil {
			return fmt.Errorf("sanitize tweet %s: %w", tweetID, err)
		}
	}

	return d.fs.WriteFileAtomic(d.fs.JoinPath(d.dataDir, tweetID+".html"), []byte(markup))
}

// ExtractTweetID accepts a raw id or a status URL.
func ExtractTweetID(input string) string {
	if digitsPattern.MatchString(input) {
		return input
	}

	if match := statusPattern.FindStringSubmatch(input); match != nil {
		return match[1]
	}

	return ""
}
