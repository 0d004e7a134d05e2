// Package imagelocal downloads externally hosted Markdown images next to the
// page that references them and points the references at the local copies.
package imagelocal

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"auxmark.dev/pkg/auxmark/internal/adapter"
	"auxmark.dev/pkg/auxmark/internal/detectors/fetch"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

// Name is the registry key of the detector.
const Name = "image_localizer"

const (
	bundleStem       = "index"
	fallbackFilename = "image.jpg"
)

var imagePattern = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)

// Image is one external image reference on a line. LocalFilename and
// Success are filled in by Preprocess.
type Image struct {
	URL           string
	Alt           string
	Title         string
	LocalFilename string
	Success       bool
}

// Images is the probe metadata for a line.
type Images struct {
	Items []*Image
}

// Detector implements the image_localizer module.
type Detector struct {
	cfg    Config
	fs     adapter.SourceFSAdapter
	client *fetch.Client

	mu       sync.Mutex
	reserved map[m.Path]bool
}

// Option customizes a Detector.
type Option func(*Detector)

// WithClient overrides the HTTP client.
func WithClient(client *fetch.Client) Option {
	return func(d *Detector) { d.client = client }
}

// New creates the detector.
func New(cfg Config, fsAdapter adapter.SourceFSAdapter, opts ...Option) *Detector {
	d := &Detector{
		cfg:      cfg,
		fs:       fsAdapter,
		reserved: make(map[m.Path]bool),
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
	return []string{"image"}
}

// Pattern is the line prefilter.
func (d *Detector) Pattern() *regexp.Regexp {
	return imagePattern
}

// Probe finds external images. A page that is not yet a bundle must be
// expanded first so the images have a directory to live in.
func (d *Detector) Probe(filePath m.Path, _ int, line string) (m.Action, m.Metadata) {
	images := d.parse(line)
	if len(images) == 0 {
		return m.ActionIgnore, nil
	}

	meta := &Images{Items: images}

	if !IsBundle(filePath) {
		return m.ActionExpand, meta
	}

	return m.ActionTagPreprocessAndPostprocess, meta
}

// parse returns one Image per distinct external URL on the line; Postprocess
// rewrites every reference to a URL at once.
func (d *Detector) parse(line string) []*Image {
	var images []*Image

	seen := make(map[string]bool)

	for _, match := range imagePattern.FindAllStringSubmatch(line, -1) {
		target := strings.TrimSpace(match[2])
		src, title := target, ""

		if strings.Contains(target, ` "`) || strings.Contains(target, ` '`) {
			if parts := strings.SplitN(target, " ", 2); len(parts) == 2 {
				src, title = parts[0], strings.TrimSpace(parts[1])
			}
		}

		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			continue
		}

		if seen[src] {
			continue
		}

		if !d.cfg.Permits(src) {
			slog.Debug("Image host not permitted", "url", src)
			continue
		}

		seen[src] = true

		images = append(images, &Image{URL: src, Alt: match[1], Title: title})
	}

	return images
}

// Preprocess downloads every image of the line into the page's directory.
// It reports success only if all images were localized; otherwise the files
// it wrote are removed again, since the line keeps its remote references.
func (d *Detector) Preprocess(ctx context.Context, job *m.Job) (bool, error) {
	meta, ok := job.Metadata.(*Images)
	if !ok {
		return false, fmt.Errorf("%s: unexpected metadata %T", job, job.Metadata)
	}

	dir := filepath.Dir(string(job.Path))

	var (
		failures []string
		written  []m.Path
	)

	for _, img := range meta.Items {
		target, err := d.localize(ctx, dir, img, job.DryRun)
		if err != nil {
			slog.Warn("Failed to localize image", "job", job.String(), "url", img.URL, "error", err)
			failures = append(failures, err.Error())

			continue
		}

		written = append(written, target)
	}

	if len(failures) > 0 {
		d.discard(meta, written, job.DryRun)
		return false, fmt.Errorf("%d of %d image(s) failed: %s", len(failures), len(meta.Items), strings.Join(failures, "; "))
	}

	return true, nil
}

// discard undoes the downloads of a line that could not be fully localized.
func (d *Detector) discard(meta *Images, written []m.Path, dryRun bool) {
	for _, target := range written {
		if !dryRun {
			if err := d.fs.Remove(target); err != nil {
				slog.Warn("Failed to remove downloaded image", "path", target, "error", err)
				continue
			}
		}

		d.release(target)
	}

	for _, img := range meta.Items {
		img.Success = false
		img.LocalFilename = ""
	}
}

func (d *Detector) localize(ctx context.Context, dir string, img *Image, dryRun bool) (m.Path, error) {
	var body []byte

	if !dryRun {
		resp, err := d.client.Get(ctx, img.URL)
		if err != nil {
			return "", err
		}

		body = resp.Body
	}

	target, err := d.reserve(dir, RemoteFilename(img.URL))
	if err != nil {
		return "", err
	}

	if dryRun {
		slog.Info("Would download image", "url", img.URL, "path", target)
	} else {
		if err := d.fs.MkdirAll(m.Path(dir)); err != nil {
			d.release(target)
			return "", fmt.Errorf("create %s: %w", dir, err)
		}

		if err := d.fs.WriteFileAtomic(target, body); err != nil {
			d.release(target)
			return "", err
		}

		slog.Info("Downloaded image", "url", img.URL, "path", target)
	}

	img.LocalFilename = filepath.Base(string(target))
	img.Success = true

	return target, nil
}

// reserve picks the first free name among base, base_2, base_3... in dir.
// Names handed out during this run are never handed out twice.
func (d *Detector) reserve(dir, filename string) (m.Path, error) {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	d.mu.Lock()
	defer d.mu.Unlock()

	for counter := 1; ; counter++ {
		name := filename
		if counter > 1 {
			name = stem + "_" + strconv.Itoa(counter) + ext
		}

		candidate := d.fs.JoinPath(dir, name)
		if d.reserved[candidate] {
			continue
		}

		exists, err := d.fs.Exists(candidate)
		if err != nil {
			return "", err
		}

		if !exists {
			d.reserved[candidate] = true
			return candidate, nil
		}
	}
}

func (d *Detector) release(target m.Path) {
	d.mu.Lock()
	delete(d.reserved, target)
	d.mu.Unlock()
}

// Postprocess points successfully localized references at their local
// files, keeping any title.
func (d *Detector) Postprocess(line string, metadata m.Metadata) string {
	meta, ok := metadata.(*Images)
	if !ok {
		return line
	}

	for _, img := range meta.Items {
		if !img.Success || img.LocalFilename == "" {
			continue
		}

		if img.Title != "" {
			line = strings.ReplaceAll(line, "]("+img.URL+" "+img.Title+")", "]("+img.LocalFilename+" "+img.Title+")")
			continue
		}

		line = strings.ReplaceAll(line, "]("+img.URL+")", "]("+img.LocalFilename+")")
	}

	return line
}

// IsBundle reports whether filePath is a page bundle's index file.
func IsBundle(filePath m.Path) bool {
	base := filepath.Base(string(filePath))
	return strings.TrimSuffix(base, filepath.Ext(base)) == bundleStem
}

// RemoteFilename derives a local file name from the URL's last path segment.
func RemoteFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackFilename
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return fallbackFilename
	}

	return name
}
