// Package diagnostics writes a screenshot and an HTML dump of the browser
// when a scenario step fails, so the failure can be inspected after the run.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uibdd/internal/browser"
	"github.com/xkilldash9x/uibdd/internal/config"
)

// ErrScreenshotCaptureFailed wraps every failure to produce or store a
// screenshot or page dump.
var ErrScreenshotCaptureFailed = errors.New("screenshot capture failed")

// fallbackName names artifacts when the failing step has no usable name.
const fallbackName = "failure"

const defaultTimeout = 10 * time.Second

// Artifacts lists the files written by one capture.
type Artifacts struct {
	Screenshot string
	HTML       string
	// Title is the document title at the time of the failure, if any.
	Title string
}

// Recorder writes failure artifacts into one directory.
type Recorder struct {
	dir         string
	captureHTML bool
	timeout     time.Duration
	logger      *zap.Logger
}

// NewRecorder resolves the artifact directory (a leading ~ is expanded, an
// empty value means the system temp dir) and creates it.
func NewRecorder(cfg config.DiagnosticsConfig, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := cfg.ScreenshotDir
	if dir == "" {
		dir = os.TempDir()
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expand screenshot dir %q: %w", cfg.ScreenshotDir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Recorder{
		dir:         dir,
		captureHTML: cfg.CaptureHTML,
		timeout:     timeout,
		logger:      logger.Named("diagnostics"),
	}, nil
}

// Dir returns the directory artifacts are written to.
func (r *Recorder) Dir() string { return r.dir }

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName turns a scenario or step name into a file system safe base name.
func FileName(name string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "._-")
	if s == "" {
		return fallbackName
	}
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

// Capture writes <dir>/<name>.png and, when enabled, <dir>/<name>.html.
// The HTML dump is attempted even when the screenshot fails; the returned
// error joins both failures.
func (r *Recorder) Capture(ctx context.Context, d browser.Driver, name string) (Artifacts, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	base := filepath.Join(r.dir, FileName(name))
	var art Artifacts
	var errs []error

	if png, err := d.Screenshot(ctx); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrScreenshotCaptureFailed, err))
	} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrScreenshotCaptureFailed, err))
	} else {
		art.Screenshot = base + ".png"
	}

	if r.captureHTML {
		src, err := d.PageSource(ctx)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%w: read page source: %w", ErrScreenshotCaptureFailed, err))
		default:
			if err := os.WriteFile(base+".html", []byte(src), 0o644); err != nil {
				errs = append(errs, fmt.Errorf("%w: write page source: %w", ErrScreenshotCaptureFailed, err))
			} else {
				art.HTML = base + ".html"
			}
			art.Title = pageTitle(src)
		}
	}
	return art, errors.Join(errs...)
}

// CaptureBestEffort is Capture for failure hooks: errors are logged, never returned.
func (r *Recorder) CaptureBestEffort(ctx context.Context, d browser.Driver, name string) Artifacts {
	art, err := r.Capture(ctx, d, name)
	if err != nil {
		r.logger.Warn("Failed to capture failure diagnostics.", zap.String("name", name), zap.Error(err))
	}
	if art.Screenshot != "" || art.HTML != "" {
		r.logger.Info("Failure diagnostics captured.",
			zap.String("screenshot", art.Screenshot),
			zap.String("html", art.HTML),
			zap.String("page_title", art.Title),
		)
	}
	return art
}

func pageTitle(src string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
