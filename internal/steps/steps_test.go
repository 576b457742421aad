package steps

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/uibdd/features"
	"github.com/xkilldash9x/uibdd/internal/browser/browsertest"
	"github.com/xkilldash9x/uibdd/internal/config"
	"github.com/xkilldash9x/uibdd/internal/diagnostics"
	"github.com/xkilldash9x/uibdd/internal/page"
	"github.com/xkilldash9x/uibdd/internal/provision"
)

const menu = `<nav><a href="/">Home</a><a href="/containers/list">Containers</a></nav>`

const homePage = `<html><head><title>Home</title></head><body>` + menu + `<div id="home-page"></div></body></html>`

const containerListPage = `<html><head><title>Containers</title></head><body>` + menu + `<div id="container-list-page">
<div id="container-list"><div><table><tbody>
  <tr><td>web</td><td>nginx:latest</td><td>running</td></tr>
  <tr><td>cache</td><td>redis:7</td><td>exited</td></tr>
</tbody></table></div></div>
</div></body></html>`

// fakeSessions serves in-memory sessions of the container application.
type fakeSessions struct {
	mu       sync.Mutex
	drivers  []*browsertest.Driver
	listPage string
	err      error
}

func (f *fakeSessions) Acquire(_ context.Context, name string) (*provision.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := browsertest.New(`<html></html>`)
	d.Route("/", homePage)
	d.Route("/containers/list", f.listPage)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers = append(f.drivers, d)
	return provision.NewSession(name, d, nil), nil
}

func (f *fakeSessions) quits() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := make([]int, 0, len(f.drivers))
	for _, d := range f.drivers {
		q = append(q, d.Quits())
	}
	return q
}

func newSuite(t *testing.T, sessions Acquirer) *Suite {
	t.Helper()
	logger := zaptest.NewLogger(t)
	rec, err := diagnostics.NewRecorder(config.DiagnosticsConfig{
		Enabled:       true,
		ScreenshotDir: t.TempDir(),
		CaptureHTML:   true,
		Timeout:       time.Second,
	}, logger)
	require.NoError(t, err)
	return &Suite{
		Sessions:     sessions,
		Driver:       "fake",
		SiteURL:      "http://127.0.0.1:8080/",
		PollInterval: 10 * time.Millisecond,
		Pages:        page.Options{IdentityTimeout: 500 * time.Millisecond, ClickTimeout: time.Second},
		Recorder:     rec,
		Logger:       logger,
	}
}

func run(s *Suite, opts godog.Options) (int, string) {
	var out bytes.Buffer
	opts.Output = &out
	if opts.Format == "" {
		opts.Format = "pretty"
	}
	opts.Strict = true
	return s.Run(context.Background(), opts), out.String()
}

func TestContainersFeature(t *testing.T) {
	sessions := &fakeSessions{listPage: containerListPage}
	s := newSuite(t, sessions)

	status, out := run(s, godog.Options{FS: features.FS, Paths: []string{"containers.feature"}})
	require.Equal(t, 0, status, out)
	assert.Contains(t, out, "Reading results")
	assert.Equal(t, []int{1}, sessions.quits())
}

func TestFailingStep(t *testing.T) {
	const shortList = `<html><body>` + menu + `<div id="container-list-page">
<div id="container-list"><div><table><tbody>
  <tr><td>web</td><td>nginx:latest</td></tr>
</tbody></table></div></div></div></body></html>`

	sessions := &fakeSessions{listPage: shortList}
	s := newSuite(t, sessions)

	// The older spelling of the first step is still accepted.
	fsys := fstest.MapFS{"short.feature": {Data: []byte(`Feature: short rows
  Scenario: Missing column
    Given Ang I go to the "containers / containers" page
    When page is loaded
    Then at least "1" containers are present
`)}}

	status, out := run(s, godog.Options{FS: fsys, Paths: []string{"short.feature"}})
	assert.NotEqual(t, 0, status, out)
	assert.Contains(t, out, "has 2 columns, want 3")
	assert.Equal(t, []int{1}, sessions.quits())

	base := filepath.Join(s.Recorder.Dir(), diagnostics.FileName("Missing column fake"))
	assert.FileExists(t, base+".png")
	assert.FileExists(t, base+".html")
}

func TestUndefinedStepCapturesDiagnostics(t *testing.T) {
	sessions := &fakeSessions{listPage: containerListPage}
	s := newSuite(t, sessions)

	fsys := fstest.MapFS{"moon.feature": {Data: []byte(`Feature: space
  Scenario: Flying away
    Given I fly to the moon
`)}}

	status, out := run(s, godog.Options{FS: fsys, Paths: []string{"moon.feature"}})
	assert.NotEqual(t, 0, status, out)
	assert.Equal(t, []int{1}, sessions.quits())
	assert.FileExists(t, filepath.Join(s.Recorder.Dir(), diagnostics.FileName("Flying away fake")+".png"))
}

func TestSessionStartFailure(t *testing.T) {
	sessions := &fakeSessions{err: errors.New("no browser available")}
	s := newSuite(t, sessions)
	s.Logger = zap.NewNop()

	status, out := run(s, godog.Options{FS: features.FS, Paths: []string{"containers.feature"}})
	assert.NotEqual(t, 0, status, out)
	assert.Empty(t, sessions.quits())
}
