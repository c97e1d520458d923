// internal/browser/session_integration_test.go
package browser_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/craftcheck/internal/browser"
	"github.com/xkilldash9x/craftcheck/internal/config"
	"github.com/xkilldash9x/craftcheck/internal/testapp"
	"github.com/xkilldash9x/craftcheck/internal/wait"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// findChrome returns the first Chrome binary on PATH, skipping the test when
// none is installed.
func findChrome(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chrome binary found; skipping browser integration test")
	return ""
}

type fixture struct {
	manager *browser.Manager
	session *browser.Session
	url     string
	ctx     context.Context
}

func newFixture(t *testing.T, opts testapp.Options) *fixture {
	t.Helper()
	chrome := findChrome(t)
	logger := zaptest.NewLogger(t)

	srv := httptest.NewServer(testapp.New(opts, logger).Handler())
	t.Cleanup(srv.Close)

	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = chrome
	cfg.Headless = true
	cfg.Viewport = config.ViewportConfig{Width: 1280, Height: 800}
	cfg.LaunchTimeout = 60 * time.Second
	cfg.NavigationTimeout = 30 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	m := browser.NewManager(cfg, logger)
	s, err := m.Acquire(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { m.Release(s) })

	return &fixture{manager: m, session: s, url: srv.URL, ctx: ctx}
}

func TestSession_ObserveAndInteract(t *testing.T) {
	f := newFixture(t, testapp.Options{})
	ctx := f.ctx
	s := f.session

	require.NoError(t, s.Navigate(ctx, f.url))

	title, err := s.Query(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "OpenCraftShop", title.Text)

	options, err := s.QueryAll(ctx, "#furniture-type option")
	require.NoError(t, err)
	require.Len(t, options, 4)
	assert.Equal(t, "bed_frame", options[2].Value)
	assert.Equal(t, "Bed Frame", options[2].Text)

	none, err := s.QueryAll(ctx, ".does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.Query(ctx, "#missing")
	assert.ErrorIs(t, err, browser.ErrNotFound)
	assert.ErrorIs(t, s.Click(ctx, "#missing"), browser.ErrNotFound)
	assert.ErrorIs(t, s.Select(ctx, "#furniture-type", "couch"), browser.ErrNotFound)

	require.NoError(t, s.Select(ctx, "#furniture-type", "bed_frame"))
	var length string
	require.NoError(t, s.Evaluate(ctx, "#length", `el => el.value`, &length))
	assert.Equal(t, "80", length)

	visible, err := s.Visible(ctx, "#results")
	require.NoError(t, err)
	assert.False(t, visible)

	require.NoError(t, s.Click(ctx, "#generate-btn"))
	err = wait.Until(ctx, wait.Condition{
		Name:     "generation idle",
		Timeout:  10 * time.Second,
		Interval: 100 * time.Millisecond,
		Check: func(ctx context.Context) (bool, error) {
			el, err := s.Query(ctx, "#generate-btn")
			if err != nil {
				return false, err
			}
			return el.Text == "Generate Design", nil
		},
	})
	require.NoError(t, err)

	visible, err = s.Visible(ctx, "#results")
	require.NoError(t, err)
	assert.True(t, visible)

	link, err := s.Query(ctx, "#stl-download")
	require.NoError(t, err)
	assert.Contains(t, link.Href, f.url+"/api/download/bed_frame")

	layout, err := s.Layout(ctx, ".left-pane", ".middle-pane", ".right-pane", ".absent-pane")
	require.NoError(t, err)
	assert.Equal(t, 1280, layout.ViewportWidth)
	assert.Positive(t, layout.Width(".middle-pane"))
	assert.Zero(t, layout.Width(".absent-pane"))
	assert.True(t, layout.Fits())
}

func TestSession_Screenshots(t *testing.T) {
	f := newFixture(t, testapp.Options{})
	require.NoError(t, f.session.Navigate(f.ctx, f.url))

	full, err := f.session.FullScreenshot(f.ctx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(full, pngMagic))

	vp, err := f.session.ViewportScreenshot(f.ctx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(vp, pngMagic))

	el, err := f.session.ElementScreenshot(f.ctx, ".right-pane")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(el, pngMagic))

	_, err = f.session.ElementScreenshot(f.ctx, ".nope")
	assert.ErrorIs(t, err, browser.ErrNotFound)
}

func TestManager_SingleSession(t *testing.T) {
	f := newFixture(t, testapp.Options{})

	_, err := f.manager.Acquire(f.ctx)
	assert.ErrorIs(t, err, browser.ErrSessionBusy)
	assert.Same(t, f.session, f.manager.Active())

	f.manager.Release(f.session)
	f.manager.Release(f.session)
	assert.Nil(t, f.manager.Active())
	assert.ErrorIs(t, f.session.Navigate(f.ctx, f.url), browser.ErrNavigation)

	again, err := f.manager.Acquire(f.ctx)
	require.NoError(t, err)
	f.manager.Release(again)
}

func TestSession_NavigationFailure(t *testing.T) {
	f := newFixture(t, testapp.Options{})
	err := f.session.Navigate(f.ctx, "http://127.0.0.1:1/")
	assert.ErrorIs(t, err, browser.ErrNavigation)
}
