// internal/artifacts/capturer.go
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/craftcheck/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// ManifestFile lists every artifact of the run in capture order.
	ManifestFile = "manifest.json"
	pngExt       = ".png"
)

var (
	// ErrEmptyCapture means the browser returned no image data.
	ErrEmptyCapture = errors.New("screenshot returned no data")
	// ErrDuplicateName means an artifact with the same name was already written.
	ErrDuplicateName = errors.New("artifact name already captured")

	unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)
)

// Capturer takes screenshots from a session and writes them as PNG files
// into a single directory. Files are never removed once written.
type Capturer struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	artifacts []schemas.Artifact
	names     map[string]struct{}
}

// NewCapturer prepares dir (with "~" expanded) on fs and returns a capturer
// writing into it.
func NewCapturer(fs afero.Fs, dir string, logger *zap.Logger) (*Capturer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("artifact directory must not be empty")
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand artifact directory %q: %w", dir, err)
	}
	if err := fs.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", expanded, err)
	}
	return &Capturer{
		fs:     fs,
		dir:    expanded,
		logger: logger.Named("artifacts"),
		now:    time.Now,
		names:  make(map[string]struct{}),
	}, nil
}

// Dir returns the expanded artifact directory.
func (c *Capturer) Dir() string {
	return c.dir
}

// Fs returns the filesystem the capturer writes to.
func (c *Capturer) Fs() afero.Fs {
	return c.fs
}

// Capture screenshots the given scope and writes <name>.png. The file exists
// when Capture returns without error. selector is required for element scope
// and ignored otherwise.
func (c *Capturer) Capture(ctx context.Context, src schemas.ScreenshotTaker, step, name string, scope schemas.ArtifactScope, selector string) (schemas.Artifact, error) {
	name = SanitizeName(name)
	if name == "" {
		return schemas.Artifact{}, errors.New("artifact name must not be empty")
	}

	var (
		data []byte
		err  error
	)
	switch scope {
	case schemas.ScopeFullPage:
		data, err = src.FullScreenshot(ctx)
	case schemas.ScopeViewport:
		data, err = src.ViewportScreenshot(ctx)
	case schemas.ScopeElement:
		if selector == "" {
			return schemas.Artifact{}, fmt.Errorf("element screenshot %q requires a selector", name)
		}
		data, err = src.ElementScreenshot(ctx, selector)
	default:
		return schemas.Artifact{}, fmt.Errorf("unknown artifact scope %q", scope)
	}
	if err != nil {
		return schemas.Artifact{}, fmt.Errorf("capturing %s: %w", name, err)
	}
	if len(data) == 0 {
		return schemas.Artifact{}, fmt.Errorf("capturing %s: %w", name, ErrEmptyCapture)
	}

	artifact := schemas.Artifact{
		Name:       name,
		Path:       filepath.Join(c.dir, name+pngExt),
		Scope:      scope,
		Step:       step,
		Bytes:      len(data),
		CapturedAt: c.now().UTC(),
	}
	if scope == schemas.ScopeElement {
		artifact.Selector = selector
	}

	if err := c.write(artifact, data); err != nil {
		return schemas.Artifact{}, err
	}

	c.logger.Info("Screenshot saved.",
		zap.String("name", name),
		zap.String("path", artifact.Path),
		zap.String("scope", string(scope)),
		zap.Int("bytes", artifact.Bytes),
	)
	return artifact, nil
}

func (c *Capturer) write(artifact schemas.Artifact, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.names[artifact.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateName, artifact.Name)
	}
	// Files left by an earlier run in the same directory are overwritten.
	if err := afero.WriteFile(c.fs, artifact.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot %s: %w", artifact.Path, err)
	}
	c.names[artifact.Name] = struct{}{}
	c.artifacts = append(c.artifacts, artifact)
	return nil
}

// Artifacts returns a copy of everything captured so far, in order.
func (c *Capturer) Artifacts() []schemas.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]schemas.Artifact, len(c.artifacts))
	copy(out, c.artifacts)
	return out
}

// WriteManifest writes manifest.json describing every captured artifact.
func (c *Capturer) WriteManifest(runID string) (string, error) {
	manifest := struct {
		RunID     string             `json:"run_id"`
		Dir       string             `json:"dir"`
		Artifacts []schemas.Artifact `json:"artifacts"`
	}{
		RunID:     runID,
		Dir:       c.dir,
		Artifacts: c.Artifacts(),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	path := filepath.Join(c.dir, ManifestFile)
	if err := afero.WriteFile(c.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return path, nil
}

// SanitizeName lowercases name and replaces anything outside [a-z0-9._-]
// with a dash, so furniture types and step names are safe file names.
func SanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, pngExt)
	name = unsafeChars.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}
