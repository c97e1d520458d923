// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/craftcheck/api/schemas"
	"github.com/xkilldash9x/craftcheck/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	return m.Called().Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	return m.Called().Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Target() config.TargetConfig {
	return m.Called().Get(0).(config.TargetConfig)
}

func (m *MockConfig) Artifacts() config.ArtifactsConfig {
	return m.Called().Get(0).(config.ArtifactsConfig)
}

func (m *MockConfig) Timing() config.TimingConfig {
	return m.Called().Get(0).(config.TimingConfig)
}

func (m *MockConfig) Scenario() config.ScenarioConfig {
	return m.Called().Get(0).(config.ScenarioConfig)
}

func (m *MockConfig) Contract() config.ContractConfig {
	return m.Called().Get(0).(config.ContractConfig)
}

func (m *MockConfig) HTTP() config.HTTPConfig {
	return m.Called().Get(0).(config.HTTPConfig)
}

// --- Setters ---

func (m *MockConfig) SetTargetURL(u string) { m.Called(u) }
func (m *MockConfig) SetArtifactsDir(d string) { m.Called(d) }
func (m *MockConfig) SetContractPath(p string) { m.Called(p) }
func (m *MockConfig) SetBrowserHeadless(b bool) { m.Called(b) }

// -- Session Mock --

// MockSessionContext implements schemas.SessionContext for testing.
type MockSessionContext struct {
	mock.Mock
}

var _ schemas.SessionContext = (*MockSessionContext)(nil)

func NewMockSessionContext() *MockSessionContext {
	return &MockSessionContext{}
}

func (m *MockSessionContext) ID() string { return m.Called().String(0) }
func (m *MockSessionContext) Close(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockSessionContext) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockSessionContext) Select(ctx context.Context, selector, value string) error {
	return m.Called(ctx, selector, value).Error(0)
}

func (m *MockSessionContext) Click(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockSessionContext) SetViewport(ctx context.Context, width, height int) error {
	return m.Called(ctx, width, height).Error(0)
}

func (m *MockSessionContext) Query(ctx context.Context, selector string) (schemas.Element, error) {
	args := m.Called(ctx, selector)
	el, _ := args.Get(0).(schemas.Element)
	return el, args.Error(1)
}

func (m *MockSessionContext) QueryAll(ctx context.Context, selector string) ([]schemas.Element, error) {
	args := m.Called(ctx, selector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.Element), args.Error(1)
}

func (m *MockSessionContext) Evaluate(ctx context.Context, selector, extractor string, out interface{}) error {
	return m.Called(ctx, selector, extractor, out).Error(0)
}

func (m *MockSessionContext) Visible(ctx context.Context, selector string) (bool, error) {
	args := m.Called(ctx, selector)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionContext) Layout(ctx context.Context, selectors ...string) (schemas.Layout, error) {
	args := m.Called(ctx, selectors)
	layout, _ := args.Get(0).(schemas.Layout)
	return layout, args.Error(1)
}

func (m *MockSessionContext) FullScreenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockSessionContext) ViewportScreenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockSessionContext) ElementScreenshot(ctx context.Context, selector string) ([]byte, error) {
	args := m.Called(ctx, selector)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}
