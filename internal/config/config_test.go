// File: internal/config/config_test.go
package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 1920, cfg.Browser().Viewport.Width)
	assert.Equal(t, 1080, cfg.Browser().Viewport.Height)
	assert.Equal(t, "http://web:5000", cfg.Target().URL)
	assert.Equal(t, "./screenshots", cfg.Artifacts().Dir)

	timing := cfg.Timing()
	assert.Equal(t, 30*time.Second, timing.GenerationTimeout)
	assert.Equal(t, 100*time.Millisecond, timing.PollInterval)
	assert.Equal(t, 500*time.Millisecond, timing.SelectSettle)
	assert.Equal(t, 2*time.Second, timing.RenderSettle)
	assert.Equal(t, 2*time.Second, timing.BusyGrace)

	sc := cfg.Scenario()
	assert.Equal(t, []string{"workbench", "bookshelf", "bed_frame", "storage_bench"}, sc.SelectionTypes)
	assert.Equal(t, "workbench", sc.BaselineType)
	assert.Equal(t, []string{"bookshelf", "storage_bench"}, sc.AdditionalTypes)
	assert.Equal(t, 10, sc.CutSampleLines)

	h := cfg.HTTP()
	assert.Equal(t, 60*time.Second, h.RequestTimeout)
	assert.True(t, h.ForceHTTP2)
	assert.True(t, h.FollowRedirects)
	assert.Empty(t, h.ProxyURL)

	assert.NoError(t, cfg.Validate(), "defaults must validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.SetTargetURL("  ")
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target.url is a required configuration field")

		cfg = NewDefaultConfig()
		cfg.SetArtifactsDir("")
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "artifacts.dir is a required configuration field")

		cfg = NewDefaultConfig()
		cfg.BrowserCfg.Viewport.Width = 0
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "viewport")
	})

	t.Run("Timing Validation", func(t *testing.T) {
		valid := NewDefaultConfig().Timing()
		assert.NoError(t, valid.Validate())

		zeroTimeout := valid
		zeroTimeout.GenerationTimeout = 0
		err := zeroTimeout.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "generation_timeout must be a positive duration")

		zeroInterval := valid
		zeroInterval.PollInterval = 0
		err = zeroInterval.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "poll_interval must be a positive duration")

		slowPoll := valid
		slowPoll.PollInterval = time.Minute
		err = slowPoll.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not exceed generation_timeout")

		negativeSettle := valid
		negativeSettle.RenderSettle = -time.Second
		err = negativeSettle.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "settle delays must not be negative")

		zeroSettle := valid
		zeroSettle.SelectSettle = 0
		zeroSettle.RenderSettle = 0
		assert.NoError(t, zeroSettle.Validate(), "zero settle delays are allowed")
	})

	t.Run("Scenario Validation", func(t *testing.T) {
		valid := NewDefaultConfig().Scenario()
		assert.NoError(t, valid.Validate())

		noBaseline := valid
		noBaseline.BaselineType = ""
		assert.ErrorContains(t, noBaseline.Validate(), "baseline_type is required")

		noTypes := valid
		noTypes.SelectionTypes = nil
		assert.ErrorContains(t, noTypes.Validate(), "selection_types")

		noLines := valid
		noLines.CutSampleLines = 0
		assert.ErrorContains(t, noLines.Validate(), "cut_sample_lines must be a positive integer")

		dup := valid
		dup.AdditionalTypes = []string{"bookshelf", "bookshelf"}
		assert.ErrorContains(t, dup.Validate(), `additional_types lists "bookshelf" more than once`)

		empty := valid
		empty.SelectionTypes = []string{"workbench", ""}
		assert.ErrorContains(t, empty.Validate(), "selection_types must not contain empty entries")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
target:
  url: "http://localhost:5000"
timing:
  generation_timeout: 45s
  poll_interval: 250ms
scenario:
  additional_types: [bed_frame]
  verify_toggle_roundtrip: true
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:5000", cfg.Target().URL)
		assert.Equal(t, 45*time.Second, cfg.Timing().GenerationTimeout)
		assert.Equal(t, 250*time.Millisecond, cfg.Timing().PollInterval)
		assert.Equal(t, []string{"bed_frame"}, cfg.Scenario().AdditionalTypes)
		assert.True(t, cfg.Scenario().VerifyToggleRoundTrip)
		// Untouched keys keep their defaults.
		assert.Equal(t, 2*time.Second, cfg.Timing().RenderSettle)
		assert.Equal(t, "info", cfg.Logger().Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("timing.poll_interval", "0s")

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "poll_interval must be a positive duration")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		t.Setenv("CRAFTCHECK_TARGET_URL", "http://envvar:5000")
		t.Setenv("CRAFTCHECK_TIMING_RENDER_SETTLE", "3s")

		v := viper.New()
		SetDefaults(v)
		v.SetEnvPrefix("CRAFTCHECK")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://envvar:5000", cfg.Target().URL)
		assert.Equal(t, 3*time.Second, cfg.Timing().RenderSettle)
	})
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetTargetURL("http://127.0.0.1:8080")
	cfg.SetArtifactsDir("/tmp/shots")
	cfg.SetContractPath("contract.yaml")
	cfg.SetBrowserHeadless(false)

	assert.Equal(t, "http://127.0.0.1:8080", cfg.Target().URL)
	assert.Equal(t, "/tmp/shots", cfg.Artifacts().Dir)
	assert.Equal(t, "contract.yaml", cfg.Contract().Path)
	assert.False(t, cfg.Browser().Headless)
}
