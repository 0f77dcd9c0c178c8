package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	errs := Default().Validate()
	assert.False(t, errs.HasErrors(), errs.Error())
}

func TestConfig_TrackerSettings(t *testing.T) {
	cfg := Default()
	cfg.Tracker.PollInterval = 3 * time.Second
	cfg.Tracker.LostGracePeriod = time.Minute
	cfg.Tracker.WatchEnabled = false

	tc := cfg.TrackerSettings()
	assert.Equal(t, 3*time.Second, tc.Poll.Interval)
	assert.Equal(t, time.Minute, tc.Poll.LostGracePeriod)
	assert.Equal(t, cfg.Tracker.PollConcurrency, tc.Poll.Concurrency)
	assert.Equal(t, cfg.Tracker.ExpectationTimeout, tc.ExpectationTimeout)
	assert.False(t, tc.WatchEnabled)
}

func TestKubernetesConfig_Selector(t *testing.T) {
	selector, err := KubernetesConfig{}.Selector()
	require.NoError(t, err)
	assert.Nil(t, selector)

	_, err = KubernetesConfig{LabelSelector: "app in (a"}.Selector()
	assert.Error(t, err)
}

func TestConfig_ValidateRetryBounds(t *testing.T) {
	cfg := Default()
	cfg.Tracker.WatchRetryInitial = time.Minute
	cfg.Tracker.WatchRetryMax = time.Second

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "tracker.watchRetryMax", errs[0].Field)
}

func TestValidateOneOf(t *testing.T) {
	assert.NoError(t, ValidateOneOf("logging.format", "json", []string{"text", "json"}))

	err := ValidateOneOf("logging.format", "xml", []string{"text", "json"})
	require.Error(t, err)
	assert.Equal(t, "field 'logging.format': must be one of: text, json", err.Error())
}
