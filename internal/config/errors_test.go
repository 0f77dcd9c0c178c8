package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError_Error(t *testing.T) {
	withField := NewConfigurationError("/etc/flinktrack/config.yaml", "tracker.pollInterval", ErrorTypeValidation, "must be positive")
	assert.Equal(t, "[validation] config.yaml: tracker.pollInterval: must be positive", withField.Error())

	noField := NewConfigurationError("/etc/flinktrack/config.yaml", "", ErrorTypeIO, "permission denied")
	assert.Equal(t, "[io] config.yaml: permission denied", noField.Error())
}

func TestConfigurationError_DetailedError(t *testing.T) {
	ce := NewConfigurationError("/tmp/config.yaml", "", ErrorTypeParse, "malformed YAML")
	ce.LineNumber = 7
	ce.Details = "yaml: line 7: mapping values are not allowed in this context"

	report := ce.DetailedError()
	assert.Contains(t, report, "/tmp/config.yaml (parse)")
	assert.Contains(t, report, "at: line 7")
	assert.Contains(t, report, "details: yaml: line 7")
}

func TestNewConfigurationError_Suggestions(t *testing.T) {
	tests := []struct {
		field string
		hint  string
	}{
		{"tracker.pollInterval", "Go syntax"},
		{"tracker.lostGracePeriod", "Go syntax"},
		{"tracker.watchRetryMax", "Go syntax"},
		{"kubernetes.namespaces[2]", "DNS-1123"},
		{"logging.format", "text, json"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			ce := NewConfigurationError("config.yaml", tt.field, ErrorTypeValidation, "bad")
			if assert.Len(t, ce.Suggestions, 1) {
				assert.Contains(t, ce.Suggestions[0], tt.hint)
			}
		})
	}

	assert.Empty(t, NewConfigurationError("config.yaml", "tracker.pollConcurrency", ErrorTypeValidation, "bad").Suggestions)
}

func TestConfigurationErrorCollection(t *testing.T) {
	c := NewConfigurationErrorCollection()
	assert.False(t, c.HasErrors())
	assert.Equal(t, "no configuration errors", c.Error())

	c.Add(NewConfigurationError("config.yaml", "logging.level", ErrorTypeValidation, "unknown level"))
	assert.Equal(t, "[validation] config.yaml: logging.level: unknown level", c.Error())

	c.Add(NewConfigurationError("config.yaml", "", ErrorTypeValidation, "other"))
	assert.True(t, c.HasErrors())
	assert.Contains(t, c.Error(), "2 configuration errors")
	assert.Equal(t, []string{"logging.level"}, c.Fields())
	assert.Contains(t, c.GetDetailedReport(), "2 configuration error(s)")
}
