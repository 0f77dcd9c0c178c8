package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kinds of configuration errors.
const (
	ErrorTypeIO         = "io"
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
)

// ConfigurationError describes one problem with a configuration file.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`
	FileName    string   `json:"fileName"`
	Field       string   `json:"field,omitempty"` // dotted key, e.g. tracker.pollInterval
	ErrorType   string   `json:"errorType"`
	Message     string   `json:"message"`
	Details     string   `json:"details,omitempty"`
	LineNumber  int      `json:"lineNumber,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (ce ConfigurationError) Error() string {
	if ce.Field != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", ce.ErrorType, ce.FileName, ce.Field, ce.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", ce.ErrorType, ce.FileName, ce.Message)
}

// DetailedError renders the error over several lines, including the
// location and any suggestions.
func (ce ConfigurationError) DetailedError() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", ce.FilePath, ce.ErrorType)

	location := ce.Field
	if ce.LineNumber > 0 {
		location = strings.TrimSpace(fmt.Sprintf("%s line %d", location, ce.LineNumber))
	}
	if location != "" {
		fmt.Fprintf(&b, "  at: %s\n", location)
	}
	fmt.Fprintf(&b, "  error: %s\n", ce.Message)
	if ce.Details != "" {
		fmt.Fprintf(&b, "  details: %s\n", ce.Details)
	}
	for _, s := range ce.Suggestions {
		fmt.Fprintf(&b, "  hint: %s\n", s)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ConfigurationErrorCollection gathers every validation failure of one file
// so they can be reported together.
type ConfigurationErrorCollection struct {
	Errors []ConfigurationError `json:"errors"`
}

func (cec ConfigurationErrorCollection) Error() string {
	switch len(cec.Errors) {
	case 0:
		return "no configuration errors"
	case 1:
		return cec.Errors[0].Error()
	default:
		return fmt.Sprintf("%d configuration errors: %s (and %d more)",
			len(cec.Errors), cec.Errors[0].Error(), len(cec.Errors)-1)
	}
}

func (cec *ConfigurationErrorCollection) HasErrors() bool {
	return len(cec.Errors) > 0
}

func (cec *ConfigurationErrorCollection) Add(err ConfigurationError) {
	cec.Errors = append(cec.Errors, err)
}

// Fields returns the offending keys in the order they were reported.
func (cec *ConfigurationErrorCollection) Fields() []string {
	fields := make([]string, 0, len(cec.Errors))
	for _, err := range cec.Errors {
		if err.Field != "" {
			fields = append(fields, err.Field)
		}
	}
	return fields
}

// GetDetailedReport renders every error with DetailedError.
func (cec *ConfigurationErrorCollection) GetDetailedReport() string {
	if len(cec.Errors) == 0 {
		return "No configuration errors to report"
	}
	reports := make([]string, 0, len(cec.Errors))
	for _, err := range cec.Errors {
		reports = append(reports, err.DetailedError())
	}
	return fmt.Sprintf("%d configuration error(s):\n\n%s", len(cec.Errors), strings.Join(reports, "\n\n"))
}

// NewConfigurationError creates an error for path. Suggestions are filled
// in for the keys users most often get wrong.
func NewConfigurationError(filePath, field, errorType, message string) ConfigurationError {
	return ConfigurationError{
		FilePath:    filePath,
		FileName:    filepath.Base(filePath),
		Field:       field,
		ErrorType:   errorType,
		Message:     message,
		Suggestions: suggestionsFor(field),
	}
}

func NewConfigurationErrorCollection() *ConfigurationErrorCollection {
	return &ConfigurationErrorCollection{}
}

func suggestionsFor(field string) []string {
	switch {
	case field == "":
		return nil
	case strings.HasPrefix(field, "kubernetes.namespaces"):
		return []string{"namespaces must be lowercase DNS-1123 labels, e.g. flink-jobs"}
	case field == "kubernetes.labelSelector":
		return []string{"use Kubernetes selector syntax, e.g. team=data,tier!=dev"}
	case field == "logging.level":
		return []string{"one of: debug, info, warn, error"}
	case field == "logging.format":
		return []string{"one of: text, json"}
	case strings.HasPrefix(field, "tracker.") && (strings.HasSuffix(field, "Interval") ||
		strings.HasSuffix(field, "Timeout") || strings.HasSuffix(field, "After") ||
		strings.HasSuffix(field, "Period") || strings.HasPrefix(field, "tracker.watchRetry")):
		return []string{"durations use Go syntax, e.g. 30s, 5m or 1h30m"}
	}
	return nil
}
