package config

import (
	"fmt"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/validation"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidatePositiveDuration checks that a duration setting is greater than zero
func ValidatePositiveDuration(field string, value time.Duration) error {
	if value <= 0 {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: "must be a positive duration",
		}
	}
	return nil
}

// Validate checks every setting and returns all problems found.
func (c Config) Validate() ValidationErrors {
	var errs ValidationErrors

	add := func(err error) {
		if ve, ok := err.(ValidationError); ok {
			errs = append(errs, ve)
		}
	}

	for i, ns := range c.Kubernetes.Namespaces {
		if msgs := validation.IsDNS1123Label(ns); len(msgs) > 0 {
			errs.Add(fmt.Sprintf("kubernetes.namespaces[%d]", i), strings.Join(msgs, "; "), ns)
		}
	}
	if _, err := c.Kubernetes.Selector(); err != nil {
		errs.Add("kubernetes.labelSelector", err.Error(), c.Kubernetes.LabelSelector)
	}

	t := c.Tracker
	add(ValidatePositiveDuration("tracker.pollInterval", t.PollInterval))
	add(ValidatePositiveDuration("tracker.staleAfter", t.StaleAfter))
	add(ValidatePositiveDuration("tracker.pollTimeout", t.PollTimeout))
	add(ValidatePositiveDuration("tracker.expectationTimeout", t.ExpectationTimeout))
	add(ValidatePositiveDuration("tracker.sweepInterval", t.SweepInterval))
	add(ValidatePositiveDuration("tracker.resyncPeriod", t.ResyncPeriod))
	add(ValidatePositiveDuration("tracker.watchRetryInitial", t.WatchRetryInitial))
	add(ValidatePositiveDuration("tracker.watchRetryMax", t.WatchRetryMax))

	if t.PollConcurrency < 1 {
		errs.Add("tracker.pollConcurrency", "must be at least 1", t.PollConcurrency)
	}
	if t.PollQPS < 0 {
		errs.Add("tracker.pollQPS", "must not be negative", t.PollQPS)
	}
	if t.PollBurst < 0 {
		errs.Add("tracker.pollBurst", "must not be negative", t.PollBurst)
	}
	if t.LostGracePeriod < 0 {
		errs.Add("tracker.lostGracePeriod", "must not be negative", t.LostGracePeriod)
	}
	if t.WatchRetryMax > 0 && t.WatchRetryMax < t.WatchRetryInitial {
		errs.Add("tracker.watchRetryMax", "must not be shorter than tracker.watchRetryInitial", t.WatchRetryMax)
	}

	if c.Events.Buffer < 0 {
		errs.Add("events.buffer", "must not be negative", c.Events.Buffer)
	}

	add(ValidateOneOf("logging.level", strings.ToLower(c.Logging.Level), []string{"debug", "info", "warn", "error"}))
	add(ValidateOneOf("logging.format", c.Logging.Format, []string{"text", "json"}))

	return errs
}
