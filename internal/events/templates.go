package events

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MessageData carries the values substituted into an event message.
type MessageData struct {
	Name      string
	Namespace string
	AppID     int64
	OldState  string
	NewState  string
	Expected  string
	Source    string
	Age       time.Duration
}

// messageDataFor builds the template data for a tracker event.
func messageDataFor(ev Event) MessageData {
	return MessageData{
		Name:      ev.Identity.Name,
		Namespace: ev.Identity.Namespace,
		AppID:     ev.Identity.AppID,
		OldState:  string(ev.OldState),
		NewState:  string(ev.NewState),
		Expected:  string(ev.Expected),
		Source:    string(ev.Source),
		Age:       ev.ExpectationAge(),
	}
}

// MessageTemplateEngine renders Kubernetes Event messages per reason.
type MessageTemplateEngine struct {
	mu        sync.RWMutex
	templates map[Reason]string
}

// NewMessageTemplateEngine creates an engine with the default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	engine := &MessageTemplateEngine{
		templates: make(map[Reason]string),
	}
	engine.loadDefaultTemplates()
	return engine
}

func (e *MessageTemplateEngine) loadDefaultTemplates() {
	// Observed state changes
	e.templates[ReasonJobStarting] = "Flink job {{.AppID}} on {{.Name}} is starting{{if .OldState}} (was {{.OldState}}){{end}}"
	e.templates[ReasonJobRunning] = "Flink job {{.AppID}} on {{.Name}} is running{{if .OldState}} (was {{.OldState}}){{end}}"
	e.templates[ReasonJobCancelling] = "Flink job {{.AppID}} on {{.Name}} is being cancelled"
	e.templates[ReasonJobCancelled] = "Flink job {{.AppID}} on {{.Name}} was cancelled"
	e.templates[ReasonJobFinished] = "Flink job {{.AppID}} on {{.Name}} finished"
	e.templates[ReasonJobFailed] = "Flink job {{.AppID}} on {{.Name}} failed{{if .OldState}} after {{.OldState}}{{end}}"
	e.templates[ReasonJobLost] = "Flink job {{.AppID}} on {{.Name}} is lost: cluster resources disappeared from namespace {{.Namespace}}"

	// Expectations
	e.templates[ReasonExpectationSet] = "Expecting Flink job {{.AppID}} on {{.Name}} to reach {{.Expected}}"
	e.templates[ReasonExpectationSatisfied] = "Flink job {{.AppID}} on {{.Name}} reached expected state {{.Expected}}{{if .Source}} via {{.Source}}{{end}}"
	e.templates[ReasonExpectationTimeout] = "Flink job {{.AppID}} on {{.Name}} did not reach {{.Expected}}{{if .Age}} within {{.Age}}{{end}}{{if .NewState}}, last observed {{.NewState}}{{end}}"
}

// Render generates the message for reason.
func (e *MessageTemplateEngine) Render(reason Reason, data MessageData) string {
	template, exists := e.GetTemplate(reason)
	if !exists {
		return fmt.Sprintf("Event: %s for %s/%s", string(reason), data.Namespace, data.Name)
	}

	return e.renderTemplate(template, data)
}

// SetTemplate overrides the template for reason.
func (e *MessageTemplateEngine) SetTemplate(reason Reason, template string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[reason] = template
}

// GetTemplate returns the template for reason.
func (e *MessageTemplateEngine) GetTemplate(reason Reason) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	template, exists := e.templates[reason]
	return template, exists
}

func (e *MessageTemplateEngine) renderTemplate(template string, data MessageData) string {
	// Conditionals first so that empty values drop their surrounding text.
	result := e.renderConditionals(template, data)

	result = strings.ReplaceAll(result, "{{.Name}}", data.Name)
	result = strings.ReplaceAll(result, "{{.Namespace}}", data.Namespace)
	result = strings.ReplaceAll(result, "{{.AppID}}", strconv.FormatInt(data.AppID, 10))
	result = strings.ReplaceAll(result, "{{.OldState}}", data.OldState)
	result = strings.ReplaceAll(result, "{{.NewState}}", data.NewState)
	result = strings.ReplaceAll(result, "{{.Expected}}", data.Expected)
	result = strings.ReplaceAll(result, "{{.Source}}", data.Source)

	if data.Age > 0 {
		result = strings.ReplaceAll(result, "{{.Age}}", data.Age.Round(time.Second).String())
	} else {
		result = strings.ReplaceAll(result, "{{.Age}}", "")
	}

	return result
}

// renderConditionals supports {{if .Field}}content{{end}} for the optional fields.
func (e *MessageTemplateEngine) renderConditionals(template string, data MessageData) string {
	result := template
	result = e.renderConditional(result, "{{if .OldState}}", "{{end}}", data.OldState != "" && data.OldState != "UNKNOWN")
	result = e.renderConditional(result, "{{if .NewState}}", "{{end}}", data.NewState != "")
	result = e.renderConditional(result, "{{if .Source}}", "{{end}}", data.Source != "")
	result = e.renderConditional(result, "{{if .Age}}", "{{end}}", data.Age > 0)
	return result
}

func (e *MessageTemplateEngine) renderConditional(template, startMarker, endMarker string, condition bool) string {
	startIndex := strings.Index(template, startMarker)
	if startIndex == -1 {
		return template
	}

	endIndex := strings.Index(template[startIndex:], endMarker)
	if endIndex == -1 {
		return template
	}

	endIndex += startIndex // absolute index

	before := template[:startIndex]
	after := template[endIndex+len(endMarker):]
	if condition {
		content := template[startIndex+len(startMarker) : endIndex]
		return before + content + after
	}
	return before + after
}
