package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// LongPromptRunes is the length past which a prompt is routed to the
// long-context model.
const LongPromptRunes = 1200

// RoutingTable maps prompt classes to preferred models. Empty entries
// fall back to Default; an empty Default falls back to the first
// discovered model.
type RoutingTable struct {
	Default string
	Code    string
	Long    string
}

// Decision is the outcome of routing a prompt.
type Decision struct {
	Model     string
	WebSearch bool
	Reason    string
}

// RoutingError reports that no usable model could be resolved for a
// prompt. It surfaces in the transcript as a failed assistant message
// rather than an HTTP error.
type RoutingError struct {
	Reason string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing failed: %s", e.Reason)
}

var codeMarkers = []string{
	"```",
	"func ",
	"def ",
	"class ",
	"import ",
	"#include",
	"stack trace",
	"traceback",
}

var webMarkers = []string{
	"latest",
	"today",
	"current",
	"news",
	"right now",
	"this week",
	"price of",
	"who won",
}

// Route picks a model and decides whether the prompt needs web
// augmentation. Models that cannot chat (embedding and pipeline
// models) are never selected.
func Route(prompt string, models []string, table RoutingTable) (Decision, error) {
	usable := FilterChatModels(models)
	if len(usable) == 0 {
		return Decision{}, &RoutingError{Reason: "no chat-capable models available"}
	}

	d := Decision{WebSearch: needsWeb(prompt)}

	switch {
	case containsAny(strings.ToLower(prompt), codeMarkers):
		d.Model = pickModel(usable, table.Code, table.Default)
		d.Reason = "code prompt"
	case utf8.RuneCountInString(prompt) > LongPromptRunes:
		d.Model = pickModel(usable, table.Long, table.Default)
		d.Reason = "long prompt"
	default:
		d.Model = pickModel(usable, table.Default)
		d.Reason = "default"
	}

	return d, nil
}

// FilterChatModels drops models that cannot hold a conversation.
func FilterChatModels(models []string) []string {
	usable := make([]string, 0, len(models))
	for _, m := range models {
		name := strings.ToLower(m)
		if strings.Contains(name, "embed") || strings.Contains(name, "embedding") || strings.Contains(name, "pipeline") {
			continue
		}
		usable = append(usable, m)
	}
	return usable
}

// pickModel returns the first preference present in the discovered
// list, falling back to the first discovered model.
func pickModel(models []string, preferences ...string) string {
	for _, pref := range preferences {
		if pref == "" {
			continue
		}
		for _, m := range models {
			if strings.EqualFold(m, pref) {
				return m
			}
		}
	}
	return models[0]
}

func needsWeb(prompt string) bool {
	return containsAny(strings.ToLower(prompt), webMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
