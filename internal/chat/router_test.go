package chat

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRoute(t *testing.T) {
	models := []string{"llama3", "qwen3-coder", "bigctx"}
	table := RoutingTable{Default: "llama3", Code: "qwen3-coder", Long: "bigctx"}

	tests := []struct {
		name      string
		prompt    string
		wantModel string
		wantWeb   bool
	}{
		{
			name:      "plain prompt uses default",
			prompt:    "how do I cook rice",
			wantModel: "llama3",
		},
		{
			name:      "fenced code block routes to code model",
			prompt:    "what does this do\n```py\nprint(1)\n```",
			wantModel: "qwen3-coder",
		},
		{
			name:      "func keyword routes to code model",
			prompt:    "why does func main() panic here",
			wantModel: "qwen3-coder",
		},
		{
			name:      "long prompt routes to long-context model",
			prompt:    strings.Repeat("lorem ipsum ", 150),
			wantModel: "bigctx",
		},
		{
			name:      "current-events cue enables web search",
			prompt:    "latest go release notes",
			wantModel: "llama3",
			wantWeb:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Route(tt.prompt, models, table)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Model != tt.wantModel {
				t.Errorf("expected model %q, got %q", tt.wantModel, d.Model)
			}
			if d.WebSearch != tt.wantWeb {
				t.Errorf("expected web=%v, got %v", tt.wantWeb, d.WebSearch)
			}
		})
	}
}

func TestRouteNoModels(t *testing.T) {
	_, err := Route("hello", []string{"nomic-embed-text"}, RoutingTable{})

	var routeErr *RoutingError
	if !errors.As(err, &routeErr) {
		t.Fatalf("expected RoutingError, got %v", err)
	}
}

func TestRouteUnknownPreferenceFallsBack(t *testing.T) {
	d, err := Route("hello", []string{"mistral"}, RoutingTable{Default: "llama3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Model != "mistral" {
		t.Errorf("expected first discovered model, got %q", d.Model)
	}
}

func TestFilterChatModels(t *testing.T) {
	got := FilterChatModels([]string{"llama3", "nomic-embed-text", "doc-pipeline", "text-embedding-3", "qwen3"})
	want := []string{"llama3", "qwen3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
