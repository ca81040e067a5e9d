package domain

import (
	"strings"
	"time"
	"unicode"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// TitleMaxLen is the length a derived session title is trimmed to.
const TitleMaxLen = 60

// Panel carries auxiliary content attached to an assistant message,
// such as the web-search citations used to ground the answer.
type Panel struct {
	// ┌─────────────────────────┐
	// │     Identification      │
	// └─────────────────────────┘
	Kind string `json:"kind"`

	// ┌─────────────────────────┐
	// │        Contents         │
	// └─────────────────────────┘
	Title   string      `json:"title,omitempty"`
	Sources []WebSource `json:"sources,omitempty"`
}

// WebSource is a single web-search citation.
type WebSource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// ChatMessage is one entry in a session transcript.
type ChatMessage struct {
	// ┌─────────────────────────┐
	// │     Identification      │
	// └─────────────────────────┘
	ID   string `json:"id"`
	Role Role   `json:"role"`

	// ┌─────────────────────────┐
	// │        Contents         │
	// └─────────────────────────┘
	Content string  `json:"content"`
	Panels  []Panel `json:"panels,omitempty"`

	// ┌─────────────────────────┐
	// │        Metadata         │
	// └─────────────────────────┘
	Model     string    `json:"model,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession is a persisted conversation.
type ChatSession struct {
	// ┌─────────────────────────┐
	// │     Identification      │
	// └─────────────────────────┘
	ID    string `json:"id"`
	Title string `json:"title"`
	// TitleCustom marks a manually set title, which derivation from
	// the first user message must never overwrite.
	TitleCustom bool `json:"title_custom,omitempty"`

	// ┌─────────────────────────┐
	// │        Contents         │
	// └─────────────────────────┘
	Messages []ChatMessage `json:"messages"`

	// ┌─────────────────────────┐
	// │        Metadata         │
	// └─────────────────────────┘
	Pinned    bool      `json:"pinned,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeriveTitle builds a session title from the first user prompt: the
// text is flattened to a single line and trimmed to TitleMaxLen runes
// at a word boundary where possible.
func DeriveTitle(prompt string) string {
	flat := strings.Join(strings.Fields(prompt), " ")
	if flat == "" {
		return "New chat"
	}

	runes := []rune(flat)
	if len(runes) <= TitleMaxLen {
		return flat
	}

	cut := TitleMaxLen
	for i := TitleMaxLen; i > TitleMaxLen/2; i-- {
		if unicode.IsSpace(runes[i-1]) {
			cut = i - 1
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}
