package llm

// doneSentinel terminates line-framed streams on gateways that use
// SSE framing.
const doneSentinel = "[DONE]"

// Message is a chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat endpoint.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// chunk covers both response framings a gateway may use. Ollama-style
// gateways answer {"message":{"content":...},"done":...}; OpenAI-style
// gateways answer {"choices":[{"delta":{"content":...}}]} per line and
// {"choices":[{"message":{"content":...}}]} when not streaming.
type chunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done    bool `json:"done"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// content extracts the text carried by a chunk, whichever shape it
// arrived in.
func (c chunk) content() string {
	if c.Message.Content != "" {
		return c.Message.Content
	}
	if len(c.Choices) > 0 {
		if c.Choices[0].Delta.Content != "" {
			return c.Choices[0].Delta.Content
		}
		return c.Choices[0].Message.Content
	}
	return ""
}

// finished reports whether the chunk terminates the stream.
func (c chunk) finished() bool {
	if c.Done {
		return true
	}
	return len(c.Choices) > 0 && c.Choices[0].FinishReason != ""
}
