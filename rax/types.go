package rax

import "strings"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Order within ChatRequest.Messages is
// conversation order and is preserved on the wire.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(text string) Message    { return Message{Role: RoleSystem, Content: text} }
func User(text string) Message      { return Message{Role: RoleUser, Content: text} }
func Assistant(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// ChatRequest is a chat-completion request. Model and a non-empty Messages
// sequence are required; everything else is optional and omitted from the
// wire when unset.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	MaxTokens        *int     `json:"max_tokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	Stop             []string `json:"stop,omitempty"`
	Stream           bool     `json:"stream,omitempty"`
	User             string   `json:"user,omitempty"`
}

func (r ChatRequest) Clone() ChatRequest {
	out := r
	out.Messages = append([]Message(nil), r.Messages...)
	if r.Stop != nil {
		out.Stop = append([]string(nil), r.Stop...)
	}
	if r.MaxTokens != nil {
		v := *r.MaxTokens
		out.MaxTokens = &v
	}
	if r.Temperature != nil {
		v := *r.Temperature
		out.Temperature = &v
	}
	if r.TopP != nil {
		v := *r.TopP
		out.TopP = &v
	}
	if r.FrequencyPenalty != nil {
		v := *r.FrequencyPenalty
		out.FrequencyPenalty = &v
	}
	if r.PresencePenalty != nil {
		v := *r.PresencePenalty
		out.PresencePenalty = &v
	}
	return out
}

type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token accounting; TotalTokens is the server-side sum of
// prompt and completion tokens.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// FirstText returns the assistant text of the first choice, or "".
func (r ChatResponse) FirstText() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// IDs returns the model identifiers in listing order.
func (l ModelList) IDs() []string {
	out := make([]string, 0, len(l.Data))
	for _, m := range l.Data {
		out = append(out, m.ID)
	}
	return out
}

// UsageParams selects the reporting window; empty fields are omitted and the
// server applies its own defaults. Dates are YYYY-MM-DD.
type UsageParams struct {
	StartDate string
	EndDate   string
}

type UsageRecord struct {
	AggregationTimestamp  int64  `json:"aggregation_timestamp"`
	NRequests             int    `json:"n_requests"`
	Operation             string `json:"operation"`
	SnapshotID            string `json:"snapshot_id"`
	NContextTokensTotal   int    `json:"n_context_tokens_total"`
	NGeneratedTokensTotal int    `json:"n_generated_tokens_total"`
}

type UsageReport struct {
	Object     string        `json:"object"`
	Data       []UsageRecord `json:"data"`
	TotalUsage float64       `json:"total_usage"`
}

// StreamChunk is one increment of streamed assistant output. A chunk with
// Done set carries no content and is the last value the stream produces.
type StreamChunk struct {
	Content string
	Done    bool
}

func validRole(r Role) bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

func (r ChatRequest) validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return errModelRequired
	}
	if len(r.Messages) == 0 {
		return errMessagesRequired
	}
	for _, m := range r.Messages {
		if !validRole(m.Role) {
			return errInvalidRole
		}
	}
	return nil
}
