package rax

// RequestOption mutates a ChatRequest before it is sent.
type RequestOption func(*ChatRequest)

// BuildChatRequest creates a request from model + messages and applies opts.
func BuildChatRequest(model string, messages []Message, opts ...RequestOption) ChatRequest {
	req := ChatRequest{Model: model, Messages: append([]Message(nil), messages...)}
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}
	return req
}

func WithMaxTokens(v int) RequestOption {
	return func(r *ChatRequest) { r.MaxTokens = &v }
}

func WithTemperature(v float64) RequestOption {
	return func(r *ChatRequest) { r.Temperature = &v }
}

func WithTopP(v float64) RequestOption {
	return func(r *ChatRequest) { r.TopP = &v }
}

func WithFrequencyPenalty(v float64) RequestOption {
	return func(r *ChatRequest) { r.FrequencyPenalty = &v }
}

func WithPresencePenalty(v float64) RequestOption {
	return func(r *ChatRequest) { r.PresencePenalty = &v }
}

func WithStop(stop ...string) RequestOption {
	return func(r *ChatRequest) { r.Stop = append([]string(nil), stop...) }
}

func WithUser(tag string) RequestOption {
	return func(r *ChatRequest) { r.User = tag }
}
