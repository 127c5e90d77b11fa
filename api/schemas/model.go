package schemas

// Usage holds the token counters reported for one model response.
type Usage struct {
	TotalTokens      int `json:"total_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	CandidatesTokens int `json:"candidates_tokens"`
}

// Feedback carries prompt safety feedback, when the model reports any.
type Feedback struct {
	BlockReason string `json:"block_reason,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ModelResponse is the answer of a single generation call.
type ModelResponse struct {
	Parts    []Part    `json:"parts"`
	Usage    *Usage    `json:"usage,omitempty"`
	Feedback *Feedback `json:"feedback,omitempty"`
}
