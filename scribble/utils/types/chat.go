// scribble/utils/types/chat.go
package types

// ChatMessage is the wire shape shared by the public API and the upstream
// provider: just a role and its text.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatPayload is the body of POST /api/chat and POST /api/suggest.
type ChatPayload struct {
	Messages []ChatMessage `json:"messages"`
}

// SuggestResponse carries zero, one or two short follow-up lines.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// ErrorResponse is the uniform error body for 4xx/5xx replies.
type ErrorResponse struct {
	Error string `json:"error"`
}
