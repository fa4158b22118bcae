package types

// FeedbackRequest is the body of POST /api/feedback. Everything past
// category and message is optional context echoed into the issue body.
type FeedbackRequest struct {
	Category  string `json:"category"`
	Message   string `json:"message"`
	Contact   string `json:"contact,omitempty"`
	Page      string `json:"page,omitempty"`
	Theme     string `json:"theme,omitempty"`
	Viewport  string `json:"viewport,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

type FeedbackResponse struct {
	Success     bool   `json:"success"`
	IssueNumber int    `json:"issueNumber"`
	Message     string `json:"message"`
}
