// scribble/controllers/feedback.go
package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"scribble/scribble/services/feedback"
	"scribble/scribble/utils/logging"
	"scribble/scribble/utils/types"
)

const (
	feedbackMinChars = 5
	feedbackMaxChars = 1000
)

var feedbackCategories = map[string]bool{
	"bug":   true,
	"idea":  true,
	"kudos": true,
	"other": true,
}

type FeedbackController struct {
	tracker *feedback.Client
}

func NewFeedbackController(tracker *feedback.Client) *FeedbackController {
	return &FeedbackController{tracker: tracker}
}

// Submit validates a feedback form and files it as an issue.
func (c *FeedbackController) Submit(w http.ResponseWriter, r *http.Request) {
	var req types.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if !feedbackCategories[req.Category] {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Unknown feedback category"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if len([]rune(message)) < feedbackMinChars {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Message is too short"})
		return
	}
	if runes := []rune(message); len(runes) > feedbackMaxChars {
		message = string(runes[:feedbackMaxChars])
	}

	if !c.tracker.Configured() {
		logging.ErrorLogger.Error("feedback endpoint called without tracker credentials")
		writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: "Server is not configured"})
		return
	}

	title := fmt.Sprintf("[%s] Site feedback", req.Category)
	number, err := c.tracker.CreateIssue(r.Context(), title, issueBody(req, message), []string{"feedback", req.Category})
	if err != nil {
		logging.ErrorLogger.Error("failed to file feedback issue", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, types.ErrorResponse{Error: "Could not record feedback right now"})
		return
	}

	writeJSON(w, http.StatusOK, types.FeedbackResponse{
		Success:     true,
		IssueNumber: number,
		Message:     "Thanks! Your note made it into the sketchbook.",
	})
}

func issueBody(req types.FeedbackRequest, message string) string {
	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\n\n---\n")
	for _, field := range []struct{ label, value string }{
		{"Contact", req.Contact},
		{"Page", req.Page},
		{"Theme", req.Theme},
		{"Viewport", req.Viewport},
		{"User agent", req.UserAgent},
	} {
		if field.value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", field.label, field.value)
		}
	}
	return b.String()
}
