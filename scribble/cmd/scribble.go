// Terminal chat client for the scribble portfolio assistant.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"scribble/scribble/agents/actions"
	"scribble/scribble/agents/core"
	"scribble/scribble/config"
	"scribble/scribble/services/llm"
	"scribble/scribble/services/ratelimit"
	"scribble/scribble/sources/store"
	"scribble/scribble/sources/store/dao"
	"scribble/scribble/utils/color"
	"scribble/scribble/utils/directive"
	"scribble/scribble/utils/httputils"
	"scribble/scribble/utils/logging"
	"scribble/scribble/utils/types"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	registry, err := actions.Load()
	if err != nil {
		logging.ErrorLogger.Error("failed to load action registry", zap.Error(err))
		fmt.Println(color.Error("Could not load the action registry."))
		os.Exit(1)
	}

	db, err := store.NewDatabase(cfg.StorePath)
	if err != nil {
		logging.ErrorLogger.Error("failed to open history store", zap.Error(err))
		fmt.Println(color.Error("Could not open the history store."))
		os.Exit(1)
	}
	defer db.Close()

	client := llm.NewClient(cfg.ServerURL+"/api/chat", "", "")
	limiter := ratelimit.New(ratelimit.Config{MaxRequests: cfg.ClientLimit, Window: cfg.ClientWindow})
	session := core.NewSession(core.Config{
		MaxTurns:  cfg.MaxTurns,
		StoredCap: 50,
		LimitKey:  "local",
	}, client, limiter, dao.NewConversationDAO(db.DB))

	theme := "light"

	// Ctrl-C aborts an in-flight reply instead of killing the client.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	go func() {
		for range sigCh {
			session.Cancel()
		}
	}()

	printHistory(session)
	fmt.Println(color.Info("Type a question, or 'help' for commands."))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.Prompt("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			fmt.Println(color.Info("See you around!"))
			return
		case "help":
			fmt.Println("  /clear     start over")
			fmt.Println("  /actions   things I can do for you")
			fmt.Println("  exit       leave")
			continue
		case "/clear":
			session.Clear()
			fmt.Println(color.Info("Fresh page."))
			continue
		case "/actions":
			for _, label := range registry.Followups(theme) {
				fmt.Println("  - " + label)
			}
			continue
		}

		// fast local path: known actions never touch the network
		if def := registry.Resolve(line); def != nil {
			reply := session.AddLocalExchange(line, def)
			fmt.Println(color.Assistant(reply.Content))
			theme = applyDirective(cfg, session, reply.Directive, theme)
			fmt.Println()
			continue
		}

		theme = runTurn(cfg, session, line, theme)
	}
}

// runTurn streams one reply, rendering fragments as they land, then fires
// the best-effort suggestion fetch.
func runTurn(cfg config.Config, session *core.Session, line, theme string) string {
	renderer := newStreamRenderer(os.Stdout, color.Assistant)
	session.OnFragment = renderer.fragment
	defer func() { session.OnFragment = nil }()

	res := session.Send(context.Background(), line)

	switch res.Outcome {
	case core.RateLimited:
		fmt.Println(color.Warning(fmt.Sprintf("Easy there! Try again in %d seconds.", res.RetryAfter)))
	case core.Cancelled:
		fmt.Println()
		fmt.Println(color.Info("Okay, dropped that one."))
	case core.WrappedUp:
		fmt.Println(color.Assistant(res.Message.Content))
	case core.Streamed:
		if res.Message != nil {
			// ends the line, redrawing if the settled text diverges
			renderer.settle(res.Message.Content)
			theme = applyDirective(cfg, session, res.Message.Directive, theme)
		} else {
			fmt.Println()
		}
		go fetchSuggestions(cfg, session)
	}
	fmt.Println()
	return theme
}

func printHistory(session *core.Session) {
	for _, m := range session.Messages() {
		prefix := "you> "
		if m.Role == "assistant" {
			prefix = ""
		}
		if m.IsOld && m.ID != core.WelcomeID {
			fmt.Println(color.Old(prefix + m.Content))
			continue
		}
		if m.Role == "assistant" {
			fmt.Println(color.Assistant(m.Content))
		}
	}
	fmt.Println()
}

// applyDirective performs the side effect a finished reply asked for. In
// the terminal that means printing notices and tracking the theme.
func applyDirective(cfg config.Config, session *core.Session, d directive.Directive, theme string) string {
	switch d.Kind {
	case directive.Navigate:
		fmt.Println(color.Effect("↪ opening " + cfg.ServerURL + d.Path))
	case directive.Theme:
		switch d.Mode {
		case "toggle":
			if theme == "light" {
				theme = "dark"
			} else {
				theme = "light"
			}
		default:
			theme = d.Mode
		}
		fmt.Println(color.Effect("☼ theme is now " + theme))
	case directive.OpenURLs:
		for _, url := range d.URLs {
			fmt.Println(color.Effect("↪ opening " + url))
		}
	case directive.Feedback:
		runFeedbackForm(cfg, theme)
	}
	return theme
}

// fetchSuggestions asks the server for follow-up ideas. Pure enhancement:
// any failure is silent.
func fetchSuggestions(cfg config.Config, session *core.Session) {
	var payload types.ChatPayload
	for _, m := range session.Messages() {
		if m.ID == core.WelcomeID || m.Content == "" {
			continue
		}
		payload.Messages = append(payload.Messages, types.ChatMessage{Role: m.Role, Content: m.Content})
	}
	if len(payload.Messages) == 0 {
		return
	}

	var resp types.SuggestResponse
	if err := httputils.PostJSON(context.Background(), cfg.ServerURL+"/api/suggest", nil, payload, &resp); err != nil {
		return
	}
	if len(resp.Suggestions) > 0 {
		fmt.Println(color.Info("you could ask: " + strings.Join(resp.Suggestions, " / ")))
	}
}

// runFeedbackForm collects a quick note and posts it to the feedback
// endpoint, which files it with the issue tracker.
func runFeedbackForm(cfg config.Config, theme string) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("category (bug/idea/kudos/other): ")
	category, _ := reader.ReadString('\n')
	fmt.Print("your note: ")
	message, _ := reader.ReadString('\n')

	req := types.FeedbackRequest{
		Category: strings.TrimSpace(category),
		Message:  strings.TrimSpace(message),
		Page:     "/chat",
		Theme:    theme,
	}
	var resp types.FeedbackResponse
	err := httputils.PostJSON(context.Background(), cfg.ServerURL+"/api/feedback", nil, req, &resp)
	if err != nil || !resp.Success {
		fmt.Println(color.Warning("Couldn't send that right now. Try again later?"))
		return
	}
	fmt.Println(color.Info(fmt.Sprintf("%s (issue #%d)", resp.Message, resp.IssueNumber)))
}
