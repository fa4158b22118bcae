package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"go.uber.org/zap"

	"scribble/scribble/utils/logging"
	"scribble/scribble/utils/types"
)

// RunStream starts a streaming completion and decodes the SSE body into
// text deltas, sent in arrival order on the returned channel. The channel
// is closed when the stream ends, errors out, or ctx is cancelled.
func (c *Client) RunStream(ctx context.Context, messages []types.ChatMessage) (<-chan string, error) {
	body, err := c.OpenStream(ctx, messages)
	if err != nil {
		return nil, err
	}

	ch := make(chan string)
	go func() {
		defer func() {
			close(ch)
			body.Close()
		}()
		DecodeSSE(ctx, body, func(delta string) bool {
			select {
			case ch <- delta:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return ch, nil
}

// DecodeSSE reads an event stream line by line and calls emit for every
// text delta, in order. Rules:
//   - only lines with the "data:" prefix matter;
//   - "[DONE]" stops delta extraction, but the body is drained to EOF so
//     the connection isn't torn down mid-write by an upstream proxy;
//   - lines that fail to parse as JSON are skipped, never fatal;
//   - emit returning false aborts the read.
//
// bufio reassembles lines regardless of how the transport chunked the
// bytes, so mid-line and mid-token splits need no special handling.
func DecodeSSE(ctx context.Context, body io.Reader, emit func(delta string) bool) {
	reader := bufio.NewReader(body)
	done := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				logging.ErrorLogger.Error("sse stream read error", zap.Error(err))
			}
			return
		}

		if done {
			continue // draining
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			done = true
			continue
		}

		delta, ok := decodeDelta(data)
		if !ok {
			// partial or malformed chunk, expected under load
			continue
		}
		if delta == "" {
			continue
		}
		if !emit(delta) {
			return
		}
	}
}

func decodeDelta(data string) (string, bool) {
	var chunk streamResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", false
	}
	var b strings.Builder
	for _, choice := range chunk.Choices {
		b.WriteString(choice.Delta.Content)
	}
	return b.String(), true
}
