package routes

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"scribble/scribble/controllers"
	"scribble/scribble/middlewares"
	"scribble/scribble/services/ratelimit"
	"scribble/scribble/utils/types"
)

func ChatRoutes(ctrl *controllers.ChatController, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	// POST /api/chat : proxy a streaming completion
	r.With(middlewares.RateLimit(limiter)).Post("/", ctrl.Completion)

	// GET /api/chat/ws : the same pipeline relayed over a websocket.
	// The first text frame carries the chat payload; deltas come back as
	// text frames until the stream ends.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}

		var payload types.ChatPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}

		wire, _, errMsg := ctrl.Prepare(payload)
		if errMsg != "" {
			reply, _ := json.Marshal(types.ErrorResponse{Error: errMsg})
			conn.Write(ctx, websocket.MessageText, reply)
			conn.Close(websocket.StatusPolicyViolation, "rejected")
			return
		}

		ch, err := ctrl.StreamDeltas(ctx, wire)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"upstream unavailable"}`))
			return
		}
		for chunk := range ch {
			if err := conn.Write(ctx, websocket.MessageText, []byte(chunk)); err != nil {
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	})

	return r
}
