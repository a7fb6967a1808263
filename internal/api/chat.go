package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/windforest/querychat/internal/chat"
	"github.com/windforest/querychat/internal/observability"
)

const maxChatBodyBytes = 64 << 10

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string   `json:"response"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
}

func handleChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat service is not configured", false, nil)
		return
	}

	var request chatRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid chat request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "MESSAGE_REQUIRED", "message is required", false, nil)
		return
	}

	reply, err := deps.Chat.Send(r.Context(), request.SessionID, request.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			writeError(r.Context(), w, http.StatusBadRequest, "MESSAGE_REQUIRED", "message is required", false, nil)
			return
		}
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "chat turn failed",
				slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
				slog.Any("error", err),
			)
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "CHAT_FAILED", "chat turn could not be recorded", true, nil)
		return
	}

	sources := reply.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply.Response,
		Sources:   sources,
		SessionID: reply.SessionID,
	})
}

// handleHistory answers with [[text, is_user], ...]. Unknown or missing
// sessions produce an empty list.
func handleHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat service is not configured", false, nil)
		return
	}

	messages, err := deps.Chat.History(r.Context(), strings.TrimSpace(r.URL.Query().Get("session_id")))
	if err != nil {
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "history lookup failed",
				slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
				slog.Any("error", err),
			)
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_FAILED", "history could not be loaded", true, nil)
		return
	}

	pairs := make([][2]any, 0, len(messages))
	for _, message := range messages {
		pairs = append(pairs, [2]any{message.Text, message.IsUser()})
	}
	writeJSON(w, http.StatusOK, pairs)
}

func handleNewSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat service is not configured", false, nil)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": deps.Chat.NewSession()})
}
