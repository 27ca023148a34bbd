package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/llm"
	"github.com/mediajel/apidocs/internal/service"
)

// Data stream line prefixes understood by the chat frontend.
const (
	streamText   = "0:"
	streamError  = "3:"
	streamFinish = "d:"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	ThreadID string        `json:"threadId"`
}

// handleChat answers the last user message as a text stream. The thread is
// resolved first so its ID can go out in a header before any text does.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	msgs := make([]llm.Message, 0, len(body.Messages))
	for i, m := range body.Messages {
		if !domain.ValidRoles[m.Role] {
			writeError(w, http.StatusBadRequest, "messages["+strconv.Itoa(i)+"]: unknown role "+strconv.Quote(m.Role))
			return
		}
		msgs = append(msgs, llm.Message{Role: domain.MessageRole(m.Role), Content: m.Content})
	}
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != domain.RoleUser || strings.TrimSpace(msgs[len(msgs)-1].Content) == "" {
		writeError(w, http.StatusBadRequest, service.ErrEmptyConversation.Error())
		return
	}

	ctx := r.Context()
	// With no model configured AskStream fails before touching threads, so
	// none is created for a turn that cannot be answered.
	threadID := body.ThreadID
	if s.deps.Assistant.Configured() {
		var err error
		threadID, err = s.deps.Assistant.ResolveThread(ctx, body.ThreadID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if threadID != "" {
		w.Header().Set("X-Thread-Id", threadID)
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	_, err := s.deps.Assistant.AskStream(ctx, service.AskRequest{ThreadID: threadID, Messages: msgs},
		func(ev llm.StreamEvent) error {
			var line string
			switch {
			case ev.Err != nil:
				line = streamError + jsonString(ev.Err.Error())
			case ev.Done:
				line = streamFinish + `{"finishReason":"stop"}`
			default:
				line = streamText + jsonString(ev.Delta)
			}
			if _, err := w.Write([]byte(line + "\n")); err != nil {
				return err
			}
			return rc.Flush()
		})
	if err != nil {
		s.logger.WarnContext(ctx, "chat turn failed", "thread_id", threadID, "error", err)
	}
}

// jsonString encodes s as a JSON string literal without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	threads, err := s.deps.Assistant.Threads(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (s *Server) handleThreadMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Assistant.Messages(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Assistant.DeleteThread(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
