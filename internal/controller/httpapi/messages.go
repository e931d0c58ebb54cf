package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/go-chi/chi/v5"
)

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var in sendMessageRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	message, err := h.messages.Send(r.Context(), actorFrom(r.Context()), in.ReceiverID, in.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.Conversation(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(messages))
}

// MessageStream SSE: история переписки, затем новые сообщения по одному
func (h *Handler) MessageStream(w http.ResponseWriter, r *http.Request) {
	stream, err := h.messages.Subscribe(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer stream.Close()

	streamEvents[model.Message](w, r, loggerFrom(r.Context(), h.logger), "message", stream.C())
}
