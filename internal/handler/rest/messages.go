package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/service"
)

// maxSendBody caps inline image payloads at roughly 10 MiB of base64.
const maxSendBody = 14 << 20

// MessageHandler exposes conversation CRUD over HTTP.
type MessageHandler struct {
	messenger service.Messenger
	logger    *slog.Logger
}

func NewMessageHandler(messenger service.Messenger, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		messenger: messenger,
		logger:    logger,
	}
}

// Contacts lists every account except the caller's, for the sidebar.
func (h *MessageHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	users, err := h.messenger.Contacts(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// History returns the conversation with the counterpart in the URL.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	otherID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	msgs, err := h.messenger.History(r.Context(), user.ID, otherID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type sendRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Send persists a new message to the counterpart in the URL. The success
// response is sealed by the persistence write; live delivery is decoupled.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	recipientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipient id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSendBody)
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messenger.Send(r.Context(), user.ID, recipientID, req.Text, req.Image)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Delete removes a message the caller sent.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	messageID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	if err := h.messenger.Delete(r.Context(), user.ID, messageID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
