package httpapi

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Account   *model.Account `json:"account"`
}

// identityEvent null в потоке означает выход из системы
type identityEvent struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.accounts.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Session.Token,
		ExpiresAt: res.Session.ExpiresAt,
		Account:   res.Account,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.SignOut(r.Context(), bearerToken(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountFrom(r.Context()))
}

// IdentityStream SSE: текущая идентичность сессии, затем каждое изменение
func (h *Handler) IdentityStream(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	changes, err := h.accounts.IdentityChanges(r.Context(), session.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	events := make(chan *identityEvent)
	go func() {
		defer close(events)
		for id := range changes {
			var ev *identityEvent
			if id != nil {
				ev = &identityEvent{UID: id.UID, Email: id.Email}
			}
			select {
			case events <- ev:
			case <-r.Context().Done():
				return
			}
		}
	}()

	streamEvents(w, r, loggerFrom(r.Context(), h.logger), "identity", (<-chan *identityEvent)(events))
}
