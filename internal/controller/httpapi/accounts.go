package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/service"
	"github.com/go-chi/chi/v5"
)

type telegramRequest struct {
	ChatID int64 `json:"chatId"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type accountsResponse struct {
	Accounts     []*model.Account `json:"accounts"`
	PendingCount int              `json:"pendingCount"`
}

func (h *Handler) LinkTelegram(w http.ResponseWriter, r *http.Request) {
	var in telegramRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.accounts.LinkTelegram(r.Context(), actorFrom(r.Context()), in.ChatID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAccounts панель администратора: ?role= (пусто - все) и ?q=
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accounts, err := h.accounts.ListDirectory(r.Context(), actorFrom(r.Context()), model.Role(q.Get("role")), q.Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountsResponse{
		Accounts:     nonNil(accounts),
		PendingCount: service.CountPending(accounts),
	})
}

func (h *Handler) ProvisionAccount(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.accounts.Provision(r.Context(), actorFrom(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) SetAccountStatus(w http.ResponseWriter, r *http.Request) {
	var in statusRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.accounts.SetAccountStatus(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), model.AccountStatus(in.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ListTeachers ?available=true оставляет только учителей со слотами
func (h *Handler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accounts, err := h.accounts.ListDirectory(r.Context(), actorFrom(r.Context()), model.RoleTeacher, q.Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if q.Get("available") == "true" {
		accounts = service.AvailableTeachers(accounts)
	}
	writeJSON(w, http.StatusOK, nonNil(accounts))
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListDirectory(r.Context(), actorFrom(r.Context()), model.RoleStudent, r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(accounts))
}

// nonNil пустой список в JSON как [], а не null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
