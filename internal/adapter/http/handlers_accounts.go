package adapthttp

import (
	"errors"
	"net/http"

	"sucrelinda/internal/app"
	"sucrelinda/internal/domain"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": account})
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.accounts.UpdateProfile(r.Context(), account.ID, req.Name)
	if err != nil {
		s.log.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": updated})
}

func (s *Server) handleAdminListAccounts(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 0)
	offset := intQuery(r, "offset", 0)

	accounts, total, err := s.accounts.List(r.Context(), limit, offset)
	if err != nil {
		s.log.Error("list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts, "total": total})
}

func (s *Server) handleAdminUpdateAccount(w http.ResponseWriter, r *http.Request) {
	actor, _ := AccountFromContext(r.Context())
	id := r.PathValue("id")

	var req struct {
		Role   *domain.Role `json:"role"`
		Active *bool        `json:"active"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role == nil && req.Active == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be USER or ADMIN")
		return
	}

	var account *domain.Account
	var err error
	if req.Role != nil {
		account, err = s.accounts.SetRole(r.Context(), actor.ID, id, *req.Role)
	}
	if err == nil && req.Active != nil {
		account, err = s.accounts.SetActive(r.Context(), actor.ID, id, *req.Active)
	}
	if err != nil {
		s.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": account})
}

func (s *Server) handleAdminDeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor, _ := AccountFromContext(r.Context())
	id := r.PathValue("id")

	if err := s.accounts.Delete(r.Context(), actor.ID, id); err != nil {
		s.writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrOwnAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	default:
		s.log.Error("account admin", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
