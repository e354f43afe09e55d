package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fenster/cmd/identity"
	"fenster/cmd/internal/auth/session"
	"fenster/cmd/internal/fault"
)

// Handler wires the HTTP auth endpoints to the user store and the session
// manager.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	users    identity.Store
	sessions *session.Manager
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, users identity.Store, sessions *session.Manager) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil {
		return nil, errors.New("auth: nil user store")
	}
	if sessions == nil {
		return nil, errors.New("auth: nil session manager")
	}
	return &Handler{log: log, cfg: cfg, users: users, sessions: sessions}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/delete", h.handleDelete)
	mux.HandleFunc("/user/{id}", h.handleGetUser)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id and password are required")
		return
	}
	if session.ReservedUserID(req.ID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid user id")
		return
	}

	ctx := r.Context()

	if exists, err := h.users.ExistsID(ctx, req.ID); err != nil {
		h.log.Error("auth.register.exists_id.fail", "err", err)
		writeFault(w, err)
		return
	} else if exists {
		writeFault(w, fault.Conflict("auth.register", "user with given id already exists"))
		return
	}
	if exists, err := h.users.ExistsEmail(ctx, req.Email); err != nil {
		h.log.Error("auth.register.exists_email.fail", "err", err)
		writeFault(w, err)
		return
	} else if exists {
		writeFault(w, fault.Conflict("auth.register", "user with given email already exists"))
		return
	}

	user := identity.User{
		ID:    req.ID,
		Name:  req.Name,
		Email: req.Email,
		// Author status is granted out of band, never at registration.
		Author: false,
	}
	if err := h.users.Create(ctx, user, req.Password); err != nil {
		h.log.Error("auth.register.create.fail", "err", err)
		writeFault(w, err)
		return
	}

	h.log.Info("auth.register.ok", "user_id", user.ID)
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()

	user, err := h.users.Fetch(ctx, req.ID)
	if err != nil {
		writeFault(w, err)
		return
	}

	ok, err := h.users.VerifyPassword(ctx, user.ID, req.Password)
	if err != nil {
		h.log.Error("auth.login.verify.fail", "err", err)
		writeFault(w, err)
		return
	}
	if !ok {
		writeFault(w, fault.Unauthorized("auth.login", "incorrect password"))
		return
	}

	pair, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		h.log.Error("auth.login.create_session.fail", "err", err)
		writeFault(w, err)
		return
	}

	h.log.Info("auth.login.ok", "user_id", user.ID)
	writeJSON(w, http.StatusOK, tokenResponse(pair))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.sessions.RefreshAccess(r.Context(), req.RefreshToken)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse(pair))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	bearer, ok := bearerToken(r)
	if !ok {
		writeFault(w, fault.Unauthorized("auth.logout", "missing bearer token"))
		return
	}

	ctx := r.Context()
	userID, err := h.sessions.Authenticate(ctx, bearer)
	if err != nil {
		writeFault(w, err)
		return
	}
	if err := h.sessions.RevokeAccess(ctx, bearer); err != nil {
		h.log.Error("auth.logout.revoke.fail", "err", err)
		writeFault(w, err)
		return
	}

	h.log.Info("auth.logout.ok", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	bearer, ok := bearerToken(r)
	if !ok {
		writeFault(w, fault.Unauthorized("auth.delete", "missing bearer token"))
		return
	}

	ctx := r.Context()
	userID, err := h.sessions.Authenticate(ctx, bearer)
	if err != nil {
		writeFault(w, err)
		return
	}

	// Session first, then the row: a half-completed delete must not leave a
	// live session pointing at a vanished user.
	if err := h.sessions.RevokeAccess(ctx, bearer); err != nil {
		h.log.Error("auth.delete.revoke.fail", "err", err)
		writeFault(w, err)
		return
	}
	if err := h.users.Delete(ctx, userID); err != nil {
		h.log.Error("auth.delete.user.fail", "err", err)
		writeFault(w, err)
		return
	}

	h.log.Info("auth.delete.ok", "user_id", userID)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	bearer, ok := bearerToken(r)
	if !ok {
		writeFault(w, fault.Unauthorized("user.get", "missing bearer token"))
		return
	}
	ctx := r.Context()
	if _, err := h.sessions.Authenticate(ctx, bearer); err != nil {
		writeFault(w, err)
		return
	}

	user, err := h.users.Fetch(ctx, r.PathValue("id"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(raw) <= len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(raw[len(prefix):])
	return tok, tok != ""
}
