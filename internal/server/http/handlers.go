// Package httpserver exposes the vault over HTTP+JSON.
package httpserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/agent-pass/internal/api/vaultv1"
	"github.com/and161185/agent-pass/internal/authctx"
	"github.com/and161185/agent-pass/internal/convert"
	pkgcrypto "github.com/and161185/agent-pass/internal/crypto"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/and161185/agent-pass/internal/service"
)

// Handler serves the /api/v1 endpoints.
type Handler struct {
	auth     service.AuthService
	settings service.SettingsService
	vault    service.CredentialService
	log      *zap.Logger
}

// New constructs a Handler with injected services.
func New(auth service.AuthService, settings service.SettingsService, vault service.CredentialService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{auth: auth, settings: settings, vault: vault, log: log}
}

// userID is set by authenticate for every protected route.
func userID(r *http.Request) uuid.UUID {
	id, _ := authctx.UserIDFromCtx(r.Context())
	return id
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := convert.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "bad id")
		return uuid.Nil, false
	}
	return id, true
}

// --- Auth ---

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req vaultv1.SignUpRequest
	if !decode(w, r, &req) {
		return
	}
	tok, u, err := h.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, "sign up", err)
		return
	}
	writeJSON(w, http.StatusCreated, convert.ToWireSession(tok, u))
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req vaultv1.SignInRequest
	if !decode(w, r, &req) {
		return
	}
	tok, u, err := h.auth.SignInWithIP(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		h.writeError(w, r, "sign in", err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToWireSession(tok, u))
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	tok, ok := bearerToken(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "sign out requires a bearer session")
		return
	}
	if err := h.auth.SignOut(r.Context(), tok); err != nil {
		h.writeError(w, r, "sign out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.CurrentUser(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, "whoami", err)
		return
	}
	writeJSON(w, http.StatusOK, vaultv1.UserResponse{User: convert.ToWireUser(u)})
}

// --- Account ---

func (h *Handler) writeAccount(w http.ResponseWriter, r *http.Request, op string, st model.AccountSettings) {
	ctx := r.Context()
	u, err := h.auth.CurrentUser(ctx, st.UserID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	uri, err := h.settings.EnrollmentURI(st, u.Email)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToWireAccount(st, uri))
}

// qrSize is the edge length of the enrollment QR code in pixels.
const qrSize = 256

func (h *Handler) totpQRCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.settings.EnsureSettings(ctx, userID(r))
	if err != nil {
		h.writeError(w, r, "totp qr code", err)
		return
	}
	u, err := h.auth.CurrentUser(ctx, st.UserID)
	if err != nil {
		h.writeError(w, r, "totp qr code", err)
		return
	}
	uri, err := h.settings.EnrollmentURI(st, u.Email)
	if err != nil {
		h.writeError(w, r, "totp qr code", err)
		return
	}
	img, err := pkgcrypto.TOTPQRCode(uri, qrSize)
	if err != nil {
		h.writeError(w, r, "totp qr code", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.EnsureSettings(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, "get account", err)
		return
	}
	h.writeAccount(w, r, "get account", st)
}

func (h *Handler) regenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.RegenerateAPIKey(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, "regenerate api key", err)
		return
	}
	h.writeAccount(w, r, "regenerate api key", st)
}

func (h *Handler) verifyTOTP(w http.ResponseWriter, r *http.Request) {
	var req vaultv1.VerifyTOTPRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := h.settings.VerifyTOTP(r.Context(), userID(r), req.Code)
	if err != nil {
		h.writeError(w, r, "verify totp", err)
		return
	}
	writeJSON(w, http.StatusOK, vaultv1.VerifyTOTPResponse{Valid: ok})
}

// --- Groups ---

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	gs, err := h.vault.ListGroups(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, "list groups", err)
		return
	}
	writeJSON(w, http.StatusOK, vaultv1.ListGroupsResponse{Groups: convert.ToWireGroups(gs)})
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req vaultv1.CreateGroupRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := h.vault.CreateGroup(r.Context(), userID(r), req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, "create group", err)
		return
	}
	writeJSON(w, http.StatusCreated, vaultv1.GroupResponse{Group: convert.ToWireGroup(g)})
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.vault.DeleteGroup(r.Context(), userID(r), id); err != nil {
		h.writeError(w, r, "delete group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Credentials ---

func (h *Handler) listCredentials(w http.ResponseWriter, r *http.Request) {
	cs, err := h.vault.ListCredentials(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, "list credentials", err)
		return
	}
	writeJSON(w, http.StatusOK, vaultv1.ListCredentialsResponse{Credentials: convert.ToWireCredentials(cs)})
}

func (h *Handler) createCredential(w http.ResponseWriter, r *http.Request) {
	var req vaultv1.CreateCredentialRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := convert.FromWireNewCredential(&req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "bad group_id")
		return
	}
	c, err := h.vault.CreateCredential(r.Context(), userID(r), in)
	if err != nil {
		h.writeError(w, r, "create credential", err)
		return
	}
	writeJSON(w, http.StatusCreated, vaultv1.CredentialResponse{Credential: convert.ToWireCredential(c)})
}

func (h *Handler) updateCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req vaultv1.UpdateCredentialValueRequest
	if !decode(w, r, &req) {
		return
	}
	ts, err := h.vault.UpdateCredentialValue(r.Context(), userID(r), id, req.Value)
	if err != nil {
		h.writeError(w, r, "update credential", err)
		return
	}
	writeJSON(w, http.StatusOK, vaultv1.UpdateCredentialValueResponse{ModifiedAt: ts})
}

func (h *Handler) deleteCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.vault.DeleteCredential(r.Context(), userID(r), id); err != nil {
		h.writeError(w, r, "delete credential", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getVault(w http.ResponseWriter, r *http.Request) {
	v, err := h.vault.Overview(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, "vault", err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToWireVault(v))
}

// --- Health ---

func healthz(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				writeMessage(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
