package sso

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/devportal/pkg/gate"
	"github.com/platinummonkey/devportal/pkg/httputil"
	"github.com/platinummonkey/devportal/pkg/observability"
	"github.com/platinummonkey/devportal/pkg/sessionstore"
)

// Handlers serves the login endpoints under the application context
type Handlers struct {
	provider   Provider
	store      sessionstore.Store
	appContext string
}

// NewHandlers creates the handlers. provider may be nil when no identity
// provider is configured; the probe endpoint then answers with its
// configuration instead of redirecting.
func NewHandlers(provider Provider, store sessionstore.Store, appContext string) *Handlers {
	return &Handlers{
		provider:   provider,
		store:      store,
		appContext: appContext,
	}
}

// RegisterRoutes registers the login routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(h.appContext+"/services/configs", h.configs).Methods("GET")
	router.HandleFunc(h.appContext+"/services/auth/callback", h.callback).Methods("GET")
	router.HandleFunc(h.appContext+"/services/logout", h.logout).Methods("POST")
	router.HandleFunc(h.appContext+"/services/user", h.user).Methods("GET")
}

// configsResponse is returned by the probe endpoint without an identity provider
type configsResponse struct {
	SSO         bool `json:"sso"`
	LoginPrompt bool `json:"loginPrompt"`
}

// configs handles GET {context}/services/configs. With loginPrompt=false the
// authorization request is passive.
func (h *Handlers) configs(w http.ResponseWriter, r *http.Request) {
	loginPrompt, err := httputil.ParseQueryBool(r, "loginPrompt", true)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if h.provider == nil {
		_ = httputil.WriteSuccess(w, configsResponse{SSO: false, LoginPrompt: loginPrompt})
		return
	}

	sess, err := sessionstore.FromContext(r.Context(), h.store)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	pending := pendingLogin{
		State:    uuid.NewString(),
		Passive:  !loginPrompt,
		ReturnTo: h.returnTo(r),
	}
	data, _ := json.Marshal(pending)
	if err := sess.Set(r.Context(), StateKey, string(data)); err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to store login state")
		httputil.WriteInternalError(w, errors.New("failed to start login"))
		return
	}

	http.Redirect(w, r, h.provider.AuthCodeURL(pending.State, pending.Passive), http.StatusFound)
}

// returnTo picks where the browser goes after the callback: the returnTo
// parameter set by the portal redirect, then the referring portal page, then
// the portal root. Targets outside the application context are ignored and
// only path and query are kept.
func (h *Handlers) returnTo(r *http.Request) string {
	if raw := r.URL.Query().Get(gate.ReturnToParam); raw != "" {
		u, err := url.Parse(raw)
		if err == nil && u.Scheme == "" && u.Host == "" {
			if target, ok := h.localTarget(u); ok {
				return target
			}
		}
	}

	if ref, err := url.Parse(r.Referer()); err == nil {
		if target, ok := h.localTarget(ref); ok {
			return target
		}
	}
	return h.appContext + "/"
}

// localTarget returns the path and query of u when it is a portal page
func (h *Handlers) localTarget(u *url.URL) (string, bool) {
	if u.Path == "" || strings.HasPrefix(u.Path, "//") {
		return "", false
	}
	if u.Path != h.appContext && !strings.HasPrefix(u.Path, h.appContext+"/") {
		return "", false
	}
	if strings.HasPrefix(u.Path, h.appContext+"/services/") {
		return "", false
	}

	target := u.Path
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target, true
}

// callback handles GET {context}/services/auth/callback
func (h *Handlers) callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	if h.provider == nil {
		httputil.WriteNotFoundError(w, "single sign-on is not configured")
		return
	}

	sess, err := sessionstore.FromContext(ctx, h.store)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	pending, err := h.takePending(r, sess)
	if err != nil {
		logger.WithError(err).Warn("Rejected login callback")
		httputil.WriteBadRequest(w, ErrStateMismatch.Error())
		return
	}

	query := r.URL.Query()
	if code := query.Get("error"); code != "" {
		switch code {
		case ErrorAccessDenied:
			if err := DenyPermission(ctx, sess); err != nil {
				logger.WithError(err).Error("Failed to record permission denial")
			}
		case ErrorLoginRequired, ErrorInteractionRequired, ErrorConsentRequired, ErrorAccountSelectionRequired:
			// nobody is signed in at the identity provider
		default:
			logger.WithFields(map[string]interface{}{
				"error":       code,
				"description": query.Get("error_description"),
			}).Warn("Identity provider returned an error")
		}
		http.Redirect(w, r, pending.ReturnTo, http.StatusFound)
		return
	}

	user, err := h.provider.Exchange(ctx, query.Get("code"))
	if err != nil {
		logger.WithError(err).Error("Login failed")
		httputil.WriteBadGateway(w, "authentication failed")
		return
	}

	if err := SignIn(ctx, sess, user); err != nil {
		logger.WithError(err).Error("Failed to store signed-in user")
		httputil.WriteInternalError(w, errors.New("failed to sign in"))
		return
	}

	logger.WithField("subject", user.Subject).Info("User signed in")
	http.Redirect(w, r, pending.ReturnTo, http.StatusFound)
}

// takePending reads and clears the pending login and checks the state
func (h *Handlers) takePending(r *http.Request, sess *sessionstore.Session) (*pendingLogin, error) {
	raw, ok, err := sess.Get(r.Context(), StateKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("no pending login")
	}
	if err := sess.Remove(r.Context(), StateKey); err != nil {
		return nil, err
	}

	var pending pendingLogin
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, err
	}
	if pending.State == "" || r.URL.Query().Get("state") != pending.State {
		return nil, ErrStateMismatch
	}
	if pending.ReturnTo == "" {
		pending.ReturnTo = h.appContext + "/"
	}
	return &pending, nil
}

// logout handles POST {context}/services/logout
func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionstore.FromContext(r.Context(), h.store)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if err := SignOut(r.Context(), sess); err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to sign out")
		httputil.WriteInternalError(w, errors.New("failed to sign out"))
		return
	}

	httputil.WriteNoContent(w)
}

// user handles GET {context}/services/user
func (h *Handlers) user(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionstore.FromContext(r.Context(), h.store)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	user, ok, err := CurrentUser(r.Context(), sess)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !ok {
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "not signed in")
		return
	}

	_ = httputil.WriteSuccess(w, user)
}
