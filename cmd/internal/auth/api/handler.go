package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"liftlog/cmd/internal/auth/flow"
	"liftlog/cmd/internal/auth/session"
	"liftlog/cmd/internal/httperr"
)

var errMissingBasicAuth = errors.New("basic auth credentials are required")

// Handler wires HTTP auth endpoints to the auth flows.
type Handler struct {
	log *slog.Logger
	cfg Config

	svc     *flow.Service
	cookies session.Cookies

	// requireSession resolves the caller before identity-bound handlers run.
	requireSession func(http.Handler) http.Handler
}

// NewHandler constructs an auth Handler. sessions is the session middleware
// applied to routes that need a resolved caller.
func NewHandler(log *slog.Logger, svc *flow.Service, cookies session.Cookies, sessions func(http.Handler) http.Handler, cfg Config) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if svc == nil {
		return nil, errors.New("auth: nil flow service")
	}
	if sessions == nil {
		return nil, errors.New("auth: nil session middleware")
	}
	return &Handler{
		log:            log,
		cfg:            cfg,
		svc:            svc,
		cookies:        cookies,
		requireSession: sessions,
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/anonymous", h.handleAnonymous)
	mux.HandleFunc("/logout", h.handleLogout)
	mux.Handle("/user-info", h.requireSession(http.HandlerFunc(h.handleUserInfo)))
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	username, password, ok := r.BasicAuth()
	if !ok || strings.TrimSpace(username) == "" {
		httperr.Write(w, h.log, "auth.login.fail", &flow.Error{Kind: flow.KindBadRequest, Op: "authapi.login", Err: errMissingBasicAuth})
		return
	}

	presented, _ := h.cookies.Read(r)
	issued, err := h.svc.Login(r.Context(), username, password, presented)
	if err != nil {
		if errors.Is(err, flow.ErrInvalidCredentials) {
			h.log.Info("auth.login.rejected", "ip", ipString(clientIP(r, h.cfg.TrustProxy)))
		}
		httperr.Write(w, h.log, "auth.login.fail", err)
		return
	}

	h.cookies.Set(w, issued.Token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	presented, _ := h.cookies.Read(r)
	issued, err := h.svc.Anonymous(r.Context(), presented)
	if err != nil {
		httperr.Write(w, h.log, "auth.anonymous.fail", err)
		return
	}

	h.cookies.Set(w, issued.Token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	presented, _ := h.cookies.Read(r)
	res, err := h.svc.Logout(r.Context(), presented)
	if err != nil {
		httperr.Write(w, h.log, "auth.logout.fail", err)
		return
	}

	if res.ClearCookie {
		h.cookies.Clear(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	caller, err := session.Caller(r.Context())
	if err != nil {
		httperr.Write(w, h.log, "auth.user_info.fail", err)
		return
	}

	info, err := h.svc.AgentInfo(r.Context(), caller.OwnerID)
	if err != nil {
		httperr.Write(w, h.log, "auth.user_info.fail", err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, toUserInfoResponse(info))
}
